package rank

import (
	"fmt"
	"math"
)

// DueBuckets scores a task by how soon it is due. Scores must not increase
// from Overdue down to None.
type DueBuckets struct {
	Overdue float64 `yaml:"overdue" json:"overdue"`
	Week    float64 `yaml:"week" json:"week"`
	Month   float64 `yaml:"month" json:"month"`
	Later   float64 `yaml:"later" json:"later"`
	None    float64 `yaml:"none" json:"none"`
}

// PriorityLevels scores a task by priority. Scores must not increase from
// P1 down to None.
type PriorityLevels struct {
	P1   float64 `yaml:"p1" json:"p1"`
	P2   float64 `yaml:"p2" json:"p2"`
	P3   float64 `yaml:"p3" json:"p3"`
	P4   float64 `yaml:"p4" json:"p4"`
	None float64 `yaml:"none" json:"none"`
}

// Weights holds the scoring coefficients.
type Weights struct {
	Relevance float64 `yaml:"relevance" json:"relevance"`
	DueDate   float64 `yaml:"due_date" json:"due_date"`
	Priority  float64 `yaml:"priority" json:"priority"`
	Status    float64 `yaml:"status" json:"status"`
	// CoreBonus is added to relevance in proportion to the core keywords a task matches.
	CoreBonus float64        `yaml:"core_bonus" json:"core_bonus"`
	Due       DueBuckets     `yaml:"due_buckets" json:"due_buckets"`
	Levels    PriorityLevels `yaml:"priority_levels" json:"priority_levels"`
}

// DefaultWeights favors relevance, then urgency, then importance. The
// status term is off.
func DefaultWeights() Weights {
	return Weights{
		Relevance: 20,
		DueDate:   4,
		Priority:  1,
		Status:    0,
		CoreBonus: 0.2,
		Due:       DueBuckets{Overdue: 1.5, Week: 1.0, Month: 0.5, Later: 0.2, None: 0.1},
		Levels:    PriorityLevels{P1: 1.0, P2: 0.75, P3: 0.5, P4: 0.2, None: 0.1},
	}
}

// Validate checks that weights are finite and non-negative and that the
// bucket scores are monotone.
func (w Weights) Validate() error {
	values := map[string]float64{
		"relevance": w.Relevance, "due_date": w.DueDate, "priority": w.Priority,
		"status": w.Status, "core_bonus": w.CoreBonus,
	}
	for name, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s weight %v", ErrInvalidWeights, name, v)
		}
	}
	due := []float64{w.Due.Overdue, w.Due.Week, w.Due.Month, w.Due.Later, w.Due.None}
	if !nonIncreasing(due) {
		return fmt.Errorf("%w: due-date bucket scores must not increase from overdue to none", ErrInvalidWeights)
	}
	levels := []float64{w.Levels.P1, w.Levels.P2, w.Levels.P3, w.Levels.P4, w.Levels.None}
	if !nonIncreasing(levels) {
		return fmt.Errorf("%w: priority scores must not increase from p1 to none", ErrInvalidWeights)
	}
	return nil
}

func nonIncreasing(values []float64) bool {
	for i := 1; i < len(values); i++ {
		if values[i] > values[i-1] {
			return false
		}
	}
	return true
}
