package search

import (
	"github.com/poiesic/taskquery/ai"
	"github.com/poiesic/taskquery/core"
	"github.com/poiesic/taskquery/intent"
)

// SearchMonitor provides hooks to observe the search process.
// Parsing and task loading overlap, so hooks may be called from different
// goroutines, but never concurrently with each other.
type SearchMonitor interface {
	Start(queryID, query string, mode core.Mode)
	AfterExtraction(det intent.Deterministic)
	// AfterEnhancement is only called when the enhancer was consulted.
	AfterEnhancement(partial *ai.PartialParsedQuery, failure *ai.Failure)
	AfterMerge(in *core.QueryIntent)
	AfterFilter(matched, scanned int)
	Finish(result *Result)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string, _ core.Mode)                           {}
func (n *noopMonitor) AfterExtraction(_ intent.Deterministic)                   {}
func (n *noopMonitor) AfterEnhancement(_ *ai.PartialParsedQuery, _ *ai.Failure) {}
func (n *noopMonitor) AfterMerge(_ *core.QueryIntent)                           {}
func (n *noopMonitor) AfterFilter(_, _ int)                                     {}
func (n *noopMonitor) Finish(_ *Result)                                         {}

// parseObserver forwards parser callbacks to a monitor.
type parseObserver struct {
	monitor SearchMonitor
}

func (o parseObserver) Extracted(det intent.Deterministic) {
	o.monitor.AfterExtraction(det)
}

func (o parseObserver) Enhanced(partial *ai.PartialParsedQuery, failure *ai.Failure) {
	o.monitor.AfterEnhancement(partial, failure)
}
