package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/poiesic/taskquery/ai"
	"github.com/poiesic/taskquery/core"
	"github.com/poiesic/taskquery/extract"
	"github.com/poiesic/taskquery/intent"
	"github.com/poiesic/taskquery/rank"
	"github.com/poiesic/taskquery/terms"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Settings is the root of the settings file.
type Settings struct {
	Languages []string       `yaml:"languages"`
	TimeZone  string         `yaml:"time_zone"`
	Modes     ModesConfig    `yaml:"modes"`
	Enhancer  EnhancerConfig `yaml:"enhancer"`
	Scoring   rank.Weights   `yaml:"scoring"`
	Terms     TermsConfig    `yaml:"terms"`
	Storage   StorageConfig  `yaml:"storage"`
	Vault     VaultConfig    `yaml:"vault"`
	HTTP      HTTPConfig     `yaml:"http"`
	Log       LogConfig      `yaml:"log"`
}

// Validate validates every section.
func (s *Settings) Validate() error {
	if err := validation.ValidateStruct(s,
		validation.Field(&s.Languages, validation.Required, validation.Each(validation.Required)),
		validation.Field(&s.TimeZone, validation.By(validTimeZone)),
	); err != nil {
		return err
	}
	if err := s.Modes.Validate(); err != nil {
		return fmt.Errorf("modes: %w", err)
	}
	if err := s.Enhancer.Validate(); err != nil {
		return fmt.Errorf("enhancer: %w", err)
	}
	if err := s.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	if err := s.Terms.Validate(); err != nil {
		return fmt.Errorf("terms: %w", err)
	}
	if err := s.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := s.Vault.Validate(); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	if err := s.HTTP.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	return s.Log.Validate()
}

// ModesConfig selects the default mode and which enhanced modes may run.
// Simple mode is always available.
type ModesConfig struct {
	Default string `yaml:"default"`
	Smart   bool   `yaml:"smart"`
	Chat    bool   `yaml:"chat"`
}

// Validate validates the mode configuration.
func (c *ModesConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Default, validation.Required,
			validation.In(core.ModeSimple.String(), core.ModeSmart.String(), core.ModeChat.String())),
	); err != nil {
		return err
	}
	if (c.Default == core.ModeSmart.String() && !c.Smart) || (c.Default == core.ModeChat.String() && !c.Chat) {
		return fmt.Errorf("default mode %q is disabled", c.Default)
	}
	return nil
}

// EnhancerConfig configures the semantic enhancer. When Enabled is false
// Smart and Chat queries run on the deterministic intent alone.
type EnhancerConfig struct {
	Enabled             bool          `yaml:"enabled"`
	Host                string        `yaml:"host"`
	Model               string        `yaml:"model"`
	Token               string        `yaml:"token"`
	Timeout             time.Duration `yaml:"timeout"`
	ConfidenceThreshold float64       `yaml:"confidence_threshold"`
	MaxAttempts         int           `yaml:"max_attempts"`
	RetryDelay          time.Duration `yaml:"retry_delay"`
}

// Validate validates the enhancer configuration. Host and model are only
// required when the enhancer is enabled.
func (c *EnhancerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Host, validation.When(c.Enabled, validation.Required), validation.By(validURL)),
		validation.Field(&c.Model, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.ConfidenceThreshold, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.MaxAttempts, validation.Required, validation.Min(1), validation.Max(10)),
		validation.Field(&c.RetryDelay, validation.Min(time.Duration(0))),
	)
}

// TermsConfig holds the user's property vocabulary. It is additive to the
// built-in terms unless a term set sets override.
type TermsConfig struct {
	Priority map[int]terms.TermSet    `yaml:"priority,omitempty"`
	Dates    map[string]terms.TermSet `yaml:"dates,omitempty"`
	Status   []terms.StatusCategory   `yaml:"status,omitempty"`
	// SubDay is "keep" or "drop".
	SubDay string `yaml:"sub_day"`
}

// Validate validates the terms configuration. Term collisions are not
// errors; they surface as warnings when the terms are resolved.
func (c *TermsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SubDay, validation.In(extract.SubDayKeep.String(), extract.SubDayDrop.String())),
	)
}

// StorageConfig locates the task index.
type StorageConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(!c.InMemory, validation.Required)),
	)
}

// VaultConfig holds the Markdown vault that tasks are ingested from.
type VaultConfig struct {
	Path       string   `yaml:"path"`
	Watch      bool     `yaml:"watch"`
	Extensions []string `yaml:"extensions"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Watch, validation.Required)),
		validation.Field(&c.Extensions, validation.Required, validation.Each(validation.Required)),
	)
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  slog.Level `yaml:"level"`
	Format string     `yaml:"format"`
}

// Validate validates the log configuration.
func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Format, validation.Required, validation.In(LogFormatText, LogFormatJSON)),
	)
}

// Default returns the settings used for every key a file leaves out.
func Default() *Settings {
	aiDefaults := ai.DefaultConfig()
	return &Settings{
		Languages: append([]string(nil), terms.DefaultLanguages...),
		Modes: ModesConfig{
			Default: core.ModeSimple.String(),
			Smart:   true,
			Chat:    true,
		},
		Enhancer: EnhancerConfig{
			Host:                aiDefaults.Host,
			Model:               aiDefaults.Model,
			Timeout:             intent.DefaultTimeout,
			ConfidenceThreshold: aiDefaults.ConfidenceThreshold,
			MaxAttempts:         intent.DefaultMaxAttempts,
			RetryDelay:          intent.DefaultRetryDelay,
		},
		Scoring: rank.DefaultWeights(),
		Terms: TermsConfig{
			SubDay: extract.SubDayKeep.String(),
		},
		Storage: StorageConfig{
			Path: "./taskquery.db",
		},
		Vault: VaultConfig{
			Extensions: []string{".md"},
		},
		HTTP: HTTPConfig{
			Port: 8080,
		},
		Log: LogConfig{
			Level:  slog.LevelInfo,
			Format: LogFormatText,
		},
	}
}

// Load reads a settings file, expands environment variables and overlays
// the result on Default.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("settings file %s: %w", path, err)
	}
	return s, nil
}

// Parse is Load without the file.
func Parse(data []byte) (*Settings, error) {
	s := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return s, nil
}

// Marshal renders the settings as YAML.
func (s *Settings) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Location returns the configured time zone, or the local zone when unset.
func (s *Settings) Location() *time.Location {
	if s.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// DefaultMode returns the mode used when a request does not name one.
func (s *Settings) DefaultMode() core.Mode {
	mode, err := core.ParseMode(s.Modes.Default)
	if err != nil {
		return core.ModeSimple
	}
	return mode
}

// DisabledModes lists the enhanced modes switched off in the file.
func (s *Settings) DisabledModes() []core.Mode {
	var modes []core.Mode
	if !s.Modes.Smart {
		modes = append(modes, core.ModeSmart)
	}
	if !s.Modes.Chat {
		modes = append(modes, core.ModeChat)
	}
	return modes
}

// AIConfig converts the enhancer section to a provider configuration.
// It returns nil when the enhancer is disabled.
func (s *Settings) AIConfig() *ai.Config {
	if !s.Enhancer.Enabled {
		return nil
	}
	return ai.NewConfig(
		ai.WithHost(s.Enhancer.Host),
		ai.WithModel(s.Enhancer.Model),
		ai.WithToken(s.Enhancer.Token),
		ai.WithTimeout(s.Enhancer.Timeout),
		ai.WithConfidenceThreshold(s.Enhancer.ConfidenceThreshold),
	)
}

// TermsUserConfig converts the terms section for terms.Resolve.
func (s *Settings) TermsUserConfig() terms.UserConfig {
	return terms.UserConfig{
		PriorityTerms:    s.Terms.Priority,
		DateTerms:        s.Terms.Dates,
		StatusCategories: s.Terms.Status,
	}
}

// ResolveTerms merges the user's terms with the built-in tables for the
// configured languages.
func (s *Settings) ResolveTerms() (*terms.Config, []terms.Warning) {
	return terms.Resolve(s.TermsUserConfig(), terms.DefaultBuiltins(), s.Languages)
}

// ExtractOptions returns the extractor options.
func (s *Settings) ExtractOptions() extract.Options {
	policy, err := extract.ParseSubDayPolicy(s.Terms.SubDay)
	if err != nil {
		policy = extract.SubDayKeep
	}
	return extract.Options{SubDay: policy}
}

func validTimeZone(value interface{}) error {
	name, _ := value.(string)
	if name == "" {
		return nil
	}
	if _, err := time.LoadLocation(name); err != nil {
		return errors.New("must be an IANA time zone name")
	}
	return nil
}

func validURL(value interface{}) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL")
	}
	return nil
}
