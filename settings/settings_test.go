package settings

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/taskquery/core"
	"github.com/poiesic/taskquery/extract"
	"github.com/poiesic/taskquery/rank"
)

func TestDefaultIsValid(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())
	assert.Equal(t, []string{"en"}, s.Languages)
	assert.Equal(t, core.ModeSimple, s.DefaultMode())
	assert.Empty(t, s.DisabledModes())
	assert.Nil(t, s.AIConfig())
	assert.Equal(t, rank.DefaultWeights(), s.Scoring)
	assert.Equal(t, extract.SubDayKeep, s.ExtractOptions().SubDay)
	assert.Equal(t, ":8080", s.HTTP.Address())
}

func TestParse_OverlaysDefaults(t *testing.T) {
	doc := `
languages: [en, zh]
time_zone: Europe/Berlin
modes:
  default: smart
  chat: false
enhancer:
  enabled: true
  host: http://localhost:11434
  timeout: 2s
  max_attempts: 3
scoring:
  relevance: 10
terms:
  priority:
    1:
      terms: [blocker]
  dates:
    today:
      terms: [heute]
      override: true
  status:
    - key: waiting
      symbols: [w]
      aliases: [blocked]
  sub_day: drop
log:
  level: debug
  format: json
`
	s, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, []string{"en", "zh"}, s.Languages)
	assert.Equal(t, "Europe/Berlin", s.Location().String())
	assert.Equal(t, core.ModeSmart, s.DefaultMode())
	assert.Equal(t, []core.Mode{core.ModeChat}, s.DisabledModes())

	assert.Equal(t, 10.0, s.Scoring.Relevance)
	assert.Equal(t, rank.DefaultWeights().DueDate, s.Scoring.DueDate, "unset weights keep defaults")

	cfg := s.AIConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434", cfg.Host)
	assert.Equal(t, "qwen2.5:3b", cfg.Model)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, 3, s.Enhancer.MaxAttempts)

	user := s.TermsUserConfig()
	assert.Equal(t, []string{"blocker"}, user.PriorityTerms[1].Terms)
	assert.True(t, user.DateTerms["today"].Override)
	require.Len(t, user.StatusCategories, 1)
	assert.Equal(t, "waiting", user.StatusCategories[0].Key)
	assert.Equal(t, extract.SubDayDrop, s.ExtractOptions().SubDay)

	assert.Equal(t, slog.LevelDebug, s.Log.Level)
	assert.Equal(t, LogFormatJSON, s.Log.Format)
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TASKQUERY_TEST_TOKEN", "sk-test")
	s, err := Parse([]byte("enhancer:\n  token: ${TASKQUERY_TEST_TOKEN}\n"))
	require.NoError(t, err)
	assert.Equal(t, "sk-test", s.Enhancer.Token)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed yaml", "languages: [en"},
		{"no languages", "languages: []"},
		{"unknown time zone", "time_zone: Mars/Olympus"},
		{"unknown default mode", "modes:\n  default: fuzzy"},
		{"default mode disabled", "modes:\n  default: smart\n  smart: false"},
		{"enabled enhancer without host", "enhancer:\n  enabled: true\n  host: ''"},
		{"relative host", "enhancer:\n  host: localhost"},
		{"zero timeout", "enhancer:\n  timeout: 0s"},
		{"threshold above one", "enhancer:\n  confidence_threshold: 1.5"},
		{"no attempts", "enhancer:\n  max_attempts: 0"},
		{"negative weight", "scoring:\n  priority: -1"},
		{"increasing due buckets", "scoring:\n  due_buckets:\n    none: 9"},
		{"unknown sub-day policy", "terms:\n  sub_day: maybe"},
		{"storage without path", "storage:\n  path: ''"},
		{"watch without vault", "vault:\n  watch: true"},
		{"port out of range", "http:\n  port: 70000"},
		{"unknown log format", "log:\n  format: xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParse_ValidationErrorsAreWrapped(t *testing.T) {
	_, err := Parse([]byte("http:\n  port: 70000"))
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestParse_InMemoryStorageNeedsNoPath(t *testing.T) {
	s, err := Parse([]byte("storage:\n  path: ''\n  in_memory: true"))
	require.NoError(t, err)
	assert.True(t, s.Storage.InMemory)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vault:\n  path: /notes\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/notes", s.Vault.Path)
	assert.Equal(t, []string{".md"}, s.Vault.Extensions)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMarshal_LoadsBack(t *testing.T) {
	s := Default()
	s.Languages = []string{"zh"}
	s.Enhancer.Timeout = 1500 * time.Millisecond
	s.Log.Level = slog.LevelWarn

	data, err := s.Marshal()
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, s, back)
}

func TestResolveTerms(t *testing.T) {
	s, err := Parse([]byte("terms:\n  priority:\n    1:\n      terms: [showstopper]\n"))
	require.NoError(t, err)

	cfg, warnings := s.ResolveTerms()
	assert.Empty(t, warnings)

	found := false
	for _, p := range cfg.PriorityPhrases() {
		if p.Phrase == "showstopper" {
			found = true
			assert.Equal(t, 1, p.Level)
		}
	}
	assert.True(t, found, "user phrase is added to the built-in vocabulary")
}

func TestLocation_DefaultsToLocal(t *testing.T) {
	assert.Equal(t, time.Local, Default().Location())
}
