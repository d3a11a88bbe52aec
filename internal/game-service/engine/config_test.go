package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

// O maior max_units que ainda cabe no orçamento de sorteios passa;
// uma rodada inteira com ele não estoura o stream
func TestConfigUnitsAtDrawBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxUnits = (MaxDraws - 2) / 3
	require.NoError(t, cfg.Validate())

	assert.NotPanics(t, func() {
		Resolve(cfg, testServerSeed, "client-0", 20, 1000)
	})
}

func TestLoadConfig(t *testing.T) {
	content := `
version: v2-test
major_event: { name: jackpot, chance: 0.02, min_mult: 20, max_mult: 30 }
minor_event: { name: bonus, chance: 0.10, min_mult: 5, max_mult: 10 }
hit_chance: 0.5
max_units: 4
categories:
  - { name: low, band: 0.5, min_mult: 1.0, max_mult: 2.0 }
  - { name: high, band: 1.0, min_mult: 5.0, max_mult: 9.0 }
payout_cap: 25
`
	path := filepath.Join(t.TempDir(), "outcome.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "v2-test", cfg.Version)
	assert.Equal(t, "jackpot", cfg.MajorEvent.Name)
	assert.Equal(t, 0.02, cfg.MajorEvent.Chance)
	assert.Equal(t, 4, cfg.MaxUnits)
	require.Len(t, cfg.Categories, 2)
	assert.Equal(t, "high", cfg.Categories[1].Name)
	assert.Equal(t, 25.0, cfg.PayoutCap)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*OutcomeConfig)
	}{
		{"missing version", func(c *OutcomeConfig) { c.Version = "" }},
		{"event chance out of range", func(c *OutcomeConfig) { c.MajorEvent.Chance = 1.5 }},
		{"event mult range inverted", func(c *OutcomeConfig) { c.MinorEvent.MinMult = 20 }},
		{"hit chance out of range", func(c *OutcomeConfig) { c.HitChance = -0.1 }},
		{"zero units", func(c *OutcomeConfig) { c.MaxUnits = 0 }},
		{"units past the draw budget", func(c *OutcomeConfig) { c.MaxUnits = (MaxDraws-2)/3 + 1 }},
		{"no categories", func(c *OutcomeConfig) { c.Categories = nil }},
		{"bands not increasing", func(c *OutcomeConfig) { c.Categories[1].Band = 0.1 }},
		{"last band below one", func(c *OutcomeConfig) { c.Categories[len(c.Categories)-1].Band = 0.95 }},
		{"non-positive cap", func(c *OutcomeConfig) { c.PayoutCap = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
