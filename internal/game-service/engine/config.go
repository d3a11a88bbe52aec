package engine

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EventConfig descreve um evento especial (verificado antes das unidades)
type EventConfig struct {
	Name    string  `yaml:"name"`
	Chance  float64 `yaml:"chance"`
	MinMult int     `yaml:"min_mult"`
	MaxMult int     `yaml:"max_mult"` // exclusivo
}

// Category é uma categoria de prêmio com banda cumulativa de sorteio
// As categorias são ordenadas da de menor valor para a de maior
type Category struct {
	Name    string  `yaml:"name"`
	Band    float64 `yaml:"band"` // limite superior cumulativo em [0,1]
	MinMult float64 `yaml:"min_mult"`
	MaxMult float64 `yaml:"max_mult"`
}

// OutcomeConfig é a configuração versionada do cálculo de resultado.
// O Version acompanha cada rodada persistida: rodadas históricas
// continuam verificáveis mesmo após mudanças de configuração.
type OutcomeConfig struct {
	Version    string      `yaml:"version"`
	MajorEvent EventConfig `yaml:"major_event"`
	MinorEvent EventConfig `yaml:"minor_event"`
	HitChance  float64     `yaml:"hit_chance"`
	MaxUnits   int         `yaml:"max_units"`
	Categories []Category  `yaml:"categories"`
	PayoutCap  float64     `yaml:"payout_cap"` // múltiplo máximo do stake por rodada
}

// DefaultConfig retorna a configuração de produção embutida
func DefaultConfig() OutcomeConfig {
	return OutcomeConfig{
		Version:    "v1",
		MajorEvent: EventConfig{Name: "banana_boss", Chance: 0.05, MinMult: 15, MaxMult: 25},
		MinorEvent: EventConfig{Name: "banana_bomb", Chance: 0.08, MinMult: 8, MaxMult: 15},
		HitChance:  0.70,
		MaxUnits:   6,
		Categories: []Category{
			{Name: "banana", Band: 0.25, MinMult: 1.5, MaxMult: 2.0},
			{Name: "apple", Band: 0.45, MinMult: 2.0, MaxMult: 3.0},
			{Name: "orange", Band: 0.63, MinMult: 3.0, MaxMult: 4.0},
			{Name: "pineapple", Band: 0.78, MinMult: 4.0, MaxMult: 5.0},
			{Name: "watermelon", Band: 0.90, MinMult: 6.0, MaxMult: 8.0},
			{Name: "cherry", Band: 1.0, MinMult: 8.0, MaxMult: 10.0},
		},
		PayoutCap: 50,
	}
}

// LoadConfig lê uma configuração de resultado de um arquivo YAML
func LoadConfig(path string) (OutcomeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return OutcomeConfig{}, fmt.Errorf("read outcome config: %w", err)
	}

	var cfg OutcomeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return OutcomeConfig{}, fmt.Errorf("parse outcome config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return OutcomeConfig{}, fmt.Errorf("outcome config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate confere as invariantes da configuração
func (c OutcomeConfig) Validate() error {
	if c.Version == "" {
		return errors.New("version is required")
	}
	if c.MajorEvent.Chance < 0 || c.MajorEvent.Chance > 1 || c.MinorEvent.Chance < 0 || c.MinorEvent.Chance > 1 {
		return errors.New("event chances must be in [0,1]")
	}
	if c.MajorEvent.MinMult >= c.MajorEvent.MaxMult || c.MinorEvent.MinMult >= c.MinorEvent.MaxMult {
		return errors.New("event multiplier ranges must have min < max")
	}
	if c.HitChance < 0 || c.HitChance > 1 {
		return errors.New("hit_chance must be in [0,1]")
	}
	if c.MaxUnits < 1 {
		return errors.New("max_units must be at least 1")
	}
	// Pior caso de sorteios de uma rodada: 2 de evento + 3 por unidade.
	// Tem que caber no orçamento do stream.
	if 2+3*c.MaxUnits > MaxDraws {
		return fmt.Errorf("max_units %d exceeds the stream draw budget", c.MaxUnits)
	}
	if len(c.Categories) == 0 {
		return errors.New("at least one prize category is required")
	}
	prev := 0.0
	for _, cat := range c.Categories {
		if cat.Band <= prev || cat.Band > 1 {
			return fmt.Errorf("category %q: bands must be strictly increasing within (0,1]", cat.Name)
		}
		if cat.MinMult > cat.MaxMult {
			return fmt.Errorf("category %q: min_mult > max_mult", cat.Name)
		}
		prev = cat.Band
	}
	if last := c.Categories[len(c.Categories)-1].Band; last != 1.0 {
		return errors.New("last category band must be 1.0")
	}
	if c.PayoutCap <= 0 {
		return errors.New("payout_cap must be positive")
	}
	return nil
}
