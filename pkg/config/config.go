// Package config loads and validates the YAML configuration surface of the
// engine and its collaborators.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/evoforge/evolve/pkg/engine"
	"github.com/evoforge/evolve/pkg/errors"
)

// Config is the complete configuration of a run.
type Config struct {
	Engine       EngineConfig       `yaml:"engine" validate:"required"`
	Novelty      NoveltyConfig      `yaml:"novelty,omitempty" validate:"omitempty"`
	Persistence  PersistenceConfig  `yaml:"persistence,omitempty" validate:"omitempty"`
	Distribution DistributionConfig `yaml:"distribution,omitempty" validate:"omitempty"`
	Logging      LoggingConfig      `yaml:"logging,omitempty" validate:"omitempty"`
}

// EngineConfig maps onto engine.Options.
type EngineConfig struct {
	PopulationSize int     `yaml:"population_size" validate:"min=1"`
	Elites         int     `yaml:"elites" validate:"min=0"`
	SavedElites    int     `yaml:"saved_elites" validate:"min=0"`
	TournamentSize int     `yaml:"tournament_size" validate:"min=1"`
	CrossoverProba float64 `yaml:"crossover_proba"`
	MutationProba  float64 `yaml:"mutation_proba"`
	// Selection is one of the SelectionMethod strings.
	Selection string `yaml:"selection" validate:"omitempty,oneof=random-objective-tournament pareto-tournament nsga2-tournament pareto-distance-tournament"`
	// Minimize flips the fitness ordering to "less is better".
	Minimize             bool  `yaml:"minimize"`
	EvaluateAll          bool  `yaml:"evaluate_all"`
	AllowDuplicateElites *bool `yaml:"allow_duplicate_elites,omitempty"`
	Concurrency          int   `yaml:"concurrency" validate:"min=0"`
	Seed                 int64 `yaml:"seed"`
}

// NoveltyConfig controls novelty search.
type NoveltyConfig struct {
	Enabled       bool    `yaml:"enabled"`
	MinForArchive float64 `yaml:"min_for_archive"`
	KNN           int     `yaml:"knn" validate:"min=0"`
}

// PersistenceConfig controls the run folder and the SQLite mirror.
type PersistenceConfig struct {
	Folder         string `yaml:"folder"`
	SaveInterval   int    `yaml:"save_interval" validate:"min=0"`
	SavePopulation *bool  `yaml:"save_population,omitempty"`
	SaveArchive    *bool  `yaml:"save_archive,omitempty"`
	SQLite         bool   `yaml:"sqlite"`
}

// DistributionConfig controls worker-process evaluation.
type DistributionConfig struct {
	Workers       int      `yaml:"workers" validate:"min=0"`
	WorkerCommand string   `yaml:"worker_command"`
	WorkerArgs    []string `yaml:"worker_args,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Verbosity is the historical knob: 0 silent, 1 generation stats, 2 and
	// above individual stats.
	Verbosity int `yaml:"verbosity" validate:"min=0,max=3"`
	// Level overrides Verbosity when set.
	Level string `yaml:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR FATAL"`
	File  string `yaml:"file,omitempty"`
}

// Default returns the configuration matching the engine's historical
// defaults.
func Default() *Config {
	opts := engine.DefaultOptions()
	return &Config{
		Engine: EngineConfig{
			PopulationSize: opts.PopSize,
			Elites:         opts.Elites,
			SavedElites:    opts.SavedElites,
			TournamentSize: opts.TournamentSize,
			CrossoverProba: opts.CrossoverProba,
			MutationProba:  opts.MutationProba,
			Selection:      opts.Selection.String(),
		},
		Novelty: NoveltyConfig{
			MinForArchive: opts.MinNoveltyForArchive,
			KNN:           opts.KNN,
		},
		Persistence: PersistenceConfig{
			Folder:       "evos",
			SaveInterval: opts.SaveInterval,
		},
		Logging: LoggingConfig{
			Verbosity: 1,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidConfiguration, "reading config file")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, errors.InvalidConfiguration, "parsing config file")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EngineOptions converts the config into engine.Options. Probabilities are
// clamped rather than rejected.
func (c *Config) EngineOptions() (engine.Options, error) {
	method, err := engine.ParseSelectionMethod(c.Engine.Selection)
	if err != nil {
		return engine.Options{}, err
	}
	allowDup := true
	if c.Engine.AllowDuplicateElites != nil {
		allowDup = *c.Engine.AllowDuplicateElites
	}
	return engine.Options{
		PopSize:              c.Engine.PopulationSize,
		Elites:               c.Engine.Elites,
		SavedElites:          c.Engine.SavedElites,
		TournamentSize:       c.Engine.TournamentSize,
		CrossoverProba:       c.Engine.CrossoverProba,
		MutationProba:        c.Engine.MutationProba,
		Selection:            method,
		Novelty:              c.Novelty.Enabled,
		MinNoveltyForArchive: c.Novelty.MinForArchive,
		KNN:                  c.Novelty.KNN,
		EvaluateAll:          c.Engine.EvaluateAll,
		AllowDuplicateElites: allowDup,
		Concurrency:          c.Engine.Concurrency,
		SaveInterval:         c.Persistence.SaveInterval,
		Seed:                 c.Engine.Seed,
	}, nil
}
