package config

import (
	"github.com/go-playground/validator/v10"

	"github.com/evoforge/evolve/pkg/errors"
	"github.com/evoforge/evolve/pkg/logging"
)

var validate = validator.New()

// Validate checks structural constraints and clamps the probability knobs
// into [0,1].
func (c *Config) Validate() error {
	c.Engine.CrossoverProba = clamp01(c.Engine.CrossoverProba)
	c.Engine.MutationProba = clamp01(c.Engine.MutationProba)

	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, errors.InvalidConfiguration, "validating config")
	}
	if c.Engine.Elites > c.Engine.PopulationSize {
		return errors.Newf(errors.InvalidConfiguration,
			"elites (%d) cannot exceed population size (%d)", c.Engine.Elites, c.Engine.PopulationSize)
	}
	if c.Engine.TournamentSize > c.Engine.PopulationSize {
		return errors.Newf(errors.InvalidConfiguration,
			"tournament size (%d) cannot exceed population size (%d)", c.Engine.TournamentSize, c.Engine.PopulationSize)
	}
	if c.Distribution.Workers > 0 && c.Distribution.WorkerCommand == "" {
		return errors.New(errors.InvalidConfiguration, "distribution requires a worker command")
	}
	return nil
}

// Severity resolves the logging level, preferring an explicit Level over the
// verbosity knob.
func (l LoggingConfig) Severity() logging.Severity {
	if l.Level != "" {
		return logging.ParseSeverity(l.Level)
	}
	return logging.SeverityFromVerbosity(l.Verbosity)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
