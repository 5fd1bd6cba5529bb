package portal

import (
	"math/rand/v2"

	"go.uber.org/zap"
)

// SetupBuilderOption is a functional option for configuring a Setup.
type SetupBuilderOption func(*setup)

// WithLogger sets the logger used for load outcomes.
//
// Parameters:
//   - log: the logger; nil keeps the no-op default
//
// Returns:
//   - SetupBuilderOption: option function to apply
func WithLogger(log *zap.Logger) SetupBuilderOption {
	return func(s *setup) {
		if log != nil {
			s.log = log.Named("portal")
		}
	}
}

// WithRand sets the random source of the firefly field. Defaults to particles.NewRand.
func WithRand(rng *rand.Rand) SetupBuilderOption {
	return func(s *setup) {
		s.rng = rng
	}
}
