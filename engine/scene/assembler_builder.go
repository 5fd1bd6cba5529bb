package scene

import "go.uber.org/zap"

// AssemblerBuilderOption is a functional option for configuring an Assembler.
type AssemblerBuilderOption func(a *assemblerImpl)

// WithLogger sets the logger used to report state transitions.
//
// Parameters:
//   - log: the logger; nil keeps the no-op default
//
// Returns:
//   - AssemblerBuilderOption: option function to apply
func WithLogger(log *zap.Logger) AssemblerBuilderOption {
	return func(a *assemblerImpl) {
		if log != nil {
			a.log = log.Named("assembler")
		}
	}
}
