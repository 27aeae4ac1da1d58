package kllvec

type options struct {
	logger *Logger
}

// Option configures constructor behavior.
type Option func(*options)

// WithLogger configures structured logging for container operations.
// The default logger discards all output.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}
