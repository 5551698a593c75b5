package injector

import "go.uber.org/zap"

// Option configures an Injector.
type Option func(*options)

type options struct {
	logger     *zap.Logger
	middleware []Middleware
}

// WithLogger sets the logger used for registration, scope and
// construction events. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMiddleware installs resolve middleware at construction time.
func WithMiddleware(middleware ...Middleware) Option {
	return func(o *options) {
		o.middleware = append(o.middleware, middleware...)
	}
}

// mergeOptions applies opts over the defaults.
func mergeOptions(opts []Option) options {
	o := options{
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}
