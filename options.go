package ribose

import "go.uber.org/zap"

// TransductorOption configures a Transductor at bind time (spec Design
// Note: "target bound by a host factory callback rather than
// reflection-based class loading").
type TransductorOption func(*transductorConfig)

type transductorConfig struct {
	logger *zap.Logger
	sink   Sink
}

// WithLogger injects a structured logger for transductor-lifecycle
// events. Start logs each transducer it pushes at debug level; bind,
// stop and domain errors are not logged. The default is zap.NewNop().
func WithLogger(l *zap.Logger) TransductorOption {
	return func(c *transductorConfig) { c.logger = l }
}

// WithSink redirects the `out` built-in effector's writes away from
// os.Stdout.
func WithSink(s Sink) TransductorOption {
	return func(c *transductorConfig) { c.sink = s }
}
