package driver

import (
	"github.com/uamyangel/potter/internal/config"
	"github.com/uamyangel/potter/internal/logger"
)

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger sets the Engine's logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.lgr = l
		}
	}
}

// WithConfig overrides the Engine's routing configuration.
func WithConfig(cfg config.EngineConfig) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithRuntimeFirst forces the overlap-parallel strategy used in early
// iterations, overriding config.EngineConfig.RuntimeFirst.
func WithRuntimeFirst(runtimeFirst bool) Option {
	return func(e *Engine) { e.cfg.RuntimeFirst = runtimeFirst }
}

// WithThreads overrides the configured thread count.
func WithThreads(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.cfg.Threads = n
		}
	}
}
