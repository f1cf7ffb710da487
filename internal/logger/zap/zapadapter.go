package zap

import (
	"github.com/uamyangel/potter/internal/logger"

	"go.uber.org/zap"
)

// ZapAdapter adapts *zap.Logger to the logger.Logger interface used
// throughout the engine.
type ZapAdapter struct {
	L *zap.Logger
}

// NewZapAdapter skips one extra call frame so the reported caller is the
// engine call site, not this file.
func NewZapAdapter(l *zap.Logger) ZapAdapter {
	return ZapAdapter{L: l.WithOptions(zap.AddCallerSkip(1))}
}

func (z ZapAdapter) With(fields ...logger.Field) logger.Logger {
	return ZapAdapter{L: z.L.With(toZap(fields)...)}
}

func (z ZapAdapter) Named(name string) logger.Logger {
	return ZapAdapter{L: z.L.Named(name)}
}

func (z ZapAdapter) Debug(msg string, fields ...logger.Field) {
	if ce := z.L.Check(zap.DebugLevel, msg); ce != nil {
		ce.Write(toZap(fields)...)
	}
}
func (z ZapAdapter) Info(msg string, fields ...logger.Field) {
	if ce := z.L.Check(zap.InfoLevel, msg); ce != nil {
		ce.Write(toZap(fields)...)
	}
}
func (z ZapAdapter) Warn(msg string, fields ...logger.Field) {
	if ce := z.L.Check(zap.WarnLevel, msg); ce != nil {
		ce.Write(toZap(fields)...)
	}
}
func (z ZapAdapter) Error(msg string, fields ...logger.Field) {
	if ce := z.L.Check(zap.ErrorLevel, msg); ce != nil {
		ce.Write(toZap(fields)...)
	}
}

func toZap(fs []logger.Field) []zap.Field {
	if len(fs) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fs))
	for _, f := range fs {
		out = append(out, zap.Any(f.Key, f.Val))
	}
	return out
}
