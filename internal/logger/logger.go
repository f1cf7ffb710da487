package logger

// Field represents a structured key:value log field.
type Field struct {
	Key string
	Val any
}

// Logger is the minimal structured-logging interface required by every
// engine package. Concrete implementations live in internal/logger/zap;
// a NopLogger is provided for tests and for callers that disable logging.
type Logger interface {
	Named(name string) Logger
	With(fields ...Field) Logger
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// F is a concise helper for building a Field.
func F(key string, val any) Field { return Field{Key: key, Val: val} }

// FConn serializes a connection identity (net ID, connection ID) into a
// single structured field, the way callers otherwise would have to spell out
// two separate F() calls at every A*/scheduler log site.
func FConn(key string, netID, connID int32) Field {
	return Field{Key: key, Val: map[string]any{"net": netID, "conn": connID}}
}

// FBox serializes an integer bounding box (xmin,xmax,ymin,ymax) field.
func FBox(key string, xmin, xmax, ymin, ymax int32) Field {
	return Field{Key: key, Val: map[string]any{"xmin": xmin, "xmax": xmax, "ymin": ymin, "ymax": ymax}}
}

// NopLogger is a Logger implementation that discards everything.
type NopLogger struct{}

func (l *NopLogger) Named(name string) Logger          { return l }
func (l *NopLogger) With(fields ...Field) Logger       { return l }
func (l *NopLogger) Debug(msg string, fields ...Field) {}
func (l *NopLogger) Info(msg string, fields ...Field)  {}
func (l *NopLogger) Warn(msg string, fields ...Field)  {}
func (l *NopLogger) Error(msg string, fields ...Field) {}
