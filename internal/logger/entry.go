package logger

import "context"

// Entry carries metric fields (duration_ms, size, status) for a single log
// line, separate from the tracing fields living in the context.
type Entry struct {
	fields Fields
}

// With creates a new Entry with the given metric fields.
// Example: logger.With(logger.Fields{logger.FieldDurationMs: 1234}).Info(ctx, "upload finished")
func With(fields Fields) *Entry {
	return &Entry{fields: fields}
}

// With adds more fields to an existing Entry.
func (e *Entry) With(fields Fields) *Entry {
	merged := make(Fields, len(e.fields)+len(fields))
	for k, v := range e.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Entry{fields: merged}
}

// Debug logs at Debug level with metric fields.
func (e *Entry) Debug(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).WithFields(e.fields).Debugf(format, args...)
}

// Info logs at Info level with metric fields.
func (e *Entry) Info(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).WithFields(e.fields).Infof(format, args...)
}

// Warn logs at Warn level with metric fields.
func (e *Entry) Warn(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).WithFields(e.fields).Warnf(format, args...)
}

// Error logs at Error level with metric fields.
func (e *Entry) Error(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).WithFields(e.fields).Errorf(format, args...)
}
