package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields propagated through the call chain via context.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldUserID is the authenticated user ID
	FieldUserID = "user_id"

	// FieldThumbnailID is the thumbnail record ID being generated
	FieldThumbnailID = "thumbnail_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"
)

// Metric fields attached per log entry for aggregation and alerting.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"

	// FieldAttempt is the retry attempt number
	FieldAttempt = "attempt"
)
