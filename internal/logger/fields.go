package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

const (
	FieldRequestID = "request_id"
	FieldBatchID   = "batch_id"
	FieldComponent = "component"
	FieldSource    = "source"
	FieldURL       = "url"
	FieldJobID     = "job_id"

	FieldDurationMs = "duration_ms"
	FieldCount      = "count"
	FieldStatus     = "status"
)
