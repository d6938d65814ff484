package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// ============================================
// Standard Tracing Fields (Context level)
// These fields are propagated through the call chain
// ============================================

const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldRunID identifies one CLI extraction/signing run
	FieldRunID = "run_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldPlatform is the platform a fingerprint was attributed to
	FieldPlatform = "platform"

	// FieldKeyID is the signing key fingerprint
	FieldKeyID = "key_id"

	// FieldHashHex is a fingerprint's hex form
	FieldHashHex = "hash_hex"
)

// ============================================
// Standard Metric Fields (Entry level)
// These fields are used for aggregation and alerting
// ============================================

const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldFrames is the number of frames processed
	FieldFrames = "frames"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
