package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields propagated through the call chain via context.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldTaskID is the analysis task ID
	FieldTaskID = "task_id"

	// FieldCandidateID is the candidate under analysis
	FieldCandidateID = "candidate_id"

	// FieldJobID is the job posting ID
	FieldJobID = "job_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"
)

// Standard metric fields attached at the log-site for aggregation.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldAttempt is the task attempt number
	FieldAttempt = "attempt"

	// FieldStatus is the operation or candidate status
	FieldStatus = "status"

	// FieldScore is the overall score of an analysis
	FieldScore = "score"
)
