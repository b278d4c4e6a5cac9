package constants

// JobStatus is the status string reported by GET /status/{session_id}.
type JobStatus string

// Stable values (the backend emits these exact strings).
const (
	JobStatusProcessing JobStatus = "processing" // job still running
	JobStatusCompleted  JobStatus = "completed"  // index ready at /index/{session_id}
	JobStatusError      JobStatus = "error"      // terminal failure, message carries the reason
)

// IsTerminal reports whether polling should stop for s.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusError
}

// AllJobStatuses lists every status the backend may return.
func AllJobStatuses() []string {
	return []string{string(JobStatusProcessing), string(JobStatusCompleted), string(JobStatusError)}
}
