package constants

// JobStatus is the canonical status for rows in extract_jobs.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusRunning JobStatus = "RUNNING" // in progress
	JobStatusDone    JobStatus = "DONE"    // extraction finished, result recorded
	JobStatusFailed  JobStatus = "FAILED"  // terminal failure
)
