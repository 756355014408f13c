package constants

import "strings"

// JobStatus is the canonical status for rows in the ingestion journal.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusRunning    JobStatus = "RUNNING"    // attempt in progress
	JobStatusExtracted  JobStatus = "EXTRACTED"  // stage 1 completed (text extracted)
	JobStatusReady      JobStatus = "READY"      // classified + summarized, state committed
	JobStatusFailed     JobStatus = "FAILED"     // terminal failure
	JobStatusSuperseded JobStatus = "SUPERSEDED" // finished after a newer attempt started; discarded
)

// ParseJobStatus maps a case-insensitive status name to its JobStatus.
func ParseJobStatus(s string) (JobStatus, bool) {
	switch st := JobStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case JobStatusRunning, JobStatusExtracted, JobStatusReady, JobStatusFailed, JobStatusSuperseded:
		return st, true
	}
	return "", false
}
