package model

// RunStatus is derived from an import log's counters; it is never stored.
//
//	STARTED ──► PROCESSING ──► COMPLETED
//	   │             └───────► COMPLETED_WITH_ERRORS
//	   └──► FETCH_FAILED
type RunStatus string

const (
	RunStarted             RunStatus = "STARTED"
	RunProcessing          RunStatus = "PROCESSING"
	RunCompleted           RunStatus = "COMPLETED"
	RunCompletedWithErrors RunStatus = "COMPLETED_WITH_ERRORS"
	RunFetchFailed         RunStatus = "FETCH_FAILED"
)

// Status reports where the run is in its lifecycle.
func (e *ImportLogEntry) Status() RunStatus {
	switch {
	case e.FetchFailed:
		return RunFetchFailed
	case e.CompletedAt == nil && e.TotalFetched == 0:
		return RunStarted
	case e.CompletedAt == nil:
		return RunProcessing
	case e.FailedJobsCount > 0:
		return RunCompletedWithErrors
	default:
		return RunCompleted
	}
}

// IsTerminal is true once no further item outcomes are expected.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunCompleted, RunCompletedWithErrors, RunFetchFailed:
		return true
	}
	return false
}
