package domain

import "encoding/json"

// JobState tags the JobStatus variants
type JobState string

const (
	StateStarting    JobState = "starting"
	StateDownloading JobState = "downloading"
	StateCompleted   JobState = "completed"
	StateError       JobState = "error"
	StateNotFound    JobState = "not_found"
)

// JobStatus is the transient state of a download job.
// Percentage, Speed and ETA are only meaningful while downloading, Message
// only for errors.
type JobStatus struct {
	State      JobState
	Percentage string
	Speed      string
	ETA        string
	Message    string
}

// Starting is the status of a freshly accepted job
func Starting() JobStatus { return JobStatus{State: StateStarting} }

// Downloading carries the extractor's display strings verbatim
func Downloading(percentage, speed, eta string) JobStatus {
	return JobStatus{
		State:      StateDownloading,
		Percentage: percentage,
		Speed:      speed,
		ETA:        eta,
	}
}

// Completed is the terminal success status
func Completed() JobStatus { return JobStatus{State: StateCompleted} }

// Failed is the terminal failure status
func Failed(message string) JobStatus {
	return JobStatus{State: StateError, Message: message}
}

// NotFound is synthesized for unknown ids and never stored
func NotFound() JobStatus { return JobStatus{State: StateNotFound} }

// IsTerminal reports whether no further transition will happen
func (s JobStatus) IsTerminal() bool {
	return s.State == StateCompleted || s.State == StateError
}

// IsActive reports whether a job is still running
func (s JobStatus) IsActive() bool {
	return s.State == StateStarting || s.State == StateDownloading
}

type downloadingJSON struct {
	Status     JobState `json:"status"`
	Percentage string   `json:"percentage"`
	Speed      string   `json:"speed"`
	ETA        string   `json:"eta"`
}

type errorJSON struct {
	Status  JobState `json:"status"`
	Message string   `json:"message"`
}

type tagJSON struct {
	Status JobState `json:"status"`
}

// MarshalJSON writes {"status": <tag>} plus the fields of that variant only
func (s JobStatus) MarshalJSON() ([]byte, error) {
	switch s.State {
	case StateDownloading:
		return json.Marshal(downloadingJSON{s.State, s.Percentage, s.Speed, s.ETA})
	case StateError:
		return json.Marshal(errorJSON{s.State, s.Message})
	default:
		return json.Marshal(tagJSON{s.State})
	}
}
