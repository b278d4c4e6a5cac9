package entity

import (
	"math"

	"github.com/joseph-ayodele/bookmap/constants"
)

// Session is the backend-issued identifier correlating upload, status, results and downloads.
type Session struct {
	ID string `json:"session_id"`
}

// JobStatus is one poll response. It is not retained between ticks.
type JobStatus struct {
	Status   constants.JobStatus `json:"status"`
	Progress float64             `json:"progress"`
	Message  string              `json:"message"`
}

// Percent is Progress rounded to the nearest whole percent. Some indexers
// report fractional progress.
func (s JobStatus) Percent() int {
	return int(math.Round(s.Progress))
}

// Health is the backend health-check payload.
type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
