package dto

import "time"

type FetchJobsRequest struct {
	Technology string `json:"technology"`
	Level      string `json:"level"`
}

type FetchJobsStartedResponse struct {
	Status     string `json:"status"`
	StreamURL  string `json:"stream_url"`
	RunID      string `json:"run_id"`
	Technology string `json:"technology"`
	Level      string `json:"level"`
}

type FetchJobsStatusResponse struct {
	Running     bool       `json:"running"`
	Completed   bool       `json:"completed"`
	EventsCount int        `json:"events_count"`
	RunID       string     `json:"run_id,omitempty"`
	Technology  string     `json:"technology,omitempty"`
	Level       string     `json:"level,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

type FetchJobsResetResponse struct {
	Status string `json:"status"`
}
