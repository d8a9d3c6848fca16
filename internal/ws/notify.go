package ws

import (
	"encoding/json"
	"time"
)

// JobsUpdatedEvent tells subscribers that a new result file is available.
type JobsUpdatedEvent struct {
	Type       string `json:"type"`
	RunID      string `json:"run_id"`
	Technology string `json:"technology"`
	Level      string `json:"level"`
	TotalJobs  int    `json:"total_jobs"`
	File       string `json:"file"`
	Timestamp  string `json:"timestamp"`
}

func (h *Hub) NotifyJobsUpdated(runID, technology, level string, totalJobs int, file string) {
	if h == nil {
		return
	}
	evt := JobsUpdatedEvent{
		Type:       "jobs_updated",
		RunID:      runID,
		Technology: technology,
		Level:      level,
		TotalJobs:  totalJobs,
		File:       file,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	b, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("marshal jobs_updated", "err", err)
		return
	}
	h.Broadcast(b)
}
