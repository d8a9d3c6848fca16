package job

import (
	"time"

	"github.com/google/uuid"
)

// Source is one ATS search target with its derived query.
type Source struct {
	Origin string
	Query  string
}

// Result is one discovered posting. Link is its identity within a source.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// Listing is a persisted result as served to API consumers.
type Listing struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
	Origin  string `json:"origin"`
}

type OriginCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ScrapeRun is the durable record of one finished aggregation.
type ScrapeRun struct {
	ID         uuid.UUID  `json:"id"`
	Technology string     `json:"technology"`
	Level      string     `json:"level"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	TotalJobs  int        `json:"total_jobs"`
	OutputRef  string     `json:"output_ref"`
}
