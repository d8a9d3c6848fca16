package dto

import "ats-scout/internal/domain/job"

type JobsResponse struct {
	Jobs  []job.Listing `json:"jobs"`
	Total int           `json:"total"`
	File  string        `json:"file"`
}

type OriginsResponse struct {
	Origins []job.OriginCount `json:"origins"`
}

type RunsResponse struct {
	Runs []job.ScrapeRun `json:"runs"`
}

type ScrapeRequest struct {
	URL string `json:"url"`
}

type ScrapeResponse struct {
	Markdown string `json:"markdown"`
	Text     string `json:"text"`
}
