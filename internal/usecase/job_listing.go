package usecase

import (
	"context"
	"sort"
	"strings"

	"ats-scout/internal/domain/job"
)

// ListingSource yields the rows of the newest result file and its name.
type ListingSource interface {
	Latest() ([]job.Listing, string, error)
}

type JobListing struct {
	src ListingSource
}

func NewJobListing(src ListingSource) *JobListing {
	return &JobListing{src: src}
}

type ListingPage struct {
	Jobs  []job.Listing
	Total int
	File  string
}

// List filters by origin (case-insensitive equality) and by a case-insensitive title substring.
func (u *JobListing) List(ctx context.Context, origin, query string) (ListingPage, error) {
	if err := ctx.Err(); err != nil {
		return ListingPage{}, err
	}
	items, file, err := u.src.Latest()
	if err != nil {
		return ListingPage{}, err
	}

	origin = strings.TrimSpace(origin)
	query = strings.ToLower(strings.TrimSpace(query))

	out := make([]job.Listing, 0, len(items))
	for _, it := range items {
		if origin != "" && !strings.EqualFold(it.Origin, origin) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(it.Title), query) {
			continue
		}
		out = append(out, it)
	}
	return ListingPage{Jobs: out, Total: len(out), File: file}, nil
}

// Origins counts listings per origin, most common first. Ties keep first-seen order.
func (u *JobListing) Origins(ctx context.Context) ([]job.OriginCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items, _, err := u.src.Latest()
	if err != nil {
		return nil, err
	}

	idx := map[string]int{}
	out := make([]job.OriginCount, 0)
	for _, it := range items {
		i, ok := idx[it.Origin]
		if !ok {
			i = len(out)
			idx[it.Origin] = i
			out = append(out, job.OriginCount{Name: it.Origin})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Count > out[b].Count })
	return out, nil
}
