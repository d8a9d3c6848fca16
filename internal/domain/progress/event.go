// Package progress defines the append-only events a scrape job emits.
package progress

import (
	"bytes"
	"encoding/json"
)

type Kind string

const (
	KindPageFetched Kind = "page_fetched"
	KindSourceStart Kind = "ats_start"
	KindSourceDone  Kind = "ats_complete"
	KindError       Kind = "error"
	KindComplete    Kind = "complete"
)

// Event is a tagged record; only the fields of its Kind are populated.
type Event struct {
	Kind Kind `json:"event"`

	Origin string `json:"origin,omitempty"`

	Page    *int `json:"page,omitempty"`
	Results *int `json:"results,omitempty"`

	Index *int `json:"index,omitempty"`
	Total *int `json:"total,omitempty"`
	Count *int `json:"count,omitempty"`

	Message string `json:"message,omitempty"`

	TotalJobs *int         `json:"total_jobs,omitempty"`
	File      string       `json:"file,omitempty"`
	Origins   SourceCounts `json:"origins,omitempty"`
}

// Emitter appends an event to whatever log the caller owns.
type Emitter func(Event)

// Discard is an Emitter that drops every event.
func Discard(Event) {}

func intp(v int) *int { return &v }

func PageFetched(origin string, page, results int) Event {
	return Event{Kind: KindPageFetched, Origin: origin, Page: intp(page), Results: intp(results)}
}

func SourceStarted(origin string, index, total int) Event {
	return Event{Kind: KindSourceStart, Origin: origin, Index: intp(index), Total: intp(total)}
}

func SourceCompleted(origin string, count, index, total int) Event {
	return Event{Kind: KindSourceDone, Origin: origin, Count: intp(count), Index: intp(index), Total: intp(total)}
}

// SourceError records a failure of one source. The job moves on to the next source,
// but readers of the stream stop at it like any other error.
func SourceError(origin, message string) Event {
	return Event{Kind: KindError, Origin: origin, Message: message}
}

// Failed records a job-level failure and terminates the log.
func Failed(message string) Event {
	return Event{Kind: KindError, Message: message}
}

func Completed(totalJobs int, file string, origins SourceCounts) Event {
	if origins == nil {
		origins = SourceCounts{}
	}
	return Event{Kind: KindComplete, TotalJobs: intp(totalJobs), File: file, Origins: origins}
}

// IsTerminal reports whether a stream reader stops after e: any completion or error.
func (e Event) IsTerminal() bool {
	return e.Kind == KindComplete || e.Kind == KindError
}

// MarshalJSON writes every payload field of e's kind, zero values included.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case KindPageFetched:
		return json.Marshal(struct {
			Kind    Kind   `json:"event"`
			Origin  string `json:"origin"`
			Page    int    `json:"page"`
			Results int    `json:"results"`
		}{e.Kind, e.Origin, deref(e.Page), deref(e.Results)})
	case KindSourceStart:
		return json.Marshal(struct {
			Kind   Kind   `json:"event"`
			Origin string `json:"origin"`
			Index  int    `json:"index"`
			Total  int    `json:"total"`
		}{e.Kind, e.Origin, deref(e.Index), deref(e.Total)})
	case KindSourceDone:
		return json.Marshal(struct {
			Kind   Kind   `json:"event"`
			Origin string `json:"origin"`
			Count  int    `json:"count"`
			Index  int    `json:"index"`
			Total  int    `json:"total"`
		}{e.Kind, e.Origin, deref(e.Count), deref(e.Index), deref(e.Total)})
	case KindError:
		return json.Marshal(struct {
			Kind    Kind   `json:"event"`
			Origin  string `json:"origin,omitempty"`
			Message string `json:"message"`
		}{e.Kind, e.Origin, e.Message})
	case KindComplete:
		origins := e.Origins
		if origins == nil {
			origins = SourceCounts{}
		}
		return json.Marshal(struct {
			Kind      Kind         `json:"event"`
			TotalJobs int          `json:"total_jobs"`
			File      string       `json:"file"`
			Origins   SourceCounts `json:"origins"`
		}{e.Kind, deref(e.TotalJobs), e.File, origins})
	default:
		type plain Event
		return json.Marshal(plain(e))
	}
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

type SourceCount struct {
	Origin string
	Count  int
}

// SourceCounts keeps per-source counts in source order and marshals as an object.
type SourceCounts []SourceCount

func (c SourceCounts) Total() int {
	n := 0
	for _, it := range c {
		n += it.Count
	}
	return n
}

func (c SourceCounts) Get(origin string) (int, bool) {
	for _, it := range c {
		if it.Origin == origin {
			return it.Count, true
		}
	}
	return 0, false
}

func (c SourceCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, it := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(it.Origin)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(it.Count)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *SourceCounts) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*c = nil
		return nil
	}
	out := SourceCounts{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)
		var n int
		if err := dec.Decode(&n); err != nil {
			return err
		}
		out = append(out, SourceCount{Origin: key, Count: n})
	}
	*c = out
	return nil
}
