package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ats-scout/internal/domain/job"
	"ats-scout/internal/search"
)

var ErrNoCSV = errors.New("no CSV file found")

var csvHeader = []string{"Job Title", "Snippet", "Link"}

const (
	legacyPattern = "php_backend_jobs_*.csv"
	legacyFile    = "php_backend_jobs.csv"
	currentGlob   = "jobs_*_*_*.csv"
)

// CSVStore writes one CSV per technology, level and day. A second run on the same day
// overwrites the file.
type CSVStore struct {
	dir string
	now func() time.Time
}

func NewCSVStore(dir string) *CSVStore {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	return &CSVStore{dir: dir, now: time.Now}
}

func (s *CSVStore) Dir() string { return s.dir }

// FileName is the output name for a run started on day.
func FileName(technology, level string, day time.Time) string {
	return fmt.Sprintf("jobs_%s_%s_%s.csv", technology, level, day.Format("2006-01-02"))
}

func (s *CSVStore) Save(ctx context.Context, meta RunMeta, rows []job.Result) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	day := meta.StartedAt
	if day.IsZero() {
		day = s.now()
	}
	name := FileName(meta.Technology, meta.Level, day)
	if err := WriteCSV(filepath.Join(s.dir, name), rows); err != nil {
		return "", err
	}
	return name, nil
}

// WriteCSV writes rows under the standard header, replacing path.
func WriteCSV(path string, rows []job.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		if err := w.Write([]string{r.Title, r.Snippet, r.Link}); err != nil {
			_ = f.Close()
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	return f.Close()
}

// LatestCSV returns the newest result file in dir. Current-format files win over the
// legacy dated files, which win over the single legacy file.
func LatestCSV(dir string) (string, error) {
	if p, ok := newestMatch(dir, currentGlob); ok {
		return p, nil
	}
	if p, ok := newestMatch(dir, legacyPattern); ok {
		return p, nil
	}
	p := filepath.Join(dir, legacyFile)
	if st, err := os.Stat(p); err == nil && !st.IsDir() {
		return p, nil
	}
	return "", ErrNoCSV
}

func newestMatch(dir, pattern string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	type candidate struct {
		path string
		mod  time.Time
	}
	cands := make([]candidate, 0, len(matches))
	for _, m := range matches {
		st, err := os.Stat(m)
		if err != nil || st.IsDir() {
			continue
		}
		cands = append(cands, candidate{path: m, mod: st.ModTime()})
	}
	if len(cands) == 0 {
		return "", false
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].mod.Equal(cands[j].mod) {
			return cands[i].path > cands[j].path
		}
		return cands[i].mod.After(cands[j].mod)
	})
	return cands[0].path, true
}

// LoadJobs reads a result CSV and attaches the origin detected from each link.
// Columns are resolved by header name; rows shorter than the header leave fields empty.
func LoadJobs(path string) ([]job.Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return []job.Listing{}, nil
	}

	col := map[string]int{}
	for i, h := range records[0] {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	out := make([]job.Listing, 0, len(records)-1)
	for _, rec := range records[1:] {
		link := field(rec, "Link")
		out = append(out, job.Listing{
			Title:   field(rec, "Job Title"),
			Snippet: field(rec, "Snippet"),
			Link:    link,
			Origin:  search.DetectOrigin(link),
		})
	}
	return out, nil
}
