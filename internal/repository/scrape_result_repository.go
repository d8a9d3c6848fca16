package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ats-scout/internal/database"
	"ats-scout/internal/domain/job"
	"ats-scout/internal/infrastructure/storage"
	"ats-scout/internal/search"
)

// PostgresScrapeResultRepository mirrors every run into scrape_runs and upserts its
// postings into scraped_jobs, one row per technology, level and link.
type PostgresScrapeResultRepository struct {
	db  database.DB
	now func() time.Time
}

func NewPostgresScrapeResultRepository(db database.DB) *PostgresScrapeResultRepository {
	return &PostgresScrapeResultRepository{db: db, now: time.Now}
}

func (r *PostgresScrapeResultRepository) Save(ctx context.Context, meta storage.RunMeta, rows []job.Result) (string, error) {
	if r == nil || r.db == nil {
		return "", fmt.Errorf("nil db")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	finished := r.now().UTC()
	_, err = tx.Exec(ctx, `INSERT INTO scrape_runs (id, technology, level, started_at, finished_at, total_jobs, output_ref)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET finished_at = EXCLUDED.finished_at, total_jobs = EXCLUDED.total_jobs`,
		meta.RunID, meta.Technology, meta.Level, meta.StartedAt.UTC(), finished, len(rows), "")
	if err != nil {
		return "", fmt.Errorf("insert scrape run: %w", err)
	}

	for _, row := range rows {
		_, err := tx.Exec(ctx, `INSERT INTO scraped_jobs (technology, level, link, title, snippet, origin, first_run_id, last_run_id, first_seen_at, last_seen_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8, $8)
ON CONFLICT (technology, level, link) DO UPDATE SET
	title = EXCLUDED.title,
	snippet = EXCLUDED.snippet,
	origin = EXCLUDED.origin,
	last_run_id = EXCLUDED.last_run_id,
	last_seen_at = EXCLUDED.last_seen_at`,
			meta.Technology, meta.Level, row.Link, row.Title, row.Snippet, search.DetectOrigin(row.Link), meta.RunID, finished)
		if err != nil {
			return "", fmt.Errorf("upsert scraped job: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return "scrape_runs/" + meta.RunID.String(), nil
}

// RecordOutput stores the authoritative output reference of a finished run.
func (r *PostgresScrapeResultRepository) RecordOutput(ctx context.Context, meta storage.RunMeta, ref string) error {
	_, err := r.db.Exec(ctx, `UPDATE scrape_runs SET output_ref = $2 WHERE id = $1`, meta.RunID, ref)
	return err
}

// RecentRuns lists the latest runs, newest first.
func (r *PostgresScrapeResultRepository) RecentRuns(ctx context.Context, limit int) ([]job.ScrapeRun, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := r.db.Query(ctx, `SELECT id, technology, level, started_at, finished_at, total_jobs, output_ref
FROM scrape_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]job.ScrapeRun, 0)
	for rows.Next() {
		var run job.ScrapeRun
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &run.Technology, &run.Level, &run.StartedAt, &finished, &run.TotalJobs, &run.OutputRef); err != nil {
			return nil, err
		}
		run.StartedAt = run.StartedAt.UTC()
		if finished.Valid {
			t := finished.Time.UTC()
			run.FinishedAt = &t
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
