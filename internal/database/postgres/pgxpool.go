package postgres

import (
	"context"
	"fmt"
	"strings"

	"ats-scout/internal/config"
	"ats-scout/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const applicationName = "ats-scout"

// DSN renders the keyword/value connection string for cfg.
func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		dsnValue(strings.TrimSpace(cfg.DBHost)),
		dsnValue(strings.TrimSpace(cfg.DBPort)),
		dsnValue(strings.TrimSpace(cfg.DBUser)),
		dsnValue(cfg.DBPassword),
		dsnValue(strings.TrimSpace(cfg.DBName)),
		dsnValue(strings.TrimSpace(cfg.DBSSLMode)),
	)
}

// dsnValue single-quotes values that are empty or contain spaces, quotes or backslashes.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

func poolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	pcfg, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pcfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	if cfg.ConnectTimeout > 0 {
		pcfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.PoolMaxConns > 0 {
		pcfg.MaxConns = cfg.PoolMaxConns
	}
	return pcfg, nil
}

// Connect opens the result-store pool and checks it answers before returning.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (database.DB, error) {
	pcfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}
	p, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping postgres %s: %w", pcfg.ConnConfig.Host, err)
	}
	return pool{p}, nil
}

// pool and tx adapt pgx to database.DB; pgx.Rows and pgx.Row already satisfy
// database.Rows and database.Row.
type pool struct {
	*pgxpool.Pool
}

func (p pool) Close() error {
	p.Pool.Close()
	return nil
}

func (p pool) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := p.Pool.Exec(ctx, query, args...)
	return tag.RowsAffected(), err
}

func (p pool) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	return p.Pool.Query(ctx, query, args...)
}

func (p pool) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return p.Pool.QueryRow(ctx, query, args...)
}

func (p pool) Begin(ctx context.Context) (database.Tx, error) {
	t, err := p.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx{t}, nil
}

type tx struct {
	pgx.Tx
}

func (t tx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := t.Tx.Exec(ctx, query, args...)
	return tag.RowsAffected(), err
}

func (t tx) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	return t.Tx.Query(ctx, query, args...)
}

func (t tx) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return t.Tx.QueryRow(ctx, query, args...)
}
