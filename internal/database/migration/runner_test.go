package migration

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"ats-scout/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDB struct {
	applied  map[int64]string
	executed []string
	commits  int
}

func newFakeDB() *fakeDB { return &fakeDB{applied: map[int64]string{}} }

func (db *fakeDB) Ping(context.Context) error { return nil }
func (db *fakeDB) Close() error               { return nil }

func (db *fakeDB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	db.executed = append(db.executed, strings.TrimSpace(query))
	return 0, nil
}

func (db *fakeDB) Query(context.Context, string, ...any) (database.Rows, error) {
	return nil, fmt.Errorf("not implemented")
}

func (db *fakeDB) QueryRow(context.Context, string, ...any) database.Row {
	return fakeRow{err: fmt.Errorf("not implemented")}
}

func (db *fakeDB) Begin(context.Context) (database.Tx, error) {
	return &fakeTx{db: db, pending: map[int64]string{}}, nil
}

type fakeTx struct {
	db      *fakeDB
	pending map[int64]string
	done    bool
}

func (tx *fakeTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if strings.HasPrefix(q, "insert into schema_migrations") {
		tx.pending[args[0].(int64)] = args[2].(string)
		return 1, nil
	}
	return tx.db.Exec(ctx, query, args...)
}

func (tx *fakeTx) Query(context.Context, string, ...any) (database.Rows, error) {
	return nil, fmt.Errorf("not implemented")
}

func (tx *fakeTx) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return fakeRow{vals: []any{tx.db.applied[args[0].(int64)]}}
}

func (tx *fakeTx) Commit(context.Context) error {
	for k, v := range tx.pending {
		tx.db.applied[k] = v
	}
	tx.db.commits++
	tx.done = true
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error { return nil }

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i := range dest {
		*(dest[i].(*string)) = r.vals[i].(string)
	}
	return nil
}

func TestLoad_OrdersAndSkips(t *testing.T) {
	fsys := fstest.MapFS{
		"V2__second.sql": {Data: []byte("SELECT 2;")},
		"V1__first.sql":  {Data: []byte("SELECT 1;")},
		"README.md":      {Data: []byte("docs")},
	}
	migs, err := Load(fsys)
	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, int64(1), migs[0].Version)
	assert.Equal(t, "first", migs[0].Name)
	assert.Equal(t, "second", migs[1].Name)
}

func TestLoad_RejectsDuplicatesAndEmpty(t *testing.T) {
	_, err := Load(fstest.MapFS{
		"V1__a.sql":  {Data: []byte("SELECT 1;")},
		"V01__b.sql": {Data: []byte("SELECT 1;")},
	})
	assert.ErrorContains(t, err, "duplicate migration version")

	_, err = Load(fstest.MapFS{"V1__a.sql": {Data: []byte("  \n")}})
	assert.ErrorContains(t, err, "empty migration file")
}

func TestEmbeddedMigrationsCreateResultTables(t *testing.T) {
	db := newFakeDB()
	require.NoError(t, Runner{Now: func() time.Time { return time.Unix(0, 0) }}.Run(context.Background(), db))

	joined := strings.Join(db.executed, "\n")
	assert.Contains(t, joined, "CREATE TABLE IF NOT EXISTS schema_migrations")
	assert.Contains(t, joined, "CREATE TABLE IF NOT EXISTS scrape_runs")
	assert.Contains(t, joined, "CREATE TABLE IF NOT EXISTS scraped_jobs")
	assert.NotEmpty(t, db.applied[1])
}

func TestRun_IsIdempotent(t *testing.T) {
	fsys := fstest.MapFS{"V1__a.sql": {Data: []byte("CREATE TABLE a (id INT);")}}
	db := newFakeDB()

	require.NoError(t, Runner{FS: fsys}.Run(context.Background(), db))
	require.NoError(t, Runner{FS: fsys}.Run(context.Background(), db))

	applies := 0
	for _, q := range db.executed {
		if q == "CREATE TABLE a (id INT);" {
			applies++
		}
	}
	assert.Equal(t, 1, applies)
}

func TestRun_ChecksumMismatch(t *testing.T) {
	db := newFakeDB()
	db.applied[1] = "deadbeef"
	err := Runner{FS: fstest.MapFS{"V1__a.sql": {Data: []byte("SELECT 1;")}}}.Run(context.Background(), db)
	assert.ErrorContains(t, err, "checksum mismatch")
}
