package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/japaniel/jambu/pkg/query"
)

//go:embed migrations.sql
var migrationsSQL string

// DBExecutor is an interface that allows functions to accept either *sql.DB or *sql.Tx.
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// InitDB runs migrations on the given DB connection using the embedded SQL.
func InitDB(db *sql.DB) error {
	for _, s := range strings.Split(migrationsSQL, ";") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Visit is one listing URL seen during browsing.
type Visit struct {
	ID             int64
	URL            string
	Query          string
	Title          string
	VisitCount     int
	FirstVisitedAt time.Time
	LastVisitedAt  time.Time
}

// RecordVisit upserts u into the visit log, bumping its count, and stores
// its non-empty filter parameters. It returns the page id.
func RecordVisit(ctx context.Context, db DBExecutor, u *url.URL, title string) (int64, error) {
	if u == nil || u.String() == "" {
		return 0, fmt.Errorf("url must be non-empty")
	}
	now := time.Now().UTC()

	var id int64
	err := db.QueryRowContext(ctx, `INSERT INTO pages (url, query, title, visit_count, first_visited_at, last_visited_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
		  title = COALESCE(NULLIF(excluded.title, ''), pages.title),
		  visit_count = pages.visit_count + 1,
		  last_visited_at = excluded.last_visited_at
		RETURNING id`, u.String(), u.RawQuery, title, now, now).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert page: %w", err)
	}

	st := query.FromURL(u)
	for _, f := range query.AllFields() {
		v := st.Filter(f)
		if v == "" {
			continue
		}
		_, err := db.ExecContext(ctx, `INSERT INTO page_filters (page_id, param, value) VALUES (?, ?, ?)
			ON CONFLICT(page_id, param) DO UPDATE SET value = excluded.value`, id, f.Param(), v)
		if err != nil {
			return 0, fmt.Errorf("store filter %s: %w", f.Param(), err)
		}
	}
	return id, nil
}

const visitColumns = `p.id, p.url, p.query, p.title, p.visit_count, p.first_visited_at, p.last_visited_at`

// RecentVisits returns up to limit visits, most recent first.
func RecentVisits(ctx context.Context, db DBExecutor, limit int) ([]Visit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `SELECT `+visitColumns+` FROM pages p
		ORDER BY p.last_visited_at DESC, p.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scanVisits(rows)
}

// VisitsWithFilter returns visits whose filter f contained substr.
func VisitsWithFilter(ctx context.Context, db DBExecutor, f query.Field, substr string, limit int) ([]Visit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `SELECT `+visitColumns+` FROM pages p
		JOIN page_filters pf ON pf.page_id = p.id
		WHERE pf.param = ? AND pf.value LIKE ?
		ORDER BY p.last_visited_at DESC, p.id DESC LIMIT ?`, f.Param(), "%"+substr+"%", limit)
	if err != nil {
		return nil, err
	}
	return scanVisits(rows)
}

func scanVisits(rows *sql.Rows) ([]Visit, error) {
	defer rows.Close()
	var out []Visit
	for rows.Next() {
		var v Visit
		var title sql.NullString
		if err := rows.Scan(&v.ID, &v.URL, &v.Query, &title, &v.VisitCount, &v.FirstVisitedAt, &v.LastVisitedAt); err != nil {
			return nil, err
		}
		if title.Valid {
			v.Title = title.String
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Store is a visit log backed by a sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the sqlite visit log at path.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases coherent and serializes writers.
	conn.SetMaxOpenConns(1)
	if err := InitDB(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &Store{db: conn}, nil
}

// Record logs a visit to u.
func (s *Store) Record(ctx context.Context, u *url.URL, title string) error {
	_, err := RecordVisit(ctx, s.db, u, title)
	return err
}

// Recent returns the latest visits.
func (s *Store) Recent(ctx context.Context, limit int) ([]Visit, error) {
	return RecentVisits(ctx, s.db, limit)
}

// WithFilter returns visits whose filter f contained substr.
func (s *Store) WithFilter(ctx context.Context, f query.Field, substr string, limit int) ([]Visit, error) {
	return VisitsWithFilter(ctx, s.db, f, substr, limit)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
