package history

import (
	"context"
	"database/sql"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/jambu/pkg/query"
)

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	require.NoError(t, err)
	return u
}

func TestStackPushBackForward(t *testing.T) {
	s := NewStack(mustURL(t, "http://jambu.test/entries"))
	s.Push(mustURL(t, "http://jambu.test/entries?gloss=fire"))
	s.Push(mustURL(t, "http://jambu.test/entries?gloss=fire&page=2"))
	assert.Equal(t, 3, s.Len())

	u, ok := s.Back()
	require.True(t, ok)
	assert.Equal(t, "gloss=fire", u.RawQuery)

	u, ok = s.Forward()
	require.True(t, ok)
	assert.Equal(t, "gloss=fire&page=2", u.RawQuery)
	_, ok = s.Forward()
	assert.False(t, ok)

	s.Back()
	s.Back()
	_, ok = s.Back()
	assert.False(t, ok)

	// Pushing from the middle drops forward entries.
	s.Push(mustURL(t, "http://jambu.test/entries?word=agni"))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "word=agni", s.Current().RawQuery)
}

func TestStackReturnsCopies(t *testing.T) {
	s := NewStack(mustURL(t, "http://jambu.test/entries?a=1"))
	cur := s.Current()
	cur.RawQuery = "mutated"
	assert.Equal(t, "a=1", s.Current().RawQuery)
}

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Ensure single connection to avoid separate in-memory DBs per connection.
	db.SetMaxOpenConns(1)
	require.NoError(t, InitDB(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInitDBIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, InitDB(db))

	var name string
	require.NoError(t, db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='page_filters'").Scan(&name))
}

func TestRecordVisitUpserts(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	u := mustURL(t, "http://jambu.test/entries?gloss=fire&sort=asc-word")

	id1, err := RecordVisit(ctx, db, u, "Entries")
	require.NoError(t, err)
	id2, err := RecordVisit(ctx, db, u, "")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	visits, err := RecentVisits(ctx, db, 10)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, 2, visits[0].VisitCount)
	assert.Equal(t, "Entries", visits[0].Title, "empty title keeps the stored one")
	assert.Equal(t, "gloss=fire&sort=asc-word", visits[0].Query)

	var cnt int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM page_filters WHERE page_id = ?`, id1).Scan(&cnt))
	assert.Equal(t, 1, cnt, "only filter fields are stored")
}

func TestRecentVisitsOrder(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	for _, q := range []string{"gloss=fire", "gloss=water", "word=agni"} {
		_, err := RecordVisit(ctx, db, mustURL(t, "http://jambu.test/entries?"+q), "")
		require.NoError(t, err)
	}
	visits, err := RecentVisits(ctx, db, 2)
	require.NoError(t, err)
	require.Len(t, visits, 2)
	assert.Equal(t, "word=agni", visits[0].Query)
	assert.Equal(t, "gloss=water", visits[1].Query)
}

func TestVisitsWithFilter(t *testing.T) {
	ctx := context.Background()
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Record(ctx, mustURL(t, "http://jambu.test/entries?gloss=fire"), ""))
	require.NoError(t, s.Record(ctx, mustURL(t, "http://jambu.test/entries?gloss=wildfire&lang=Pa"), ""))
	require.NoError(t, s.Record(ctx, mustURL(t, "http://jambu.test/entries?word=fire"), ""))

	visits, err := s.WithFilter(ctx, query.Gloss, "fire", 10)
	require.NoError(t, err)
	assert.Len(t, visits, 2)

	visits, err = s.WithFilter(ctx, query.Lang, "Pa", 10)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Contains(t, visits[0].URL, "wildfire")
}

func TestRecordVisitRejectsEmptyURL(t *testing.T) {
	db := setupTestDB(t)
	_, err := RecordVisit(context.Background(), db, &url.URL{}, "")
	assert.Error(t, err)
}
