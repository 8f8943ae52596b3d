package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listing = `<html><head><title>Entries</title></head><body>
<p class="showing">Showing 1 of 1</p>
<table><tbody class="results"><tr><td>Pali</td><td>aggi</td></tr></tbody></table>
<nav class="page"></nav></body></html>`

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	require.NoError(t, err)
	return u
}

func TestFetchParsesDocument(t *testing.T) {
	var gotUA, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(listing))
	}))
	defer srv.Close()

	f := New(time.Second, "")
	doc, err := f.Fetch(context.Background(), mustURL(t, srv.URL+"/entries?gloss=fire"))
	require.NoError(t, err)

	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Equal(t, "gloss=fire", gotQuery)
	assert.Equal(t, "Entries", doc.Title)
	assert.Equal(t, [][]string{{"Pali", "aggi"}}, doc.Rows())
	assert.Equal(t, "gloss=fire", doc.URL.RawQuery)
}

func TestFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(time.Second, "").Fetch(context.Background(), mustURL(t, srv.URL))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatus)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Code)
}

func TestFetchTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	f := New(time.Second, "")
	f.MaxBodySize = 32
	_, err := f.Fetch(context.Background(), mustURL(t, srv.URL))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFetchContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(time.Second, "").Fetch(ctx, mustURL(t, srv.URL))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentFetchesShareRequest(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		w.Write([]byte(listing))
	}))
	defer srv.Close()

	f := New(5*time.Second, "")
	u := mustURL(t, srv.URL+"/entries")
	const n = 4
	docs := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := f.Fetch(context.Background(), u)
			if err != nil {
				t.Errorf("fetch: %v", err)
				return
			}
			docs <- len(doc.Rows())
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(docs)

	for rows := range docs {
		assert.Equal(t, 1, rows)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
