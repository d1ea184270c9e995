package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testBrowser struct {
	t      *testing.T
	srv    *Server
	cookie *http.Cookie
}

func newTestServer(t *testing.T, f *fakeSearcher, renderWait time.Duration) (*testBrowser, *Metrics) {
	t.Helper()
	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	qc := newTestClient(t, f, QueryClientOptions{Metrics: metrics})

	cfg := defaultConfig()
	cfg.Server.RenderWaitMillis = int(renderWait / time.Millisecond)
	sessions := NewSessions(qc, time.Hour)
	t.Cleanup(sessions.Close)
	srv := NewServer(cfg, sessions, metrics)
	srv.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }
	return &testBrowser{t: t, srv: srv}, metrics
}

func (b *testBrowser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	rec := httptest.NewRecorder()
	b.srv.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			b.cookie = c
		}
	}
	return rec
}

func (b *testBrowser) get(path string) (int, string) {
	b.t.Helper()
	rec := b.do(httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code, rec.Body.String()
}

func (b *testBrowser) post(path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func TestServerSearchAndLoadMore(t *testing.T) {
	f := &fakeSearcher{}
	b, _ := newTestServer(t, f, 2*time.Second)

	code, body := b.get("/")
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, b.cookie, "session cookie set on first visit")
	assert.Contains(t, body, "<h1>Photo Search</h1>")
	assert.Contains(t, body, "10/19/2026")
	assert.Equal(t, 15, strings.Count(body, `class="tile"`))
	assert.Contains(t, body, `data-id="listing-1-0"`)
	assert.Contains(t, body, ">Load More</button>")
	assert.NotContains(t, body, "Loading...")

	rec := b.post("/search", url.Values{"q": {"cats"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	_, body = b.get("/")
	assert.Equal(t, 15, strings.Count(body, `class="tile"`))
	assert.Contains(t, body, `value="cats"`)
	assert.Contains(t, body, `data-id="search-1-14"`)
	assert.NotContains(t, body, `data-id="listing-1-0"`)

	rec = b.post("/more", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	_, body = b.get("/")
	assert.Equal(t, 30, strings.Count(body, `class="tile"`))
	assert.Less(t, strings.Index(body, `data-id="search-1-14"`), strings.Index(body, `data-id="search-2-0"`))

	b.post("/search", url.Values{"q": {""}})
	_, body = b.get("/")
	assert.Equal(t, 15, strings.Count(body, `class="tile"`))
	assert.NotContains(t, body, `data-id="search-`)

	assert.Equal(t, []fakeCall{
		{KeyFor(""), 1}, {KeyFor("cats"), 1}, {KeyFor("cats"), 2},
	}, f.Calls())
}

func TestServerSessionsAreSeparate(t *testing.T) {
	f := &fakeSearcher{}
	a, _ := newTestServer(t, f, 2*time.Second)
	a.get("/")
	a.post("/search", url.Values{"q": {"cats"}})
	settle(t, a.srv.sessions.client.Query(KeyFor("cats")))

	other := &testBrowser{t: t, srv: a.srv}
	_, body := other.get("/")
	assert.NotEqual(t, a.cookie.Value, other.cookie.Value)
	assert.Contains(t, body, `value=""`)
	assert.Contains(t, body, `data-id="listing-1-0"`)
	assert.Len(t, f.Calls(), 2, "second browser reuses the cached listing page")
}

func TestServerLoadMoreWhileInFlight(t *testing.T) {
	gate := make(chan struct{})
	f := &fakeSearcher{gate: gate}
	b, _ := newTestServer(t, f, 20*time.Millisecond)

	_, body := b.get("/")
	assert.Contains(t, body, `<p class="status">Loading...</p>`)
	assert.Contains(t, body, `http-equiv="refresh"`)
	assert.NotContains(t, body, "Load More")

	b.post("/more", nil)

	gate <- struct{}{}
	settle(t, b.srv.sessions.client.Query(KeyFor("")))
	assert.Len(t, f.Calls(), 1)

	b.post("/more", nil)
	_, body = b.get("/")
	assert.Contains(t, body, `<button type="submit" disabled>Loading...</button>`)
	assert.NotContains(t, body, `<p class="status">Loading...</p>`)
	assert.Equal(t, 15, strings.Count(body, `class="tile"`))

	gate <- struct{}{}
	settle(t, b.srv.sessions.client.Query(KeyFor("")))
	assert.Len(t, f.Calls(), 2)
}

func TestServerShowsFetchError(t *testing.T) {
	f := &fakeSearcher{}
	f.failOn(KeyFor("cats"), 2, errUpstream500)
	b, _ := newTestServer(t, f, 2*time.Second)

	b.post("/search", url.Values{"q": {"cats"}})
	settle(t, b.srv.sessions.client.Query(KeyFor("cats")))
	b.post("/more", nil)
	_, body := b.get("/")
	assert.Contains(t, body, `<p class="status error">Failed to fetch images</p>`)
	assert.Equal(t, 15, strings.Count(body, `class="tile"`))
	assert.Contains(t, body, ">Load More</button>")
}

func TestServerEscapesQuery(t *testing.T) {
	b, _ := newTestServer(t, &fakeSearcher{}, 2*time.Second)
	b.post("/search", url.Values{"q": {`"><script>x</script>`}})
	_, body := b.get("/")
	assert.NotContains(t, body, "<script>x</script>")
}

func TestServerBrotli(t *testing.T) {
	b, _ := newTestServer(t, &fakeSearcher{}, 2*time.Second)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "br")
	rec := b.do(req)
	require.Equal(t, "br", rec.Header().Get("Content-Encoding"))

	plain, err := io.ReadAll(brotli.NewReader(rec.Body))
	require.NoError(t, err)
	assert.Contains(t, string(plain), "<h1>Photo Search</h1>")
}

func TestServerNotFoundAndMetrics(t *testing.T) {
	b, _ := newTestServer(t, &fakeSearcher{}, 2*time.Second)

	code, body := b.get("/nope")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Not Found", body)

	b.get("/")
	code, body = b.get("/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `photogallery_page_fetches_total{mode="listing",status="success"} 1`)
}
