package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tharun-raj-u/WebScrapper/api/middleware"
	"github.com/Tharun-raj-u/WebScrapper/client"
	"github.com/Tharun-raj-u/WebScrapper/config"
	"github.com/Tharun-raj-u/WebScrapper/controller"
	"github.com/Tharun-raj-u/WebScrapper/models"
	"github.com/Tharun-raj-u/WebScrapper/session"
)

const successBody = `{"success":true,"data":{"siteTitle":"Example Domain","baseUrl":"https://example.com","pages":[{"url":"https://example.com/"},{"url":"https://example.com/about"}]}}`

type testEnv struct {
	router http.Handler
	remote *httptest.Server
	store  *session.Store

	mu     sync.Mutex
	bodies []models.ScrapeRequest
}

// newTestEnv wires the router to a fake remote service answering with
// status and body.
func newTestEnv(t *testing.T, status int, body string, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	env := &testEnv{}

	env.remote = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.ScrapeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		env.mu.Lock()
		env.bodies = append(env.bodies, req)
		env.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(env.remote.Close)

	cfg := config.Load()
	cfg.Server.Mode = "test"
	cfg.Remote.Endpoint = env.remote.URL + "/api/scrape"
	cfg.RateLimit.RequestsPerSecond = 1000
	cfg.RateLimit.Burst = 1000
	for _, m := range mutate {
		m(cfg)
	}

	c := client.New(cfg.Remote)
	env.store = session.New(cfg.Session.MaxEntries, cfg.Session.IdleTTL, func() *controller.Controller {
		return controller.New(c, controller.WithTimeout(cfg.Remote.RequestTimeout))
	})
	t.Cleanup(env.store.Close)

	env.router = NewRouter(env.store, cfg, time.Now())
	return env
}

func (e *testEnv) do(t *testing.T, method, path, sessionID string, body string, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if sessionID != "" {
		req.Header.Set(middleware.SessionHeader, sessionID)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) requests() []models.ScrapeRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.ScrapeRequest(nil), e.bodies...)
}

// waitBackground blocks until scrapes started by the form handler settle.
func (e *testEnv) waitBackground(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.store.Wait(ctx))
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	return got
}

func TestAPI_ScrapeSuccessAndExport(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, successBody)

	w := env.do(t, http.MethodPost, "/api/v1/scrape", "", `{"url":"  https://example.com ","maxPages":2}`, "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	sid := w.Header().Get(middleware.SessionHeader)
	require.NotEmpty(t, sid)

	got := decodeState(t, w)
	assert.Equal(t, "succeeded", got["state"])
	assert.NotContains(t, got, "error")
	assert.Equal(t, "Example Domain", got["result"].(map[string]any)["siteTitle"])
	assert.Equal(t, []models.ScrapeRequest{{URL: "https://example.com", MaxPages: 2}}, env.requests())

	w = env.do(t, http.MethodGet, "/api/v1/export", sid, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Regexp(t, `^attachment; filename="scraped-\d{4}-\d{2}-\d{2}\.json"$`, w.Header().Get("Content-Disposition"))

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(successBody), &envelope))
	assert.JSONEq(t, string(envelope.Data), w.Body.String())
}

func TestAPI_MaxPagesAsString(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, successBody)

	w := env.do(t, http.MethodPost, "/api/v1/scrape", "", `{"url":"https://example.com","maxPages":"3"}`, "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []models.ScrapeRequest{{URL: "https://example.com", MaxPages: 3}}, env.requests())
}

func TestAPI_BusinessFailure(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, `{"success":false,"errors":["A","B"]}`)

	w := env.do(t, http.MethodPost, "/api/v1/scrape", "", `{"url":"https://example.com","maxPages":1}`, "application/json")
	require.Equal(t, http.StatusOK, w.Code)

	got := decodeState(t, w)
	assert.Equal(t, "failed", got["state"])
	assert.Equal(t, "A, B", got["error"])
	assert.NotContains(t, got, "result")
}

func TestAPI_TransportFailure(t *testing.T) {
	env := newTestEnv(t, http.StatusInternalServerError, `{"error":{"message":"X"}}`)

	w := env.do(t, http.MethodPost, "/api/v1/scrape", "", `{"url":"https://example.com","maxPages":1}`, "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "X", decodeState(t, w)["error"])
}

func TestAPI_EmptyURLSkipsRemote(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, successBody)

	w := env.do(t, http.MethodPost, "/api/v1/scrape", "", `{"url":"   ","maxPages":1}`, "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Please enter a URL", decodeState(t, w)["error"])
	assert.Empty(t, env.requests())
}

func TestAPI_BadJSON(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, successBody)

	w := env.do(t, http.MethodPost, "/api/v1/scrape", "", `{"url":`, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), models.ErrCodeInvalidInput)
}

func TestAPI_ExportWithoutResult(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, successBody)

	w := env.do(t, http.MethodGet, "/api/v1/export", "", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), models.ErrCodeNoResult)
}

func TestAPI_StateIsPerSession(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, successBody)

	w := env.do(t, http.MethodPost, "/api/v1/scrape", "", `{"url":"https://example.com","maxPages":1}`, "application/json")
	sid := w.Header().Get(middleware.SessionHeader)

	w = env.do(t, http.MethodGet, "/api/v1/state", sid, "", "")
	assert.Equal(t, "succeeded", decodeState(t, w)["state"])

	w = env.do(t, http.MethodGet, "/api/v1/state", "", "", "")
	assert.Equal(t, "idle", decodeState(t, w)["state"])
}

func TestAPI_BusySessionRejectsSecondSubmit(t *testing.T) {
	release := make(chan struct{})
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(successBody))
	}))
	defer remote.Close()

	env := newTestEnv(t, http.StatusOK, successBody, func(c *config.Config) {
		c.Remote.Endpoint = remote.URL
	})

	sid := session.NewID()
	first := make(chan *httptest.ResponseRecorder)
	go func() {
		first <- env.do(t, http.MethodPost, "/api/v1/scrape", sid, `{"url":"https://example.com","maxPages":1}`, "application/json")
	}()

	require.Eventually(t, func() bool {
		ctrl, ok := env.store.Peek(sid)
		return ok && ctrl.Busy()
	}, 2*time.Second, 5*time.Millisecond)

	w := env.do(t, http.MethodPost, "/api/v1/scrape", sid, `{"url":"https://example.org","maxPages":1}`, "application/json")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), models.ErrCodeBusy)

	w = env.do(t, http.MethodGet, "/", sid, "", "")
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	_, disabled := doc.Find("button.btn-scrape").Attr("disabled")
	assert.True(t, disabled)
	assert.Equal(t, 1, doc.Find(".loading-state").Length())

	close(release)
	assert.Equal(t, http.StatusOK, (<-first).Code)
}

func TestAPI_AuthRequiredExceptHealth(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, successBody, func(c *config.Config) {
		c.Auth.Enabled = true
		c.Auth.APIKeys = []string{"secret"}
	})

	w := env.do(t, http.MethodGet, "/api/v1/state", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/state", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	w = env.do(t, http.MethodGet, "/api/v1/health", "", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}

func TestAPI_RateLimited(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, successBody, func(c *config.Config) {
		c.RateLimit.RequestsPerSecond = 0.001
		c.RateLimit.Burst = 1
	})

	sid := session.NewID()
	w := env.do(t, http.MethodPost, "/api/v1/scrape", sid, `{"url":"https://example.com","maxPages":1}`, "application/json")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/scrape", sid, `{"url":"https://example.com","maxPages":1}`, "application/json")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Len(t, env.requests(), 1)
}

func TestUI_IndexRendersForm(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, successBody)

	w := env.do(t, http.MethodGet, "/", "", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)

	opts := doc.Find("select#maxPages option")
	assert.Equal(t, 5, opts.Length())
	assert.Equal(t, "1 page", strings.TrimSpace(opts.First().Text()))
	assert.Equal(t, "5", doc.Find("select#maxPages option[selected]").AttrOr("value", ""))
	assert.Equal(t, 0, doc.Find(".error-message").Length())
	assert.Equal(t, 0, doc.Find(".results").Length())
}

func TestUI_SubmitThenRender(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, successBody)

	form := url.Values{"url": {"https://example.com"}, "maxPages": {"2"}}
	w := env.do(t, http.MethodPost, "/scrape", "", form.Encode(), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	cookie := w.Result().Cookies()
	require.NotEmpty(t, cookie)
	env.waitBackground(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie[0])
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)

	assert.Equal(t, "Example Domain", doc.Find(".site-info h2").Text())
	assert.Equal(t, "https://example.com", doc.Find(".site-info a").AttrOr("href", ""))
	assert.Equal(t, "2 pages scraped", doc.Find(".page-count").Text())
	assert.Equal(t, "/download", doc.Find("a.btn-download").AttrOr("href", ""))
	assert.Equal(t, "https://example.com", doc.Find("input#url").AttrOr("value", ""))
	assert.Equal(t, "2", doc.Find("select#maxPages option[selected]").AttrOr("value", ""))
	assert.Contains(t, doc.Find(".json-content pre").Text(), `"siteTitle": "Example Domain"`)
	assert.Equal(t, 0, doc.Find(".error-message").Length())
}

func TestUI_SubmitRedirectsToProgressView(t *testing.T) {
	release := make(chan struct{})
	var releaseOnce sync.Once
	unblock := func() { releaseOnce.Do(func() { close(release) }) }

	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(successBody))
	}))
	t.Cleanup(remote.Close)
	t.Cleanup(unblock)

	env := newTestEnv(t, http.StatusOK, successBody, func(c *config.Config) {
		c.Remote.Endpoint = remote.URL
	})
	sid := session.NewID()

	form := url.Values{"url": {"https://example.com"}, "maxPages": {"3"}}
	w := env.do(t, http.MethodPost, "/scrape", sid, form.Encode(), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = env.do(t, http.MethodGet, "/", sid, "", "")
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	_, disabled := doc.Find("button.btn-scrape").Attr("disabled")
	assert.True(t, disabled)
	assert.Equal(t, 1, doc.Find(".loading-state").Length())
	assert.Equal(t, 1, doc.Find(`meta[http-equiv="refresh"]`).Length())
	assert.Equal(t, "https://example.com", doc.Find("input#url").AttrOr("value", ""))
	assert.Equal(t, 0, doc.Find(".results").Length())

	w = env.do(t, http.MethodPost, "/scrape", sid, form.Encode(), "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusConflict, w.Code)

	unblock()
	env.waitBackground(t)

	w = env.do(t, http.MethodGet, "/", sid, "", "")
	doc, err = goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	_, disabled = doc.Find("button.btn-scrape").Attr("disabled")
	assert.False(t, disabled)
	assert.Equal(t, 0, doc.Find(".loading-state").Length())
	assert.Equal(t, "2 pages scraped", doc.Find(".page-count").Text())
}

func TestUI_EmptyURLShowsError(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, successBody)
	sid := session.NewID()

	form := url.Values{"url": {"  "}, "maxPages": {"1"}}
	w := env.do(t, http.MethodPost, "/scrape", sid, form.Encode(), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = env.do(t, http.MethodGet, "/", sid, "", "")
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	assert.Equal(t, "Please enter a URL", doc.Find(".error-message p").Text())
	assert.Equal(t, 0, doc.Find(".results").Length())
	assert.Empty(t, env.requests())
}

func TestUI_DownloadWithoutResult(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, successBody)

	w := env.do(t, http.MethodGet, "/download", "", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
