package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nikhilchitrapu/portfolio/internal/config"
	"github.com/nikhilchitrapu/portfolio/internal/content"
	"github.com/nikhilchitrapu/portfolio/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var viewIDPattern = regexp.MustCompile(`data-view-id="([^"]+)"`)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Port:            "0",
		GinMode:         gin.TestMode,
		LogLevel:        "disable",
		Languages:       []string{"en", "de"},
		DefaultLanguage: "en",
		ResumePath:      filepath.Join(t.TempDir(), "resume.pdf"),
		FadeOffset:      60,
		ViewTTL:         time.Minute,
		MaxViews:        100,
		Analytics:       config.AnalyticsConfig{Retention: 24 * time.Hour},
		Admin:           config.AdminConfig{Username: "admin"},
	}
}

func newTestServer(t *testing.T, mutate func(*Options)) (*Server, http.Handler) {
	t.Helper()
	store, err := content.Default()
	require.NoError(t, err)

	opts := Options{
		Config: testConfig(t),
		Store:  store,
		Logger: logging.NewWithWriter(io.Discard, "disable"),
	}
	if mutate != nil {
		mutate(&opts)
	}

	s, err := New(opts)
	require.NoError(t, err)
	return s, s.Handler()
}

func do(h http.Handler, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func postJSON(h http.Handler, target, body string) *httptest.ResponseRecorder {
	return do(h, http.MethodPost, target, body, http.Header{"Content-Type": {"application/json"}})
}

// openView loads the index page and returns the page view id it was given.
func openView(t *testing.T, h http.Handler, target string) (string, string) {
	t.Helper()
	w := do(h, http.MethodGet, target, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	m := viewIDPattern.FindStringSubmatch(w.Body.String())
	require.Len(t, m, 2)
	return m[1], w.Body.String()
}

func visibleIDs(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	var body struct {
		Visible []string `json:"visible"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Visible
}

func TestNewRejectsBadLanguages(t *testing.T) {
	store, err := content.Default()
	require.NoError(t, err)

	cfg := testConfig(t)
	cfg.Languages = []string{"en", "fr"}
	_, err = New(Options{Config: cfg, Store: store})
	assert.ErrorIs(t, err, content.ErrUnknownLanguage)

	cfg.Languages = []string{"en"}
	_, err = New(Options{Config: cfg, Store: store})
	assert.Error(t, err)

	_, err = New(Options{Config: testConfig(t)})
	assert.Error(t, err)
}

func TestIndexCreatesPageView(t *testing.T) {
	s, h := newTestServer(t, nil)

	id, body := openView(t, h, "/")
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, s.views.Len())
	assert.Contains(t, body, `<html lang="en" class="">`)
	assert.Contains(t, body, ">DE</button>")
	assert.NotContains(t, body, "fade-in visible")
	assert.NotContains(t, body, "contact-form")

	other, _ := openView(t, h, "/")
	assert.NotEqual(t, id, other)
	assert.Equal(t, 2, s.views.Len())
}

func TestIndexSeedsLanguageAndTheme(t *testing.T) {
	_, h := newTestServer(t, nil)

	_, body := openView(t, h, "/?lang=de&theme=dark")
	assert.Contains(t, body, `<html lang="de" class="dark">`)
	assert.Contains(t, body, "Über mich")
	assert.Contains(t, body, ">EN</button>")
}

func TestToggleLanguage(t *testing.T) {
	_, h := newTestServer(t, nil)
	id, _ := openView(t, h, "/")

	w := do(h, http.MethodPost, "/views/"+id+"/language", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"language-changed":{"lang":"de"}}`, w.Header().Get("HX-Trigger"))
	assert.Contains(t, w.Body.String(), `id="page"`)
	assert.Contains(t, w.Body.String(), "Über mich")
	assert.NotContains(t, w.Body.String(), "<html")

	w = do(h, http.MethodPost, "/views/"+id+"/language", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"language-changed":{"lang":"en"}}`, w.Header().Get("HX-Trigger"))
	assert.NotContains(t, w.Body.String(), "Über mich")
	assert.Contains(t, w.Body.String(), ">DE</button>")
}

func TestToggleThemeTriggersMarkerEvent(t *testing.T) {
	s, h := newTestServer(t, nil)
	id, _ := openView(t, h, "/")

	w := do(h, http.MethodPost, "/views/"+id+"/theme", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"theme-changed":{"dark":true}}`, w.Header().Get("HX-Trigger"))
	assert.Contains(t, w.Body.String(), `class="page dark"`)

	pv, err := s.views.Get(id)
	require.NoError(t, err)
	assert.True(t, pv.controller.State().DarkMode)
	assert.Equal(t, pv.controller.State().DarkMode, pv.root.Has("dark"))

	w = do(h, http.MethodPost, "/views/"+id+"/theme", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"theme-changed":{"dark":false}}`, w.Header().Get("HX-Trigger"))
	assert.False(t, pv.root.Has("dark"))
}

func TestToggleUnknownView(t *testing.T) {
	_, h := newTestServer(t, nil)

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodPost, "/views/nope/language", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodPost, "/views/nope/theme", "", nil).Code)
}

func TestMountScrollUnmount(t *testing.T) {
	s, h := newTestServer(t, nil)
	id, _ := openView(t, h, "/")

	w := postJSON(h, "/views/"+id+"/mount", `{"viewport":800,"tops":{"about":100,"experience":700,"education":1500,"skills":2200,"contact":2900}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"about", "experience"}, visibleIDs(t, w))

	w = postJSON(h, "/views/"+id+"/scroll", `{"viewport":800,"tops":{"about":-900,"experience":-300,"education":500,"skills":1200,"contact":1900}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"about", "experience", "education"}, visibleIDs(t, w))

	w = do(h, http.MethodPost, "/views/"+id+"/language", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="education" data-fade class="fade-in visible"`)
	assert.Contains(t, w.Body.String(), `id="skills" data-fade class="fade-in"`)

	w = do(h, http.MethodPost, "/views/"+id+"/unmount", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, s.views.Len())

	w = postJSON(h, "/views/"+id+"/scroll", `{"viewport":800,"tops":{"skills":10}}`)
	assert.Equal(t, http.StatusGone, w.Code)
	w = postJSON(h, "/views/"+id+"/mount", `{"viewport":800,"tops":{"skills":10}}`)
	assert.Equal(t, http.StatusGone, w.Code)
	w = do(h, http.MethodPost, "/views/"+id+"/theme", "", nil)
	assert.Equal(t, http.StatusGone, w.Code)

	w = do(h, http.MethodPost, "/views/"+id+"/unmount", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestScrollBeforeMountRevealsNothing(t *testing.T) {
	_, h := newTestServer(t, nil)
	id, _ := openView(t, h, "/")

	w := postJSON(h, "/views/"+id+"/scroll", `{"viewport":800,"tops":{"about":100}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, visibleIDs(t, w))
}

func TestLayoutAfterUnmountIsGone(t *testing.T) {
	s, h := newTestServer(t, nil)
	id, _ := openView(t, h, "/")

	pv, err := s.views.Get(id)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, postJSON(h, "/views/"+id+"/mount", `{"viewport":800,"tops":{"skills":2000}}`).Code)
	require.Equal(t, http.StatusNoContent, do(h, http.MethodPost, "/views/"+id+"/unmount", "", nil).Code)

	w := postJSON(h, "/views/"+id+"/scroll", `{"viewport":800,"tops":{"skills":100}}`)
	assert.Equal(t, http.StatusGone, w.Code)
	assert.False(t, pv.engine.Visible("skills"))
	assert.Equal(t, 0, pv.bus.Len())
}

func TestPageViewsAreCapped(t *testing.T) {
	s, h := newTestServer(t, func(o *Options) { o.Config.MaxViews = 3 })

	first, _ := openView(t, h, "/")
	for i := 0; i < 10; i++ {
		openView(t, h, "/")
	}
	assert.Equal(t, 3, s.views.Len())
	assert.EqualValues(t, 8, s.views.Evictions())

	w := postJSON(h, "/views/"+first+"/scroll", `{"viewport":800,"tops":{"about":100}}`)
	assert.Equal(t, http.StatusGone, w.Code)

	w = do(h, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","views":3,"evictions":8}`, w.Body.String())
}

func TestLayoutRejectsBadInput(t *testing.T) {
	_, h := newTestServer(t, nil)
	id, _ := openView(t, h, "/")

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "nope"},
		{name: "zero viewport", body: `{"viewport":0,"tops":{"about":1}}`},
		{name: "negative viewport", body: `{"viewport":-5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, postJSON(h, "/views/"+id+"/mount", tt.body).Code)
		})
	}

	assert.Equal(t, http.StatusNotFound, postJSON(h, "/views/nope/mount", `{"viewport":800}`).Code)
}

func TestContentJSON(t *testing.T) {
	_, h := newTestServer(t, nil)

	w := do(h, http.MethodGet, "/content/de", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var entry struct {
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
		Labels struct {
			About string `json:"about"`
		} `json:"labels"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, "Nikhil Chitrapu", entry.Profile.Name)
	assert.Equal(t, "Über mich", entry.Labels.About)

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/content/fr", "", nil).Code)
}

func TestResumeDownload(t *testing.T) {
	s, h := newTestServer(t, nil)

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/resume.pdf", "", nil).Code)

	require.NoError(t, os.WriteFile(s.cfg.ResumePath, []byte("%PDF-1.4"), 0o600))
	w := do(h, http.MethodGet, "/resume.pdf", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "resume.pdf")
}

func TestStaticAndHealth(t *testing.T) {
	_, h := newTestServer(t, nil)

	w := do(h, http.MethodGet, "/static/fade.js", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "data-fade")

	w = do(h, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","views":0,"evictions":0}`, w.Body.String())
}

func TestSweepInterval(t *testing.T) {
	assert.Equal(t, 15*time.Second, sweepInterval(time.Minute))
	assert.Equal(t, time.Second, sweepInterval(time.Second))
}
