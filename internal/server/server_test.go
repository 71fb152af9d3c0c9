package server

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	"git.home.luguber.info/inful/pagesmith/internal/metrics"
)

func site(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":       "<html><body><h1>home</h1></body></html>",
		"about/index.html": "<html><body>about</body></html>",
		"css/app.min.css":  "body{color:red}",
	}
	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	}
	return dir
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServesPagesWithInjectedScript(t *testing.T) {
	s := New(config.ServerConfig{}, site(t), Options{Hub: NewHub(nil)})
	h := s.Handler()

	rec := get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<h1>home</h1><script async src="/__livereload.js"></script></body>`)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-cache")

	rec = get(t, h, "/about/")
	assert.Contains(t, rec.Body.String(), ScriptPath)

	rec = get(t, h, "/css/app.min.css")
	assert.Equal(t, "body{color:red}", rec.Body.String())

	rec = get(t, h, ScriptPath)
	assert.Contains(t, rec.Body.String(), "EventSource('"+EventsPath+"')")
	assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")
}

func TestNoInjectionWithoutHub(t *testing.T) {
	h := New(config.ServerConfig{}, site(t), Options{}).Handler()
	rec := get(t, h, "/")
	assert.NotContains(t, rec.Body.String(), ScriptPath)
	assert.Equal(t, http.StatusNotFound, get(t, h, ScriptPath).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	rec.IncLiveReload("css")
	h := New(config.ServerConfig{}, site(t), Options{Metrics: metrics.HTTPHandler(reg), Hub: NewHub(rec)}).Handler()

	health := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, health.Code)
	assert.Contains(t, health.Body.String(), `"status":"ok"`)

	m := get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), "livereload")
}

func TestHubBroadcastOverSSE(t *testing.T) {
	hub := NewHub(nil)
	s := New(config.ServerConfig{}, site(t), Options{Hub: hub})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + EventsPath)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
	hub.Broadcast("css")

	lines := make(chan string, 8)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "stream closed early")
			if strings.HasPrefix(line, "data: ") {
				assert.Equal(t, `data: {"kind":"css","seq":1}`, line)
				hub.Shutdown()
				return
			}
		case <-deadline:
			t.Fatal("no live-reload event received")
		}
	}
}

func TestHubShutdownRejectsNewClients(t *testing.T) {
	hub := NewHub(nil)
	hub.Shutdown()
	hub.Broadcast("reload")
	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, EventsPath, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStartStop(t *testing.T) {
	s := New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, site(t), Options{Hub: NewHub(nil)})
	require.NoError(t, s.Start(context.Background()))
	resp, err := http.Get("http://" + s.Addr() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, string(body), "home")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestInjectorWritesScriptBeforeBodyClose(t *testing.T) {
	big := strings.Repeat("x", 100)
	h := injectScript(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<body>" + big + "</body>"))
	}))
	rec := get(t, h, "/")
	assert.Contains(t, rec.Body.String(), string(scriptTag)+"</body>")
}
