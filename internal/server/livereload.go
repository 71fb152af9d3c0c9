package server

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/metrics"
)

// Live-reload endpoints.
const (
	EventsPath = "/__livereload"
	ScriptPath = "/__livereload.js"
)

// Hub fans live-reload events out to connected browsers over server-sent events.
type Hub struct {
	mu       sync.Mutex
	nextID   int
	seq      int
	clients  map[int]*lrClient
	recorder metrics.Recorder
	closed   bool
}

type lrClient struct {
	ch   chan string
	done chan struct{}
}

// NewHub creates a hub. A nil recorder disables metrics.
func NewHub(recorder metrics.Recorder) *Hub {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Hub{clients: map[int]*lrClient{}, recorder: recorder}
}

// Clients returns the number of connected browsers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP implements the SSE endpoint.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	client := &lrClient{ch: make(chan string, 8), done: make(chan struct{})}
	id := h.nextID
	h.nextID++
	h.clients[id] = client
	h.recorder.SetLiveReloadClients(len(h.clients))
	h.mu.Unlock()
	defer h.remove(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	bw := bufio.NewWriter(w)
	send := func(s string) bool {
		if _, err := bw.WriteString(s); err != nil {
			slog.Debug("Livereload write failed", logfields.Error(err))
			return false
		}
		if err := bw.Flush(); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}
	if !send(": connected\n\n") {
		return
	}

	hb := time.NewTicker(30 * time.Second)
	defer hb.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case <-hb.C:
			if !send(": ping\n\n") {
				return
			}
		case msg := <-client.ch:
			if !send(msg) {
				return
			}
		}
	}
}

func (h *Hub) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
		h.recorder.SetLiveReloadClients(len(h.clients))
	}
}

// Broadcast sends kind ("css" or "reload") to every client. Clients that
// cannot keep up are dropped; they reconnect on their own.
func (h *Hub) Broadcast(kind string) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.seq++
	msg := fmt.Sprintf("data: {\"kind\":%q,\"seq\":%d}\n\n", kind, h.seq)
	var slow []int
	for id, c := range h.clients {
		select {
		case c.ch <- msg:
		default:
			slow = append(slow, id)
		}
	}
	n := len(h.clients)
	h.mu.Unlock()
	for _, id := range slow {
		h.remove(id)
	}
	slog.Debug("Livereload broadcast", logfields.Kind(kind), slog.Int("clients", n), slog.Int("dropped", len(slow)))
}

// Shutdown disconnects every client and ignores later broadcasts.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.done)
	}
	h.recorder.SetLiveReloadClients(0)
}

// ClientScript connects to the hub. CSS events swap stylesheet URLs in place;
// anything else reloads the page.
const ClientScript = `(() => {
  if (window.__PAGESMITH_LR__) return;
  window.__PAGESMITH_LR__ = true;
  function swapStyles() {
    const stamp = Date.now();
    document.querySelectorAll('link[rel="stylesheet"]').forEach((link) => {
      const url = new URL(link.href, location.href);
      url.searchParams.set('lr', stamp);
      link.href = url.toString();
    });
  }
  function connect() {
    const es = new EventSource('` + EventsPath + `');
    es.onmessage = (e) => {
      let msg;
      try { msg = JSON.parse(e.data); } catch (_) { return; }
      if (msg.kind === 'css') { swapStyles(); return; }
      location.reload();
    };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();
`
