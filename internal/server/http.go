// Package server serves the decorated live preview over HTTP and pushes
// updates to open browsers through a websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/mithrel/docgen/internal/render"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 8
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Update is pushed to websocket clients after every render.
type Update struct {
	Section string `json:"section"`
	HTML    string `json:"html"`
}

type client struct {
	send chan Update
}

// Server holds the latest preview and the connected browsers.
type Server struct {
	renderer *render.Renderer
	log      *log.Logger
	router   chi.Router

	mu      sync.RWMutex
	current Update
	clients map[*client]struct{}

	httpServer *http.Server
}

// New returns a preview server rendering with r.
func New(r *render.Renderer, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{
		renderer: r,
		log:      logger,
		clients:  make(map[*client]struct{}),
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/", s.handlePage)
	r.Get("/preview", s.handleFragment)
	r.Get("/ws", s.handleWebSocket)
	return r
}

// Router returns the http.Handler with registered routes.
func (s *Server) Router() http.Handler { return s.router }

// Current returns the latest rendered preview.
func (s *Server) Current() Update {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Publish renders markdown for a section and broadcasts it. Clients that
// cannot keep up are disconnected.
func (s *Server) Publish(section, markdown string) error {
	html, err := s.renderer.HTML(markdown)
	if err != nil {
		return err
	}
	u := Update{Section: section, HTML: html}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = u
	for c := range s.clients {
		select {
		case c.send <- u:
		default:
			s.log.Printf("server: dropping slow preview client")
			delete(s.clients, c)
			close(c.send)
		}
	}
	return nil
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleFragment(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, s.Current().HTML)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	cur := s.Current()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, pageData{Section: cur.Section, Preview: template.HTML(cur.HTML)}); err != nil {
		s.log.Printf("server: render page: %v", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("server: websocket upgrade: %v", err)
		return
	}
	c := &client{send: make(chan Update, sendBuffer)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	if s.current.Section != "" || s.current.HTML != "" {
		c.send <- s.current
	}
	s.mu.Unlock()

	go s.writeLoop(conn, c)
	s.readLoop(conn, c)
}

// readLoop only tracks liveness; browsers never send data.
func (s *Server) readLoop(conn *websocket.Conn, c *client) {
	defer s.remove(c)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Printf("server: websocket read: %v", err)
			}
			return
		}
	}
}

func (s *Server) writeLoop(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case u, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			b, err := json.Marshal(u)
			if err != nil {
				s.log.Printf("server: encode update: %v", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				s.log.Printf("server: websocket write: %v", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

// Serve listens on addr until ctx is cancelled. The bound address is sent
// on ready once listening, which lets callers pass ":0".
func (s *Server) Serve(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if ready != nil {
		ready(ln.Addr())
	}
	s.log.Printf("server: preview listening on %s", ln.Addr())

	errc := make(chan error, 1)
	go func() { errc <- s.httpServer.Serve(ln) }()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.closeClients()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
}
