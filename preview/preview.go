// Package preview serves the latest SVG render over HTTP and pushes every
// new render to connected browsers over a websocket.
package preview

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wippyai/typworld/internal/logging"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Send pings to peer with this period. Must be less than pongWait.
	maxMessageSize = 512                 // Maximum message size allowed from peer.
	sendBufferSize = 8                   // Renders queued per session before it is dropped.
)

// Server is the preview HTTP server.
type Server struct {
	sessions map[*session]struct{}
	log      *zap.Logger
	upgrader websocket.Upgrader
	latest   string
	mu       sync.RWMutex
}

// New creates a server with an empty render.
func New() *Server {
	return &Server{
		sessions: make(map[*session]struct{}),
		log:      logging.Named("preview"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			// the preview is a local development tool
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP routes: "/" page shell, "/svg" latest render,
// "/ws" live updates.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/svg", s.handleSVG)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Publish stores svg as the latest render and pushes it to every session.
// Sessions too slow to keep up are disconnected.
func (s *Server) Publish(svg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = svg
	msg := []byte(svg)
	for sess := range s.sessions {
		select {
		case sess.send <- msg:
		default:
			s.log.Warn("dropping slow preview session", zap.String("remote_addr", sess.conn.RemoteAddr().String()))
			delete(s.sessions, sess)
			close(sess.send)
		}
	}
}

// Latest returns the most recently published render.
func (s *Server) Latest() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Sessions returns the number of connected websocket clients.
func (s *Server) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("preview server listening", zap.String("addr", addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.closeSessions()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func (s *Server) handleSVG(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(s.Latest()))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sess := &session{conn: conn, send: make(chan []byte, sendBufferSize)}
	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	if s.latest != "" {
		sess.send <- []byte(s.latest)
	}
	s.mu.Unlock()
	s.log.Debug("preview session opened", zap.String("remote_addr", conn.RemoteAddr().String()))

	go sess.writePump(s.log)
	sess.readPump(s.log)
	s.drop(sess)
}

func (s *Server) drop(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess]; ok {
		delete(s.sessions, sess)
		close(sess.send)
	}
}

func (s *Server) closeSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sess := range s.sessions {
		delete(s.sessions, sess)
		close(sess.send)
	}
}

// session is one connected browser.
type session struct {
	conn *websocket.Conn
	send chan []byte
}

// readPump discards client messages and returns when the peer goes away.
func (s *session) readPump(log *zap.Logger) {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("preview session read error", zap.Error(err))
			}
			return
		}
	}
}

// writePump is the only writer of the connection.
func (s *session) writePump(log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug("preview write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>typworld preview</title>
<style>body{margin:0;background:#888}#doc svg{display:block;margin:16px auto;background:#fff}</style>
</head>
<body>
<div id="doc"></div>
<script>
const doc = document.getElementById("doc");
fetch("/svg").then(r => r.text()).then(t => { doc.innerHTML = t; });
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.onmessage = e => { doc.innerHTML = e.data; };
</script>
</body>
</html>
`
