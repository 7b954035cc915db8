// Package preview serves what the panel shows over HTTP: a PNG snapshot, the
// playback status and a websocket stream of both.
package preview

import (
	"bytes"
	"encoding/json"
	"image/png"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/holocube/internal/render"
	"github.com/relabs-tech/holocube/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local network tool
	},
}

// Snapshotter returns a copy of the panel contents.
type Snapshotter interface {
	Snapshot() *render.RGB565
}

// Server streams panel snapshots.
type Server struct {
	screen   Snapshotter
	status   func() telemetry.PlaybackStatus
	interval time.Duration
}

// WSResponse is the text message sent before every streamed frame.
type WSResponse struct {
	Type   string                   `json:"type"` // status
	Status telemetry.PlaybackStatus `json:"status"`
	Width  int                      `json:"width"`
	Height int                      `json:"height"`
}

func New(screen Snapshotter, status func() telemetry.PlaybackStatus, interval time.Duration) *Server {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &Server{screen: screen, status: status, interval: interval}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/playback", s.handlePlayback)
	mux.HandleFunc("/api/frame.png", s.handleFrame)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// ListenAndServe blocks serving on addr.
func (s *Server) ListenAndServe(addr string) error {
	log.Printf("preview: listening on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.status()); err != nil {
		log.Printf("preview: json encode error: %v", err)
	}
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	b, err := s.encode()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(b)
}

func (s *Server) encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.screen.Snapshot()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("preview: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// reader goroutine only to notice the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.push(conn); err != nil {
			log.Printf("preview: websocket write error: %v", err)
			return
		}
		select {
		case <-closed:
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) push(conn *websocket.Conn) error {
	img := s.screen.Snapshot()
	msg := WSResponse{
		Type:   "status",
		Status: s.status(),
		Width:  img.Rect.Dx(),
		Height: img.Rect.Dy(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.BinaryMessage, buf.Bytes())
}
