// Package ws serves a live preview of the frames written to the keyboard,
// a diagnostics stream and a health endpoint.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/funtimes-keyglow/internal/diagnostics"
	"github.com/coreman2200/funtimes-keyglow/internal/layout"
	"github.com/coreman2200/funtimes-keyglow/internal/render"
)

const (
	recentDiags = 32
	// clientBacklog holds a full diagnostics replay plus a few live messages.
	clientBacklog = 2 * recentDiags
	writeWait     = 200 * time.Millisecond
)

// client owns one socket. Only writeLoop writes to conn; everyone else queues
// and drops when the backlog is full.
type client struct {
	conn    *websocket.Conn
	send    chan []byte
	dropped atomic.Uint64
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn, send: make(chan []byte, clientBacklog)}
}

func (c *client) queue(b []byte) {
	select {
	case c.send <- b:
	default:
		c.dropped.Add(1)
	}
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for b := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("preview write")
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}

// Stats is the part of a device session the health endpoint reports.
type Stats interface {
	Frames() uint64
	Reconnects() uint64
	Running() bool
}

type State struct {
	mu        sync.RWMutex
	Layout    *layout.Layout
	FPS       int
	Transport string

	stats  Stats
	engine *render.Engine

	colors      []string
	frameID     uint64
	startTime   time.Time
	clients     map[*client]bool
	diagClients map[*client]bool
	recent      []diag.Diagnostic

	frameReady chan struct{}
	diags      chan diag.Diagnostic
}

func NewState(l *layout.Layout, fps int, transport string) *State {
	return &State{
		Layout:      l,
		FPS:         fps,
		Transport:   transport,
		colors:      make([]string, l.Len()),
		startTime:   time.Now(),
		clients:     map[*client]bool{},
		diagClients: map[*client]bool{},
		frameReady:  make(chan struct{}, 1),
		diags:       make(chan diag.Diagnostic, 64),
	}
}

// Track sets where health counters come from.
func (s *State) Track(st Stats, e *render.Engine) {
	s.mu.Lock()
	s.stats, s.engine = st, e
	s.mu.Unlock()
}

// FrameWritten records the frame and wakes the broadcaster. It never blocks
// the tick goroutine; slow clients only ever see the newest frame.
func (s *State) FrameWritten(seq uint64, f layout.Frame) {
	s.mu.Lock()
	for i := 0; i < f.Len() && i < len(s.colors); i++ {
		s.colors[i] = f.At(i).String()
	}
	s.frameID = seq
	s.mu.Unlock()
	select {
	case s.frameReady <- struct{}{}:
	default:
	}
}

func (s *State) Diagnostic(d diag.Diagnostic) {
	s.mu.Lock()
	s.recent = append(s.recent, d)
	if len(s.recent) > recentDiags {
		s.recent = s.recent[len(s.recent)-recentDiags:]
	}
	s.mu.Unlock()
	select {
	case s.diags <- d:
	default:
		log.Debug().Str("code", d.Code).Msg("diagnostic stream full")
	}
}

// Run broadcasts frames and diagnostics until ctx is done.
func (s *State) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.frameReady:
			s.broadcastFrame()
		case d := <-s.diags:
			s.pushDiag(d)
		}
	}
}

// Handler routes the preview endpoints.
func (s *State) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/frames", s.HandleFramesWS)
	mux.HandleFunc("/ws/diag", s.HandleDiagWS)
	mux.HandleFunc("/health", s.HandleHealth)
	mux.HandleFunc("/layout", s.HandleLayout)
	return mux
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := newClient(conn)
	top, _ := json.Marshal(s.topology())
	// greeted before registration completes so no frame overtakes it
	s.mu.Lock()
	c.queue(top)
	s.clients[c] = true
	s.mu.Unlock()
	go c.writeLoop()
	go s.drain(c, s.clients)
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := newClient(conn)
	s.mu.Lock()
	for _, d := range s.recent {
		b, _ := json.Marshal(d)
		c.queue(b)
	}
	s.diagClients[c] = true
	s.mu.Unlock()
	go c.writeLoop()
	go s.drain(c, s.diagClients)
}

// drain reads until the client goes away, then forgets it and stops its
// writer.
func (s *State) drain(c *client, set map[*client]bool) {
	defer func() {
		s.mu.Lock()
		delete(set, c)
		close(c.send)
		s.mu.Unlock()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp := map[string]any{
		"frame_id":  s.frameID,
		"uptime_s":  time.Since(s.startTime).Seconds(),
		"keys":      s.Layout.Len(),
		"layout":    s.Layout.Name(),
		"fps":       s.FPS,
		"transport": s.Transport,
	}
	if s.stats != nil {
		resp["frames"] = s.stats.Frames()
		resp["reconnects"] = s.stats.Reconnects()
		resp["running"] = s.stats.Running()
	}
	if s.engine != nil {
		resp["dropped"] = s.engine.Dropped()
		resp["state"] = s.engine.State().String()
		resp["render_ms"] = s.engine.Last().TotalMS
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type keyInfo struct {
	Addr   layout.KeyAddress `json:"addr"`
	Packet int               `json:"packet"`
	Offset int               `json:"offset"`
	Row    int               `json:"row"`
	Col    int               `json:"col"`
	HasPos bool              `json:"has_pos"`
}

func (s *State) topology() map[string]any {
	rows, cols := s.Layout.Grid()
	keys := make([]keyInfo, 0, s.Layout.Len())
	for _, k := range s.Layout.Keys() {
		keys = append(keys, keyInfo{Addr: k.Addr, Packet: k.Packet, Offset: k.Offset, Row: k.Row, Col: k.Col, HasPos: k.HasPos})
	}
	return map[string]any{
		"layout":    s.Layout.Name(),
		"rows":      rows,
		"cols":      cols,
		"keys":      keys,
		"transport": s.Transport,
	}
}

func (s *State) HandleLayout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.topology())
}

type frameMsg struct {
	T       int64    `json:"t"`
	FrameID uint64   `json:"frame_id"`
	Colors  []string `json:"colors"`
}

// broadcastFrame and pushDiag only queue; a client that cannot keep up
// loses messages instead of holding the lock.
func (s *State) broadcastFrame() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, _ := json.Marshal(frameMsg{T: time.Now().UnixNano(), FrameID: s.frameID, Colors: s.colors})
	for c := range s.clients {
		c.queue(b)
	}
}

func (s *State) pushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.diagClients {
		c.queue(b)
	}
}

// Serve listens on addr until ctx is done.
func (s *State) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           withCORS(s.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go s.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	log.Info().Str("addr", addr).Msg("preview server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
