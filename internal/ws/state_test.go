package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-keyglow/internal/color"
	diag "github.com/coreman2200/funtimes-keyglow/internal/diagnostics"
	"github.com/coreman2200/funtimes-keyglow/internal/layout"
	"github.com/coreman2200/funtimes-keyglow/internal/render"
)

type fakeStats struct{}

func (fakeStats) Frames() uint64     { return 7 }
func (fakeStats) Reconnects() uint64 { return 1 }
func (fakeStats) Running() bool      { return true }

func serve(t *testing.T) (*State, *httptest.Server) {
	t.Helper()
	s := NewState(layout.DuckyOne2RGB(), 30, "sim")
	srv := httptest.NewServer(s.Handler())
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return s, srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	c.SetReadDeadline(time.Now().Add(2 * time.Second))
	return c
}

func TestFrameStream(t *testing.T) {
	s, srv := serve(t)
	c := dial(t, srv, "/ws/frames")

	var top map[string]any
	require.NoError(t, c.ReadJSON(&top))
	assert.Equal(t, "ducky-one2-rgb", top["layout"])
	assert.Len(t, top["keys"], 108)

	f := layout.NewFrame(s.Layout)
	f.Set(0, color.Red)
	s.FrameWritten(3, f)

	var msg frameMsg
	require.NoError(t, c.ReadJSON(&msg))
	assert.Equal(t, uint64(3), msg.FrameID)
	require.Len(t, msg.Colors, 108)
	assert.Equal(t, "#ff0000", msg.Colors[0])
	assert.Equal(t, "#000000", msg.Colors[1])
}

func TestDiagStreamReplaysRecent(t *testing.T) {
	s, srv := serve(t)
	s.Diagnostic(diag.SessionStarted("abc", "sim"))
	// let the broadcaster consume the first one before anyone listens
	require.Eventually(t, func() bool { return len(s.diags) == 0 }, time.Second, time.Millisecond)

	c := dial(t, srv, "/ws/diag")
	var d diag.Diagnostic
	require.NoError(t, c.ReadJSON(&d))
	assert.Equal(t, diag.CodeSessionStarted, d.Code)

	s.Diagnostic(diag.FrameDropped(40*time.Millisecond, 33*time.Millisecond, 1))
	// the first push may still be in flight and arrive twice
	for i := 0; i < 2 && d.Code != diag.CodeFrameDropped; i++ {
		require.NoError(t, c.ReadJSON(&d))
	}
	assert.Equal(t, diag.CodeFrameDropped, d.Code)
}

func TestHealth(t *testing.T) {
	s, srv := serve(t)
	e, err := render.NewEngine(s.Layout, nil)
	require.NoError(t, err)
	s.Track(fakeStats{}, e)
	s.FrameWritten(9, layout.NewFrame(s.Layout))

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	var h map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	assert.Equal(t, 9.0, h["frame_id"])
	assert.Equal(t, 7.0, h["frames"])
	assert.Equal(t, 1.0, h["reconnects"])
	assert.Equal(t, "idle", h["state"])
	assert.Equal(t, "sim", h["transport"])
}

func TestLayoutEndpoint(t *testing.T) {
	_, srv := serve(t)
	resp, err := http.Get(srv.URL + "/layout")
	require.NoError(t, err)
	defer resp.Body.Close()
	var top struct {
		Rows int       `json:"rows"`
		Cols int       `json:"cols"`
		Keys []keyInfo `json:"keys"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&top))
	assert.Equal(t, 6, top.Rows)
	assert.Equal(t, 21, top.Cols)
	assert.Equal(t, layout.KeyAddress("Escape"), top.Keys[0].Addr)
	assert.Equal(t, 0x08, top.Keys[0].Offset)
}

func TestCORSPreflight(t *testing.T) {
	s := NewState(layout.DuckyOne2RGB(), 30, "sim")
	rec := httptest.NewRecorder()
	withCORS(s.Handler()).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStuckClientDoesNotBlockWriters(t *testing.T) {
	s := NewState(layout.DuckyOne2RGB(), 30, "sim")
	// unbuffered and never read: every queue attempt must fall through
	stuck := &client{send: make(chan []byte)}
	s.clients[stuck] = true
	s.diagClients[stuck] = true

	f := layout.NewFrame(s.Layout)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := uint64(0); i < 50; i++ {
			s.FrameWritten(i, f)
			s.broadcastFrame()
			d := diag.FrameDropped(40*time.Millisecond, 33*time.Millisecond, i)
			s.Diagnostic(d)
			s.pushDiag(d)
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("frame and diagnostic writers blocked on a stuck client")
	}
	assert.Equal(t, uint64(100), stuck.dropped.Load())
}

func TestHealthWhileRendering(t *testing.T) {
	s, srv := serve(t)
	e, err := render.NewEngine(s.Layout, nil)
	require.NoError(t, err)
	s.Track(fakeStats{}, e)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, time.Millisecond, nil) }()

	for i := 0; i < 5; i++ {
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		var h map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
		resp.Body.Close()
		assert.Contains(t, h, "render_ms")
	}
	cancel()
	require.NoError(t, <-done)
}
