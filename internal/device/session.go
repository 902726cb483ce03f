// Package device drives a keyboard: it runs the engine's tick loop, encodes
// every frame and writes the reports through a transport.
package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/funtimes-keyglow/internal/diagnostics"
	"github.com/coreman2200/funtimes-keyglow/internal/layout"
	"github.com/coreman2200/funtimes-keyglow/internal/protocol"
	"github.com/coreman2200/funtimes-keyglow/internal/render"
	"github.com/coreman2200/funtimes-keyglow/internal/transport"
)

var (
	ErrTransportOpen  = transport.ErrOpen
	ErrTransportWrite = errors.New("transport write failed")
	ErrWriteTimeout   = errors.New("transport write timed out")
)

const (
	DefaultInterval     = 33 * time.Millisecond
	DefaultWriteTimeout = 50 * time.Millisecond
)

type Options struct {
	Interval     time.Duration
	WriteTimeout time.Duration
	// Name labels the transport in logs and diagnostics.
	Name string
}

// Observer is notified on the tick goroutine; implementations must not block.
type Observer interface {
	FrameWritten(seq uint64, f layout.Frame)
	Diagnostic(d diag.Diagnostic)
}

// Session owns the connection for the lifetime of one Run.
type Session struct {
	ID string

	transport transport.Transport
	engine    *render.Engine
	encoder   *protocol.Encoder
	opts      Options
	log       zerolog.Logger

	mu        sync.Mutex
	observers []Observer

	conn       transport.Conn
	frames     atomic.Uint64
	reconnects atomic.Uint64
	running    atomic.Bool
}

func New(t transport.Transport, e *render.Engine, enc *protocol.Encoder, opts Options) *Session {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	id := uuid.New().String()
	return &Session{
		ID:        id,
		transport: t,
		engine:    e,
		encoder:   enc,
		opts:      opts,
		log:       log.With().Str("session", id).Logger(),
	}
}

func (s *Session) Observe(o Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

func (s *Session) Frames() uint64     { return s.frames.Load() }
func (s *Session) Reconnects() uint64 { return s.reconnects.Load() }
func (s *Session) Running() bool      { return s.running.Load() }
func (s *Session) Engine() *render.Engine {
	return s.engine
}

// Run opens the device and ticks until ctx is done, Stop is called or the
// transport fails twice in a row. The close report is attempted on every
// exit path that still holds a connection.
func (s *Session) Run(ctx context.Context) error {
	p := s.encoder.Profile()
	conn, err := s.transport.Open(p.VendorID, p.ProductID)
	if err != nil {
		s.log.Error().Err(err).Str("transport", s.opts.Name).Msg("open failed")
		return fmt.Errorf("%w: %w", ErrTransportOpen, err)
	}
	s.conn = conn
	s.running.Store(true)
	defer s.running.Store(false)
	defer s.teardown()

	s.log.Info().Str("transport", s.opts.Name).Str("profile", p.Name).Dur("interval", s.opts.Interval).Msg("session started")
	s.notify(diag.SessionStarted(s.ID, s.opts.Name))

	if err := s.sendReports(p.Init); err != nil {
		return s.fail(err)
	}

	s.engine.OnDrop = func(elapsed, budget time.Duration) {
		s.notify(diag.FrameDropped(elapsed, budget, s.engine.Dropped()))
	}
	err = s.engine.Run(ctx, s.opts.Interval, s.send)
	s.notify(diag.SessionStopped(s.ID, s.frames.Load(), err))
	return err
}

// Stop asks the engine to end the run after the current tick.
func (s *Session) Stop() { s.engine.Stop() }

func (s *Session) send(f layout.Frame) error {
	reports := s.encoder.Encode(f).Reports()
	if err := s.sendReports(reports); err != nil {
		return s.fail(err)
	}
	seq := s.frames.Add(1)
	s.mu.Lock()
	obs := append([]Observer(nil), s.observers...)
	s.mu.Unlock()
	for _, o := range obs {
		o.FrameWritten(seq, f)
	}
	return nil
}

// sendReports writes reports in order; on failure it reconnects once and
// resends the init stream followed by all of reports.
func (s *Session) sendReports(reports []protocol.Report) error {
	err := s.writeAll(reports)
	if err == nil {
		return nil
	}
	n := s.reconnects.Add(1)
	s.log.Warn().Err(err).Uint64("reconnects", n).Msg("write failed, reconnecting")
	s.notify(diag.Reconnect(err, n))

	if err := s.reconnect(); err != nil {
		return err
	}
	resend := append(append([]protocol.Report(nil), s.encoder.Profile().Init...), reports...)
	return s.writeAll(resend)
}

func (s *Session) fail(err error) error {
	err = fmt.Errorf("%w: %w", ErrTransportWrite, err)
	s.log.Error().Err(err).Msg("session terminated")
	s.notify(diag.Fatal(err))
	return err
}

func (s *Session) reconnect() error {
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.log.Debug().Err(err).Msg("close before reconnect")
		}
		s.conn = nil
	}
	p := s.encoder.Profile()
	conn, err := s.transport.Open(p.VendorID, p.ProductID)
	if err != nil {
		return fmt.Errorf("reconnect: %w", err)
	}
	s.conn = conn
	return nil
}

func (s *Session) writeAll(reports []protocol.Report) error {
	for i, r := range reports {
		if err := s.write(r); err != nil {
			return fmt.Errorf("report %d/%d: %w", i+1, len(reports), err)
		}
	}
	return nil
}

// write bounds a single report write by the write timeout. A timed out write
// is abandoned; the reconnect that follows closes its connection, and the
// transport releases the device once that write returns.
func (s *Session) write(r protocol.Report) error {
	conn := s.conn
	if conn == nil {
		return errors.New("no connection")
	}
	done := make(chan error, 1)
	go func() {
		n, err := conn.Write(r)
		if err == nil && n < len(r) {
			err = io.ErrShortWrite
		}
		done <- err
	}()
	timer := time.NewTimer(s.opts.WriteTimeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		return ErrWriteTimeout
	}
}

// teardown sends the close report and exit stream best effort, then releases
// the connection.
func (s *Session) teardown() {
	if s.conn == nil {
		return
	}
	p := s.encoder.Profile()
	closing := append([]protocol.Report{s.encoder.CloseReport()}, p.Exit...)
	for _, r := range closing {
		if err := s.write(r); err != nil {
			s.log.Warn().Err(err).Msg("close report not delivered")
			break
		}
	}
	if err := s.conn.Close(); err != nil {
		s.log.Debug().Err(err).Msg("close connection")
	}
	s.conn = nil
	s.log.Info().Uint64("frames", s.frames.Load()).Uint64("reconnects", s.reconnects.Load()).Msg("session closed")
}

func (s *Session) notify(d diag.Diagnostic) {
	s.mu.Lock()
	obs := append([]Observer(nil), s.observers...)
	s.mu.Unlock()
	for _, o := range obs {
		o.Diagnostic(d)
	}
}
