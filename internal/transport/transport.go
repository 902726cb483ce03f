// Package transport moves encoded reports to a keyboard. The session treats
// every implementation as an opaque byte sink.
package transport

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// Transport opens a connection to the device identified by vendor and product id.
type Transport interface {
	Open(vendorID, productID uint16) (Conn, error)
}

// Conn is an open device handle. Write sends one report, report ID first.
// Close may be called while a timed out Write is still running.
type Conn interface {
	Write(report []byte) (int, error)
	Close() error
}

// guardedConn holds back the underlying Close while writes are in flight.
// Close during a write only marks the conn; the last write to return
// releases the device.
type guardedConn struct {
	conn Conn

	mu       sync.Mutex
	inflight int
	closed   bool
	released bool
}

func guard(c Conn) *guardedConn { return &guardedConn{conn: c} }

func (g *guardedConn) Write(report []byte) (int, error) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return 0, fmt.Errorf("write: %w", os.ErrClosed)
	}
	g.inflight++
	g.mu.Unlock()

	n, err := g.conn.Write(report)

	g.mu.Lock()
	g.inflight--
	rerr := g.releaseIfIdle()
	g.mu.Unlock()
	if rerr != nil && err == nil {
		err = rerr
	}
	return n, err
}

func (g *guardedConn) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return g.releaseIfIdle()
}

func (g *guardedConn) releaseIfIdle() error {
	if !g.closed || g.inflight > 0 || g.released {
		return nil
	}
	g.released = true
	return g.conn.Close()
}

var (
	// ErrOpen marks any failure to obtain a connection.
	ErrOpen        = errors.New("transport open failed")
	ErrNotFound    = errors.New("device not found")
	ErrUnsupported = errors.New("transport not supported on this platform")
)
