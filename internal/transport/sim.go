package transport

import (
	"encoding/hex"
	"sync"

	"github.com/rs/zerolog/log"
)

// Sim accepts every report and keeps counters. Used when no keyboard is
// attached and for previews.
type Sim struct {
	mu     sync.Mutex
	opens  int
	writes int
	last   []byte
}

func NewSim() *Sim { return &Sim{} }

func (s *Sim) Open(vendorID, productID uint16) (Conn, error) {
	s.mu.Lock()
	s.opens++
	s.mu.Unlock()
	log.Info().Uint16("vid", vendorID).Uint16("pid", productID).Msg("sim transport opened")
	return &simConn{s: s}, nil
}

// Stats returns how many times the sim was opened and written to.
func (s *Sim) Stats() (opens, writes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens, s.writes
}

// Last returns a copy of the last report written.
func (s *Sim) Last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.last...)
}

type simConn struct{ s *Sim }

func (c *simConn) Write(report []byte) (int, error) {
	c.s.mu.Lock()
	c.s.writes++
	c.s.last = append(c.s.last[:0], report...)
	c.s.mu.Unlock()
	if e := log.Trace(); e.Enabled() {
		e.Str("report", hex.EncodeToString(report)).Msg("sim write")
	}
	return len(report), nil
}

func (c *simConn) Close() error { return nil }
