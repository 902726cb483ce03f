package transport

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// SPI sends reports to a bridge microcontroller on an SPI bus that forwards
// them to the keyboard. Vendor and product ids are not used on this bus.
type SPI struct {
	Port string
	Freq physic.Frequency

	open func(name string) (spi.PortCloser, error)
}

// NewSPI targets a periph port name such as "/dev/spidev0.0" or "" for the
// first available bus.
func NewSPI(port string, hz int64) *SPI {
	return NewSPIWithOpener(port, hz, openSPIPort)
}

// NewSPIWithOpener uses open instead of the periph registry.
func NewSPIWithOpener(port string, hz int64, open func(string) (spi.PortCloser, error)) *SPI {
	if hz <= 0 {
		hz = 4_000_000
	}
	return &SPI{Port: port, Freq: physic.Frequency(hz) * physic.Hertz, open: open}
}

func openSPIPort(name string) (spi.PortCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph init: %w", err)
	}
	return spireg.Open(name)
}

func (s *SPI) Open(_, _ uint16) (Conn, error) {
	p, err := s.open(s.Port)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", s.Port, err)
	}
	c, err := p.Connect(s.Freq, spi.Mode0, 8)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("spi connect: %w", err)
	}
	return guard(&spiConn{port: p, conn: c}), nil
}

type spiConn struct {
	port spi.PortCloser
	conn spi.Conn
}

func (c *spiConn) Write(report []byte) (int, error) {
	if err := c.conn.Tx(report, nil); err != nil {
		return 0, fmt.Errorf("spi tx: %w", err)
	}
	return len(report), nil
}

func (c *spiConn) Close() error { return c.port.Close() }
