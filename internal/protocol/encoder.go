// Package protocol packs a frame into the report sequence a keyboard's
// firmware expects: one open report, a fixed number of data reports carrying
// the key colours, and one close report.
package protocol

import (
	"errors"
	"fmt"

	"github.com/coreman2200/funtimes-keyglow/internal/color"
	"github.com/coreman2200/funtimes-keyglow/internal/layout"
)

// Report is one HID output report: the report ID followed by the payload.
type Report []byte

func (r Report) ID() byte        { return r[0] }
func (r Report) Payload() []byte { return r[1:] }

func newReport(id byte, size int) Report {
	r := make(Report, size+1)
	r[0] = id
	return r
}

// PacketFrame is everything written to the device for one frame.
type PacketFrame struct {
	Open  Report
	Data  []Report
	Close Report
}

// Reports returns open, data in ascending index, then close.
func (pf PacketFrame) Reports() []Report {
	out := make([]Report, 0, len(pf.Data)+2)
	out = append(out, pf.Open)
	out = append(out, pf.Data...)
	return append(out, pf.Close)
}

// Encoder maps frames of one layout onto one profile. It holds no per-frame
// state; every Encode allocates new reports.
type Encoder struct {
	profile Profile
	layout  *layout.Layout
}

const channels = 3

// NewEncoder checks that every key of l has its own slot inside a data report
// payload, clear of the header.
func NewEncoder(p Profile, l *layout.Layout) (*Encoder, error) {
	if p.PayloadSize <= 0 || p.DataPackets <= 0 {
		return nil, errors.New("profile needs a payload size and at least one data packet")
	}
	if len(p.Open) > p.PayloadSize || len(p.Close) > p.PayloadSize {
		return nil, fmt.Errorf("profile %s: open/close prefix exceeds payload", p.Name)
	}
	if l == nil {
		return nil, fmt.Errorf("%w: nil layout", layout.ErrMalformedLayout)
	}
	used := make([][]layout.KeyAddress, p.DataPackets)
	headers := make([]int, p.DataPackets)
	for i := range used {
		used[i] = make([]layout.KeyAddress, p.PayloadSize)
		if p.DataHeader != nil {
			headers[i] = len(p.DataHeader(i))
			if headers[i] > p.PayloadSize {
				return nil, fmt.Errorf("profile %s: header %d exceeds payload", p.Name, i)
			}
		}
	}
	for _, k := range l.Keys() {
		if k.Packet >= p.DataPackets {
			return nil, fmt.Errorf("%w: key %q in packet %d, profile has %d", layout.ErrMalformedLayout, k.Addr, k.Packet, p.DataPackets)
		}
		if k.Offset < headers[k.Packet] || k.Offset+channels > p.PayloadSize {
			return nil, fmt.Errorf("%w: key %q offset %#x outside packet %d key area", layout.ErrMalformedLayout, k.Addr, k.Offset, k.Packet)
		}
		for b := k.Offset; b < k.Offset+channels; b++ {
			if other := used[k.Packet][b]; other != "" {
				return nil, fmt.Errorf("%w: keys %q and %q overlap at packet %d byte %#x", layout.ErrMalformedLayout, other, k.Addr, k.Packet, b)
			}
			used[k.Packet][b] = k.Addr
		}
	}
	return &Encoder{profile: p, layout: l}, nil
}

func (e *Encoder) Profile() Profile       { return e.profile }
func (e *Encoder) Layout() *layout.Layout { return e.layout }

// CloseReport returns a fresh latch report on its own, for ending a session.
func (e *Encoder) CloseReport() Report {
	r := newReport(e.profile.ReportID, e.profile.PayloadSize)
	copy(r.Payload(), e.profile.Close)
	return r
}

// Encode packs f. Keys the frame does not carry encode as black.
func (e *Encoder) Encode(f layout.Frame) PacketFrame {
	p := e.profile
	pf := PacketFrame{
		Open:  newReport(p.ReportID, p.PayloadSize),
		Data:  make([]Report, p.DataPackets),
		Close: e.CloseReport(),
	}
	copy(pf.Open.Payload(), p.Open)
	for i := range pf.Data {
		pf.Data[i] = newReport(p.ReportID, p.PayloadSize)
		if p.DataHeader != nil {
			copy(pf.Data[i].Payload(), p.DataHeader(i))
		}
	}

	same := f.Layout() == e.layout
	for i, k := range e.layout.Keys() {
		var c color.Color
		switch {
		case same:
			c = f.At(i)
		case f.Layout() != nil:
			c, _ = f.Color(k.Addr)
		}
		payload := pf.Data[k.Packet].Payload()
		payload[k.Offset] = c.R
		payload[k.Offset+1] = c.G
		payload[k.Offset+2] = c.B
	}
	return pf
}
