package protocol

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-keyglow/internal/color"
	"github.com/coreman2200/funtimes-keyglow/internal/layout"
)

func ducky(t *testing.T) *Encoder {
	t.Helper()
	e, err := NewEncoder(DuckyOne2RGB(), layout.DuckyOne2RGB())
	require.NoError(t, err)
	return e
}

func TestDataHeaders(t *testing.T) {
	e := ducky(t)
	pf := e.Encode(layout.NewFrame(e.Layout()))
	require.Len(t, pf.Data, 8)

	tests := []struct {
		index int
		want  []byte
	}{
		{0, []byte{0x56, 0x42, 0x00, 0x00, 0x02, 0x12, 0x00}},
		{1, []byte{0x56, 0x42, 0x00, 0x00, 0x02, 0x12, 0x12}},
		{3, []byte{0x56, 0x42, 0x00, 0x00, 0x02, 0x12, 0x36}},
		{6, []byte{0x56, 0x42, 0x00, 0x00, 0x02, 0x12, 0x6c}},
		{7, []byte{0x56, 0x42, 0x00, 0x00, 0x02, 0x06, 0x7e}},
	}
	for _, tt := range tests {
		r := pf.Data[tt.index]
		if r.ID() != DuckyReportID {
			t.Errorf("data[%d] report id = %#x, want %#x", tt.index, r.ID(), DuckyReportID)
		}
		if got := r.Payload()[:len(tt.want)]; !bytes.Equal(got, tt.want) {
			t.Errorf("data[%d] header = % x, want % x", tt.index, got, tt.want)
		}
	}
}

func TestOpenAndClose(t *testing.T) {
	e := ducky(t)
	pf := e.Encode(layout.NewFrame(e.Layout()))

	wantOpen := make([]byte, 65)
	wantOpen[0], wantOpen[1], wantOpen[2] = 0x01, 0x41, 0x01
	wantClose := make([]byte, 65)
	copy(wantClose, []byte{0x01, 0x51, 0x28, 0x00, 0x00, 0xff})

	assert.Equal(t, wantOpen, []byte(pf.Open))
	assert.Equal(t, wantClose, []byte(pf.Close))
}

func TestEmptyFrameScenario(t *testing.T) {
	e := ducky(t)
	pf := e.Encode(layout.NewFrame(e.Layout()))

	reports := pf.Reports()
	require.Len(t, reports, 10)
	assert.Equal(t, pf.Open, reports[0])
	assert.Equal(t, pf.Close, reports[9])
	for i, d := range pf.Data {
		assert.Equal(t, d, reports[i+1])
		assert.Equal(t, byte(i*18), d.Payload()[6], "data reports in ascending order")
	}
	for i, r := range reports {
		require.Len(t, r, 65, "report %d", i)
	}
	for i, d := range pf.Data {
		for b, v := range d.Payload()[8:] {
			if v != 0 {
				t.Fatalf("data[%d] byte %#x = %#x, want 0", i, b+8, v)
			}
		}
	}
}

// Every key is written exactly once, at its slot, and nowhere else.
func TestEveryKeyOnceAtItsSlot(t *testing.T) {
	e := ducky(t)
	l := e.Layout()
	f := layout.NewFrame(l)
	for i := 0; i < f.Len(); i++ {
		f.Set(i, color.Color{R: byte(i + 1), G: 0xaa, B: byte(200 - i)})
	}
	pf := e.Encode(f)

	seen := map[byte]int{}
	for p, d := range pf.Data {
		payload := d.Payload()
		for off := 0x08; off+3 <= len(payload); off += 3 {
			if payload[off+1] == 0xaa {
				seen[payload[off]]++
				continue
			}
			assert.Equal(t, []byte{0, 0, 0}, []byte(payload[off:off+3]), "reserved slot %d/%#x", p, off)
		}
	}
	require.Len(t, seen, l.Len())
	for r, n := range seen {
		assert.Equal(t, 1, n, "key with red %d", r)
	}
	for i, k := range l.Keys() {
		got := pf.Data[k.Packet].Payload()[k.Offset : k.Offset+3]
		want := []byte{byte(i + 1), 0xaa, byte(200 - i)}
		if !bytes.Equal(got, want) {
			t.Errorf("%s at (%d, %#x) = % x, want % x", k.Addr, k.Packet, k.Offset, got, want)
		}
	}
}

func TestEncodeAllocatesFreshReports(t *testing.T) {
	e := ducky(t)
	lit := layout.NewFrame(e.Layout())
	for i := 0; i < lit.Len(); i++ {
		lit.Set(i, color.White)
	}
	first := e.Encode(lit)
	second := e.Encode(layout.NewFrame(e.Layout()))

	i, _ := e.Layout().Index("Escape")
	k := e.Layout().Key(i)
	assert.Equal(t, []byte{0xff, 0xff, 0xff}, []byte(first.Data[0].Payload()[k.Offset:k.Offset+3]))
	assert.Equal(t, []byte{0, 0, 0}, []byte(second.Data[0].Payload()[k.Offset:k.Offset+3]))

	second.Data[0].Payload()[k.Offset] = 7
	assert.Equal(t, byte(0xff), first.Data[0].Payload()[k.Offset])
}

func TestEncodeForeignLayoutByAddress(t *testing.T) {
	e := ducky(t)
	small, err := layout.New("small", []layout.Key{{Addr: "Q", Offset: 8}, {Addr: "Extra", Offset: 11}}, nil)
	require.NoError(t, err)
	f := layout.NewFrame(small)
	f.Set(0, color.Red)
	f.Set(1, color.Blue)

	pf := e.Encode(f)
	i, _ := e.Layout().Index("Q")
	q := e.Layout().Key(i)
	assert.Equal(t, []byte{0xff, 0, 0}, []byte(pf.Data[q.Packet].Payload()[q.Offset:q.Offset+3]))
	j, _ := e.Layout().Index("W")
	w := e.Layout().Key(j)
	assert.Equal(t, []byte{0, 0, 0}, []byte(pf.Data[w.Packet].Payload()[w.Offset:w.Offset+3]))
}

func TestNewEncoderRejectsMalformedLayouts(t *testing.T) {
	tests := []struct {
		name string
		keys []layout.Key
	}{
		{"packet out of range", []layout.Key{{Addr: "A", Packet: 8, Offset: 8}}},
		{"inside header", []layout.Key{{Addr: "A", Packet: 0, Offset: 4}}},
		{"past payload", []layout.Key{{Addr: "A", Packet: 0, Offset: 62}}},
		{"overlapping triples", []layout.Key{{Addr: "A", Offset: 8}, {Addr: "B", Offset: 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := layout.New("t", tt.keys, nil)
			require.NoError(t, err)
			_, err = NewEncoder(DuckyOne2RGB(), l)
			if !errors.Is(err, layout.ErrMalformedLayout) {
				t.Fatalf("err = %v, want ErrMalformedLayout", err)
			}
		})
	}

	_, err := NewEncoder(Profile{}, layout.DuckyOne2RGB())
	assert.Error(t, err)
	_, err = NewEncoder(DuckyOne2RGB(), nil)
	assert.ErrorIs(t, err, layout.ErrMalformedLayout)
}

func TestParseTraffic(t *testing.T) {
	in := strings.NewReader(`# init capture
O 0141010000
I 0100
O 01 51 28

`)
	got, err := ParseTraffic(in)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Report{0x01, 0x41, 0x01, 0x00, 0x00}, got[0])
	assert.Equal(t, byte(0x01), got[1].ID())
	assert.Equal(t, []byte{0x51, 0x28}, got[1].Payload())

	_, err = ParseTraffic(strings.NewReader("X 0102\n"))
	assert.Error(t, err)
	_, err = ParseTraffic(strings.NewReader("O zz\n"))
	assert.Error(t, err)
	_, err = LoadTraffic("/nonexistent/traffic.txt")
	assert.Error(t, err)
}
