package input

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-keyglow/internal/color"
	"github.com/coreman2200/funtimes-keyglow/internal/event"
)

// DefaultMapInMax is the normalised segment average that maps to a full bar.
const DefaultMapInMax = 0.4

// Analyzer reduces FFT magnitude frames to column heights in [0,1]. Frames
// are normalised against the running maximum, split into equal segments and
// averaged.
type Analyzer struct {
	Columns  int
	MapInMax float64

	max float64
}

func NewAnalyzer(columns int) *Analyzer {
	return &Analyzer{Columns: columns, MapInMax: DefaultMapInMax}
}

// Heights returns one height per column. Columns past the end of a short
// frame are zero.
func (a *Analyzer) Heights(mags []float64) []float64 {
	out := make([]float64, a.Columns)
	if a.Columns <= 0 || len(mags) == 0 {
		return out
	}
	for _, m := range mags {
		if m > a.max {
			a.max = m
		}
	}
	if a.max <= 0 {
		return out
	}
	step := len(mags) / a.Columns
	if step < 1 {
		step = 1
	}
	for c := range out {
		lo, hi := c*step, (c+1)*step
		if lo >= len(mags) {
			break
		}
		if hi > len(mags) {
			hi = len(mags)
		}
		var sum float64
		for _, m := range mags[lo:hi] {
			sum += m / a.max
		}
		h := color.MapRange(sum/float64(hi-lo), 0, a.MapInMax, 0, 1)
		out[c] = clamp01(h)
	}
	return out
}

// Reset forgets the running maximum.
func (a *Analyzer) Reset() { a.max = 0 }

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Spectrum reads one magnitude frame per line from R and emits the analysed
// heights as amplitude samples. Values may be separated by spaces, commas or
// semicolons. With Raw set the values are already heights in [0,1].
type Spectrum struct {
	Label    string
	R        io.Reader
	Analyzer *Analyzer
	Raw      bool
}

func (s *Spectrum) Name() string { return "spectrum:" + s.Label }

func (s *Spectrum) Run(ctx context.Context, emit Emit) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		var err error
		defer func() {
			errc <- err
			close(lines)
		}()
		sc := bufio.NewScanner(s.R)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		err = sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-errc; err != nil && ctx.Err() == nil {
					return fmt.Errorf("spectrum %s: %w", s.Label, err)
				}
				return nil
			}
			s.handle(line, emit)
		}
	}
}

func (s *Spectrum) handle(line string, emit Emit) {
	vals, err := parseFrame(line)
	if err != nil {
		log.Warn().Err(err).Str("source", s.Name()).Msg("bad spectrum frame")
		return
	}
	if len(vals) == 0 {
		return
	}
	if !s.Raw && s.Analyzer != nil {
		vals = s.Analyzer.Heights(vals)
	}
	emit(event.Sample(vals, time.Now()))
}

func parseFrame(line string) ([]float64, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ',' || r == ';'
	})
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", f, err)
		}
		out = append(out, v)
	}
	return out, nil
}
