package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-keyglow/internal/color"
	"github.com/coreman2200/funtimes-keyglow/internal/render"
	"github.com/coreman2200/funtimes-keyglow/internal/scheme"
)

type PowerCfg struct {
	WhiteCap float64 `yaml:"white_cap"`
	ChanMA   float64 `yaml:"chan_ma,omitempty"`
	BudgetMA float64 `yaml:"budget_ma,omitempty"`
	Knee     float64 `yaml:"knee,omitempty"`
}

type SPI struct {
	Dev     string `yaml:"dev"`      // e.g. /dev/spidev0.0
	SpeedHz int    `yaml:"speed_hz"` // e.g. 4000000
}

type Device struct {
	Model          string `yaml:"model"`
	Transport      string `yaml:"transport"` // "hid" | "spi" | "sim"
	VendorID       uint16 `yaml:"vendor_id,omitempty"`
	ProductID      uint16 `yaml:"product_id,omitempty"`
	WriteTimeoutMs int    `yaml:"write_timeout_ms"`
	// prepared traffic replayed once after connecting and before closing
	InitTraffic string `yaml:"init_traffic,omitempty"`
	ExitTraffic string `yaml:"exit_traffic,omitempty"`
	SPI         SPI    `yaml:"spi,omitempty"`
}

type MIDI struct {
	Port     string `yaml:"port"`
	BaseNote uint8  `yaml:"base_note"`
}

type Spectrum struct {
	Path     string  `yaml:"path"` // "-" reads stdin
	Raw      bool    `yaml:"raw,omitempty"`
	MapInMax float64 `yaml:"map_in_max,omitempty"`
}

type Input struct {
	// Evdev lists event nodes; "auto" picks every keyboard udev reports.
	Evdev     []string  `yaml:"evdev,omitempty"`
	MIDI      *MIDI     `yaml:"midi,omitempty"`
	Spectrum  *Spectrum `yaml:"spectrum,omitempty"`
	QueueSize int       `yaml:"queue_size"`
}

// Layer is one entry of the layer stack, bottom first.
type Layer struct {
	Name    string             `yaml:"name,omitempty"`
	Scheme  string             `yaml:"scheme"`
	Mask    []string           `yaml:"mask,omitempty"`
	Mode    string             `yaml:"mode,omitempty"`
	Colors  []string           `yaml:"colors,omitempty"`
	Stops   []float64          `yaml:"stops,omitempty"`
	Ease    string             `yaml:"ease,omitempty"`
	Pattern string             `yaml:"pattern,omitempty"`
	Params  map[string]float64 `yaml:"params,omitempty"`
	Flags   map[string]bool    `yaml:"flags,omitempty"`
}

type Config struct {
	Device      Device   `yaml:"device"`
	FPS         int      `yaml:"fps"`
	Brightness  float64  `yaml:"brightness"`
	Power       PowerCfg `yaml:"power"`
	Input       Input    `yaml:"input"`
	PreviewAddr string   `yaml:"preview_addr,omitempty"`
	LogLevel    string   `yaml:"log_level"`
	Layers      []Layer  `yaml:"layers"`
}

// Default is a Ducky One 2 RGB over HID with a flame base, starlight on the
// function row and space bar, and a blue press highlight.
func Default() *Config {
	return &Config{
		Device: Device{
			Model:          "ducky-one2-rgb",
			Transport:      "hid",
			WriteTimeoutMs: 50,
			SPI:            SPI{Dev: "/dev/spidev0.0", SpeedHz: 4_000_000},
		},
		FPS:        30,
		Brightness: 1,
		Power:      PowerCfg{WhiteCap: 1},
		Input:      Input{QueueSize: 256},
		LogLevel:   "info",
		Layers: []Layer{
			{
				Name: "flame_base", Scheme: "gradient", Mode: "overwrite",
				Colors: []string{"#ff0000", "#ffaf00"}, Stops: []float64{0, 1},
				Params: map[string]float64{"angle": 270},
				Flags:  map[string]bool{"hsv": true},
			},
			{
				Name: "flame_flicker", Scheme: "noise", Mode: "subtract",
				Colors: []string{"#000000", "#7f7f7f"},
				Params: map[string]float64{"speed": 1, "scale": 60},
			},
			{
				Name: "flame_dampen", Scheme: "gradient", Mode: "subtract",
				Colors: []string{"#b4b4b4", "#8282af", "#000000"}, Stops: []float64{0, 0.1, 1},
				Params: map[string]float64{"angle": 270},
			},
			{Name: "starlight", Scheme: "starlight", Mode: "overlay", Mask: []string{"function", "Space"}},
			{
				Name: "reactive_blue", Scheme: "reactive", Mode: "overlay",
				Colors: []string{"#5000ff"}, Params: map[string]float64{"decay": 0.4},
			},
		},
	}
}

// Load reads path over the defaults. A file without layers keeps the
// default stack.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	layers := c.Layers
	c.Layers = nil
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if c.Layers == nil {
		c.Layers = layers
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

var ErrInvalid = errors.New("invalid config")

// Validate checks values that do not need a layout or scheme registry.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, a ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, a...)...))
	}
	switch c.Device.Transport {
	case "hid", "spi", "sim":
	default:
		bad("device.transport %q (want hid, spi or sim)", c.Device.Transport)
	}
	if c.FPS <= 0 || c.FPS > 240 {
		bad("fps %d out of range 1..240", c.FPS)
	}
	if c.Brightness < 0 || c.Brightness > 1 {
		bad("brightness %.2f out of range 0..1", c.Brightness)
	}
	if c.Device.WriteTimeoutMs < 0 {
		bad("device.write_timeout_ms is negative")
	}
	if c.Input.QueueSize < 0 {
		bad("input.queue_size is negative")
	}
	for i, l := range c.Layers {
		if strings.TrimSpace(l.Scheme) == "" {
			bad("layers[%d]: scheme missing", i)
		}
		if _, err := l.Params(); err != nil {
			bad("layers[%d] %s: %v", i, l.Scheme, err)
		}
		if _, err := render.ParseMode(l.Mode); err != nil {
			bad("layers[%d] %s: %v", i, l.Scheme, err)
		}
	}
	return errors.Join(errs...)
}

// Params converts the loosely typed layer fields for a scheme constructor.
func (l Layer) Params() (scheme.Params, error) {
	p := scheme.Params{Floats: l.Params, Bools: l.Flags, Mode: l.Pattern, Stops: l.Stops}
	for k, v := range l.Params {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return p, fmt.Errorf("param %s: %v is not a finite number", k, v)
		}
	}
	for _, v := range l.Stops {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return p, fmt.Errorf("stop %v is not a finite number", v)
		}
	}
	for _, s := range l.Colors {
		c, err := color.Parse(s)
		if err != nil {
			return p, err
		}
		p.Colors = append(p.Colors, c)
	}
	if len(l.Stops) > 0 && len(l.Stops) != len(l.Colors) {
		return p, fmt.Errorf("%d stops for %d colors", len(l.Stops), len(l.Colors))
	}
	switch e := color.Ease(l.Ease); e {
	case "", color.EaseLinear, color.EaseSmooth, color.EaseSmoother:
		p.Ease = e
	default:
		return p, fmt.Errorf("unknown ease %q", l.Ease)
	}
	return p, nil
}
