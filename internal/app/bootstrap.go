package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-keyglow/internal/config"
	"github.com/coreman2200/funtimes-keyglow/internal/device"
	"github.com/coreman2200/funtimes-keyglow/internal/event"
	"github.com/coreman2200/funtimes-keyglow/internal/input"
	"github.com/coreman2200/funtimes-keyglow/internal/layout"
	"github.com/coreman2200/funtimes-keyglow/internal/protocol"
	"github.com/coreman2200/funtimes-keyglow/internal/render"
	"github.com/coreman2200/funtimes-keyglow/internal/scheme"
	"github.com/coreman2200/funtimes-keyglow/internal/transport"
	"github.com/coreman2200/funtimes-keyglow/internal/ws"
)

// Core is everything one lighting run needs, wired but not started.
type Core struct {
	Layout    *layout.Layout
	Queue     *event.Queue
	Engine    *render.Engine
	Encoder   *protocol.Encoder
	Transport transport.Transport
	Session   *device.Session
	Bridge    *input.Bridge
	Preview   *ws.State

	closers []io.Closer
}

// Model returns the layout and packet profile for a keyboard model name.
func Model(name string) (*layout.Layout, protocol.Profile, error) {
	switch name {
	case "", "ducky-one2-rgb":
		return layout.DuckyOne2RGB(), protocol.DuckyOne2RGB(), nil
	}
	return nil, protocol.Profile{}, fmt.Errorf("unknown keyboard model %q", name)
}

// Build wires cfg into a Core. Static defects (unknown schemes, bad masks,
// malformed layouts) fail here, never at run time.
func Build(cfg *config.Config, reg *scheme.Registry) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = scheme.Builtin()
	}
	l, profile, err := Model(cfg.Device.Model)
	if err != nil {
		return nil, err
	}
	if cfg.Device.VendorID != 0 {
		profile.VendorID = cfg.Device.VendorID
	}
	if cfg.Device.ProductID != 0 {
		profile.ProductID = cfg.Device.ProductID
	}
	if profile.Init, err = loadTraffic(cfg.Device.InitTraffic); err != nil {
		return nil, err
	}
	if profile.Exit, err = loadTraffic(cfg.Device.ExitTraffic); err != nil {
		return nil, err
	}
	enc, err := protocol.NewEncoder(profile, l)
	if err != nil {
		return nil, err
	}

	c := &Core{Layout: l, Encoder: enc, Queue: event.NewQueue(cfg.Input.QueueSize)}
	if c.Engine, err = render.NewEngine(l, c.Queue); err != nil {
		return nil, err
	}
	c.Engine.SetPost(render.DefaultPost(cfg.Brightness, render.LimiterConfig{
		WhiteCap: cfg.Power.WhiteCap,
		ChanMA:   cfg.Power.ChanMA,
		BudgetMA: cfg.Power.BudgetMA,
		Knee:     cfg.Power.Knee,
	}))
	if err := AddLayers(c.Engine, reg, cfg.Layers); err != nil {
		return nil, err
	}

	var name string
	c.Transport, name = selectTransport(cfg, profile)
	c.Session = device.New(c.Transport, c.Engine, enc, device.Options{
		Interval:     time.Second / time.Duration(cfg.FPS),
		WriteTimeout: time.Duration(cfg.Device.WriteTimeoutMs) * time.Millisecond,
		Name:         name,
	})

	if cfg.PreviewAddr != "" {
		c.Preview = ws.NewState(l, cfg.FPS, name)
		c.Preview.Track(c.Session, c.Engine)
		c.Session.Observe(c.Preview)
	}

	c.Bridge = input.NewBridge(c.Queue)
	if err := c.addSources(cfg); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// AddLayers builds each configured layer bottom first and stacks it.
func AddLayers(e *render.Engine, reg *scheme.Registry, layers []config.Layer) error {
	for i, lc := range layers {
		p, err := lc.Params()
		if err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		s, err := reg.New(lc.Scheme, p)
		if err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		mask := layout.All()
		if len(lc.Mask) > 0 {
			if mask, err = layout.ParseMask(e.Layout, lc.Mask); err != nil {
				return fmt.Errorf("layer %d: %w", i, err)
			}
		}
		mode, err := render.ParseMode(lc.Mode)
		if err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		opts := []render.LayerOption{render.WithMode(mode)}
		if lc.Name != "" {
			opts = append(opts, render.WithName(lc.Name))
		}
		if err := e.AddLayer(s, mask, opts...); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}

func loadTraffic(path string) ([]protocol.Report, error) {
	if path == "" {
		return nil, nil
	}
	return protocol.LoadTraffic(path)
}

func selectTransport(cfg *config.Config, p protocol.Profile) (transport.Transport, string) {
	switch cfg.Device.Transport {
	case "spi":
		return transport.NewSPI(cfg.Device.SPI.Dev, int64(cfg.Device.SPI.SpeedHz)), "spi"
	case "sim":
		return transport.NewSim(), "sim"
	}
	if !transport.HIDSupported() {
		log.Warn().Msg("hid not supported in this build, falling back to sim")
		return transport.NewSim(), "sim"
	}
	return transport.NewHID(p.UsagePage, p.Usage), "hid"
}

func (c *Core) addSources(cfg *config.Config) error {
	paths := cfg.Input.Evdev
	if len(paths) == 1 && paths[0] == "auto" {
		paths = input.KeyboardDevices()
		if len(paths) == 0 {
			log.Warn().Msg("no evdev keyboards found")
		}
	}
	for _, p := range paths {
		c.Bridge.Add(input.NewEvdev(p, c.Layout))
	}
	if m := cfg.Input.MIDI; m != nil {
		c.Bridge.Add(input.NewMIDI(m.Port, m.BaseNote, c.Layout))
	}
	if sp := cfg.Input.Spectrum; sp != nil {
		src := &input.Spectrum{Label: sp.Path, Raw: sp.Raw}
		if sp.Path == "-" {
			src.R = os.Stdin
		} else {
			f, err := os.Open(sp.Path)
			if err != nil {
				return fmt.Errorf("spectrum input: %w", err)
			}
			c.closers = append(c.closers, f)
			src.R = f
		}
		if !sp.Raw {
			_, cols := c.Layout.Grid()
			src.Analyzer = input.NewAnalyzer(cols)
			if sp.MapInMax > 0 {
				src.Analyzer.MapInMax = sp.MapInMax
			}
		}
		c.Bridge.Add(src)
	}
	return nil
}

// Close releases files opened for input sources.
func (c *Core) Close() {
	for _, cl := range c.closers {
		_ = cl.Close()
	}
	c.closers = nil
}
