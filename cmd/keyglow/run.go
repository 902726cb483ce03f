package main

import (
	"context"
	"errors"
	"io/fs"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-keyglow/internal/app"
	"github.com/coreman2200/funtimes-keyglow/internal/config"
)

var runFlags struct {
	transport  string
	fps        int
	brightness float64
	preview    string
	evdev      []string
	midiPort   string
	spectrum   string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive the keyboard with the configured layer stack",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyRunFlags(cmd, cfg)
		if logLevel == "" && cfg.LogLevel != "" {
			if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
				zerolog.SetGlobalLevel(lvl)
			}
		}

		core, err := app.Build(cfg, nil)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		log.Info().Str("session", core.Session.ID).Int("layers", len(core.Engine.Layers())).Int("fps", cfg.FPS).Msg("starting")
		err = core.Run(ctx, cfg.PreviewAddr)
		log.Info().Uint64("frames", core.Session.Frames()).Uint64("dropped", core.Engine.Dropped()).Msg("shut down")
		return err
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.transport, "transport", "", "hid | spi | sim")
	f.IntVar(&runFlags.fps, "fps", 0, "ticks per second")
	f.Float64Var(&runFlags.brightness, "brightness", 0, "global brightness 0..1")
	f.StringVar(&runFlags.preview, "preview", "", "preview/health listen address, e.g. :8080")
	f.StringSliceVar(&runFlags.evdev, "evdev", nil, "keyboard event nodes, or \"auto\"")
	f.StringVar(&runFlags.midiPort, "midi", "", "MIDI input port name")
	f.StringVar(&runFlags.spectrum, "spectrum", "", "spectrum frames file, \"-\" for stdin")
}

// loadConfig reads the config file, or the defaults when it does not exist.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", configPath).Msg("config not found, using defaults")
		return config.Default(), nil
	}
	return cfg, err
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("transport") {
		cfg.Device.Transport = runFlags.transport
	}
	if f.Changed("fps") {
		cfg.FPS = runFlags.fps
	}
	if f.Changed("brightness") {
		cfg.Brightness = runFlags.brightness
	}
	if f.Changed("preview") {
		cfg.PreviewAddr = runFlags.preview
	}
	if f.Changed("evdev") {
		cfg.Input.Evdev = runFlags.evdev
	}
	if f.Changed("midi") {
		if cfg.Input.MIDI == nil {
			cfg.Input.MIDI = &config.MIDI{BaseNote: 36}
		}
		cfg.Input.MIDI.Port = runFlags.midiPort
	}
	if f.Changed("spectrum") {
		cfg.Input.Spectrum = &config.Spectrum{Path: runFlags.spectrum}
	}
}

