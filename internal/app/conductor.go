package app

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/funtimes-keyglow/internal/diagnostics"
)

// Run starts the preview server and input sources, then drives the session
// until ctx is done or the session fails. Input and preview stop with it.
func (c *Core) Run(ctx context.Context, previewAddr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.Close()

	var wg sync.WaitGroup
	if c.Preview != nil && previewAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Preview.Serve(ctx, previewAddr); err != nil {
				log.Error().Err(err).Msg("preview server")
			}
		}()
	}
	if c.Preview != nil {
		c.Bridge.OnReject = func(src string, n uint64) { c.Preview.Diagnostic(diag.QueueFull(src, n)) }
	}
	if len(c.Bridge.Sources()) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Bridge.Run(ctx); err != nil {
				log.Warn().Err(err).Msg("input sources ended")
			}
		}()
	}

	err := c.Session.Run(ctx)
	cancel()
	wg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
