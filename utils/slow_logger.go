package utils

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/viam-labs/evasion/logging"
)

// SlowLogger warns after 2s, 5s, then every 5s that an operation is still waiting, until the
// returned function is called or ctx is done.
func SlowLogger(ctx context.Context, clk clock.Clock, msg, fieldName, fieldVal string, logger logging.Logger) func() {
	timer := clk.Timer(2 * time.Second)
	start := clk.Now()
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		next := 3 * time.Second
		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			elapsed := clk.Since(start).Round(time.Second).String()
			logger.Warnw(msg, fieldName, fieldVal, "time_elapsed", elapsed)
			timer.Reset(next)
			next = 5 * time.Second
		}
	}()

	return func() {
		cancel()
		timer.Stop()
		<-done
	}
}
