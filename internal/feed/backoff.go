package feed

import (
	"context"
	"time"

	"github.com/shredstream-sniper/sniperkit/pkg/logging"
)

// reconnectDelay is the fixed pause between stream reconnect attempts, per
// spec §5's "break and reconnect after a stream error" rule for both the
// shred stream and the live-trade stream.
const reconnectDelay = 60 * time.Second

// runStreamWithBackoff calls run repeatedly until ctx is cancelled, pausing
// reconnectDelay between attempts whenever run returns (either with an error
// or because the stream closed cleanly).
func runStreamWithBackoff(ctx context.Context, log *logging.Logger, name string, run func(ctx context.Context) error) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := run(ctx); err != nil {
			log.Warn("stream ended, reconnecting", "stream", name, "err", err, "delay", reconnectDelay)
		} else {
			log.Info("stream closed, reconnecting", "stream", name, "delay", reconnectDelay)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}
