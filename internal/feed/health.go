// Package feed runs the sniper's two inbound streaming tasks — ShredIngest
// (spec §4.1/§6) and LiveTradeIngest (spec §4.6) — against collaborators
// specified only by interface: the shred relay and the venue transaction
// stream protocols are out of scope, so this package depends on them only
// through ShredStreamSource and LedgerTxStreamSource.
package feed

import (
	"sync/atomic"

	"github.com/shredstream-sniper/sniperkit/internal/metrics"
)

// HealthFlag is the GRPC_NORMAL flag spec §4.6 describes: set true each time
// LiveTradeIngest receives a transaction update, cleared when the stream
// closes, consulted by the Filter's feed-health gate (§4.2 step 2).
type HealthFlag struct {
	v atomic.Bool
}

// Set updates the flag and mirrors it into metrics.FeedHealthy.
func (h *HealthFlag) Set(healthy bool) {
	h.v.Store(healthy)
	if healthy {
		metrics.FeedHealthy.Set(1)
	} else {
		metrics.FeedHealthy.Set(0)
	}
}

// Get reads the current value; zero value is unhealthy.
func (h *HealthFlag) Get() bool { return h.v.Load() }
