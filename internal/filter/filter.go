// Package filter applies the ordered policy checks (spec §4.2) that decide
// whether a classified launch record is forwarded to the Submitter.
package filter

import (
	"github.com/shredstream-sniper/sniperkit/internal/classifier"
	"github.com/shredstream-sniper/sniperkit/internal/config"
	"github.com/shredstream-sniper/sniperkit/internal/lists"
)

// DropReason names why a launch record was rejected, for metrics labeling.
type DropReason string

const (
	None                 DropReason = ""
	ReasonBuyDisabled    DropReason = "buy_disabled"
	ReasonFeedUnhealthy  DropReason = "feed_unhealthy"
	ReasonBlacklisted    DropReason = "blacklisted"
	ReasonNotWhitelisted DropReason = "not_whitelisted"
	ReasonCostWindow     DropReason = "cost_window"
)

// Decide runs the six-step ordered check and reports whether the record
// should be forwarded to the Submitter, along with the first reason it was
// dropped (None if allowed).
func Decide(record classifier.LaunchRecord, cfg *config.Config, blacklist, whitelist *lists.Set, feedHealthy bool) (bool, DropReason) {
	if !cfg.BuyEnabled() {
		return false, ReasonBuyDisabled
	}
	if !feedHealthy {
		return false, ReasonFeedUnhealthy
	}

	creator := record.Creator.String()
	if blacklist.Contains(creator) || blacklist.Contains(lists.All) {
		return false, ReasonBlacklisted
	}
	if cfg.WhitelistEnabled() && !whitelist.Contains(creator) {
		return false, ReasonNotWhitelisted
	}
	if record.MaxSolCost < classifier.MinMaxSolCost || record.MaxSolCost > classifier.MaxMaxSolCost {
		return false, ReasonCostWindow
	}
	return true, None
}
