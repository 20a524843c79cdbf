package adminrpc

import (
	"context"
	"encoding/json"
	"strconv"
)

// getConfig returns the live-trade enable flag, max SOL, relay fees, and
// whitelist enable flag (spec §4.8).
func (s *Server) getConfig(_ context.Context, _ json.RawMessage) (interface{}, error) {
	return s.cfg.Snapshot(), nil
}

// updateConfigParams mirrors config.Snapshot's fields as pointers so only
// fields present in the request are applied.
type updateConfigParams struct {
	BuyEnabled       *bool    `json:"buy_enabled"`
	MaxSol           *float64 `json:"max_sol"`
	WhitelistEnabled *bool    `json:"whitelist_enabled"`
	JitoFee          *float64 `json:"jito_fee"`
	ZeroSlotBuyFee   *float64 `json:"zero_slot_buy_fee"`
	ZeroSlotSellFee  *float64 `json:"zero_slot_sell_fee"`
}

func (s *Server) updateConfig(_ context.Context, raw json.RawMessage) (interface{}, error) {
	var p updateConfigParams
	if err := bindParams(raw, &p); err != nil {
		return nil, err
	}

	fields := make(map[string]string)
	if p.BuyEnabled != nil {
		fields["BUY_ENABLED"] = strconv.FormatBool(*p.BuyEnabled)
	}
	if p.MaxSol != nil {
		fields["MAX_SOL"] = strconv.FormatFloat(*p.MaxSol, 'f', -1, 64)
	}
	if p.WhitelistEnabled != nil {
		fields["WHITELIST_ENABLED"] = strconv.FormatBool(*p.WhitelistEnabled)
	}
	if p.JitoFee != nil {
		fields["JITO_FEE"] = strconv.FormatFloat(*p.JitoFee, 'f', -1, 64)
	}
	if p.ZeroSlotBuyFee != nil {
		fields["ZERO_SLOT_BUY_FEE"] = strconv.FormatFloat(*p.ZeroSlotBuyFee, 'f', -1, 64)
	}
	if p.ZeroSlotSellFee != nil {
		fields["ZERO_SLOT_SELL_FEE"] = strconv.FormatFloat(*p.ZeroSlotSellFee, 'f', -1, 64)
	}

	if err := s.cfg.Update(fields); err != nil {
		return nil, err
	}
	return s.cfg.Snapshot(), nil
}

func (s *Server) getWhitelistConfig(_ context.Context, _ json.RawMessage) (interface{}, error) {
	return s.cfg.WhitelistThresholds(), nil
}

type updateWhitelistConfigParams struct {
	Profit            *float64 `json:"profit"`
	Avg               *int64   `json:"avg"`
	Count             *int64   `json:"count"`
	Mid               *int64   `json:"mid"`
	HoldLess5SecCount *int64   `json:"hold_less_5_sec_count"`
	MinHold           *int64   `json:"min_hold"`
	AvgUser           *int64   `json:"avg_user"`
	Top3Buy           *float64 `json:"top_3_buy"`
}

func (s *Server) updateWhitelistConfig(_ context.Context, raw json.RawMessage) (interface{}, error) {
	var p updateWhitelistConfigParams
	if err := bindParams(raw, &p); err != nil {
		return nil, err
	}

	fields := make(map[string]string)
	if p.Profit != nil {
		fields["WHITELIST_PROFIT"] = strconv.FormatFloat(*p.Profit, 'f', -1, 64)
	}
	if p.Avg != nil {
		fields["WHITELIST_AVG"] = strconv.FormatInt(*p.Avg, 10)
	}
	if p.Count != nil {
		fields["WHITELIST_COUNT"] = strconv.FormatInt(*p.Count, 10)
	}
	if p.Mid != nil {
		fields["WHITELIST_MID"] = strconv.FormatInt(*p.Mid, 10)
	}
	if p.HoldLess5SecCount != nil {
		fields["WHITELIST_HOLD_LESS_5_SEC_COUNT"] = strconv.FormatInt(*p.HoldLess5SecCount, 10)
	}
	if p.MinHold != nil {
		fields["WHITELIST_MIN_HOLD"] = strconv.FormatInt(*p.MinHold, 10)
	}
	if p.AvgUser != nil {
		fields["WHITELIST_AVG_USER"] = strconv.FormatInt(*p.AvgUser, 10)
	}
	if p.Top3Buy != nil {
		fields["WHITELIST_TOP_3_BUY"] = strconv.FormatFloat(*p.Top3Buy, 'f', -1, 64)
	}

	if err := s.cfg.Update(fields); err != nil {
		return nil, err
	}
	return s.cfg.WhitelistThresholds(), nil
}

func (s *Server) getBlacklist(_ context.Context, _ json.RawMessage) (interface{}, error) {
	return s.blacklist.All(), nil
}

type blacklistEntryParams struct {
	Creator string `json:"creator"`
}

func (s *Server) addBlacklist(_ context.Context, raw json.RawMessage) (interface{}, error) {
	var p blacklistEntryParams
	if err := bindParams(raw, &p); err != nil {
		return nil, err
	}
	if err := s.blacklist.Add(p.Creator); err != nil {
		return nil, err
	}
	s.wsHub.Broadcast(EventBlacklistUpdated, s.blacklist.All())
	return s.blacklist.All(), nil
}

func (s *Server) removeBlacklist(_ context.Context, raw json.RawMessage) (interface{}, error) {
	var p blacklistEntryParams
	if err := bindParams(raw, &p); err != nil {
		return nil, err
	}
	if err := s.blacklist.Remove(p.Creator); err != nil {
		return nil, err
	}
	s.wsHub.Broadcast(EventBlacklistUpdated, s.blacklist.All())
	return s.blacklist.All(), nil
}
