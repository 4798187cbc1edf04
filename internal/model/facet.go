package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Facet names one independently fetched data category of a view.
type Facet string

const (
	FacetPortfolio   Facet = "portfolio"
	FacetPositions   Facet = "positions"
	FacetTrades      Facet = "trades"
	FacetMarkets     Facet = "markets"
	FacetBriefing    Facet = "briefing"
	FacetExecutions  Facet = "executions"
	FacetStatus      Facet = "status"
	FacetLeaderboard Facet = "leaderboard"
	FacetCrons       Facet = "crons"
	FacetWallet      Facet = "wallet"
)

// Position is an open position as reported by the trading-data API.
type Position struct {
	MarketID     string          `json:"market_id"`
	Question     string          `json:"question"`
	Venue        string          `json:"venue"`
	Side         string          `json:"side,omitempty"`
	Shares       decimal.Decimal `json:"shares"`
	AvgPrice     decimal.Decimal `json:"avg_price"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	CurrentValue decimal.Decimal `json:"current_value"`
	PnL          decimal.Decimal `json:"pnl"`

	raw json.RawMessage
}

func (p *Position) UnmarshalJSON(b []byte) error {
	type plain Position
	if err := json.Unmarshal(b, (*plain)(p)); err != nil {
		return err
	}
	p.raw = append(json.RawMessage(nil), b...)
	return nil
}

// MarshalJSON writes the decoded fields over the upstream row, so fields
// not declared here are passed through.
func (p Position) MarshalJSON() ([]byte, error) {
	type plain Position
	return overlayRow(p.raw, plain(p))
}

// Trade is one executed trade. CreatedAt is kept as the upstream string; the
// leading YYYY-MM-DD is used for day bucketing.
type Trade struct {
	ID        string          `json:"id"`
	MarketID  string          `json:"market_id"`
	Question  string          `json:"question"`
	Venue     string          `json:"venue"`
	Side      string          `json:"side"`
	Action    string          `json:"action,omitempty"`
	Shares    decimal.Decimal `json:"shares"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
	CreatedAt string          `json:"created_at"`

	raw json.RawMessage
}

func (t *Trade) UnmarshalJSON(b []byte) error {
	type plain Trade
	if err := json.Unmarshal(b, (*plain)(t)); err != nil {
		return err
	}
	t.raw = append(json.RawMessage(nil), b...)
	return nil
}

func (t Trade) MarshalJSON() ([]byte, error) {
	type plain Trade
	return overlayRow(t.raw, plain(t))
}

func overlayRow(raw json.RawMessage, decoded any) ([]byte, error) {
	known, err := json.Marshal(decoded)
	if err != nil || len(raw) == 0 {
		return known, err
	}
	var row map[string]json.RawMessage
	if err := json.Unmarshal(raw, &row); err != nil || row == nil {
		return known, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		row[k] = v
	}
	return json.Marshal(row)
}

// DayActivity is one calendar-day bucket of trade activity.
type DayActivity struct {
	Day    string          `json:"day"`
	Trades int             `json:"trades"`
	Buys   int             `json:"buys"`
	Sells  int             `json:"sells"`
	Volume decimal.Decimal `json:"volume"`
}

type WalletValue struct {
	Address string          `json:"address"`
	Value   decimal.Decimal `json:"value"`
}

// FacetLog is the per-facet observability entry written for every
// aggregation round.
type FacetLog struct {
	Time      time.Time `json:"time"`
	View      string    `json:"view"`
	Facet     Facet     `json:"facet"`
	OK        bool      `json:"ok"`
	Digest    string    `json:"digest,omitempty"`
	Error     string    `json:"error,omitempty"`
	LatencyMs int64     `json:"latency_ms,omitempty"`
}

// HomeView is the merged home dashboard.
type HomeView struct {
	Owner         string           `json:"owner"`
	Portfolio     json.RawMessage  `json:"portfolio"`
	Positions     []Position       `json:"positions"`
	Trades        []Trade          `json:"trades"`
	Markets       json.RawMessage  `json:"markets"`
	Briefing      json.RawMessage  `json:"briefing"`
	Executions    json.RawMessage  `json:"executions"`
	ActivityByDay []DayActivity    `json:"activityByDay"`
	OK            map[Facet]bool   `json:"ok"`
	Errors        map[Facet]string `json:"errors,omitempty"`
	Log           []FacetLog       `json:"log,omitempty"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// OwnerView is the merged per-owner dashboard.
type OwnerView struct {
	Owner         OwnerProfile     `json:"owner"`
	Status        json.RawMessage  `json:"status"`
	Trades        []Trade          `json:"trades"`
	Leaderboard   json.RawMessage  `json:"leaderboard"`
	Crons         json.RawMessage  `json:"crons"`
	Wallet        *WalletValue     `json:"wallet,omitempty"`
	ActivityByDay []DayActivity    `json:"activityByDay"`
	OK            map[Facet]bool   `json:"ok"`
	Errors        map[Facet]string `json:"errors,omitempty"`
	Log           []FacetLog       `json:"log,omitempty"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// StreamMessage is pushed to websocket subscribers after each poll round.
type StreamMessage struct {
	Type  string `json:"type"` // "home" or "owner"
	Owner string `json:"owner,omitempty"`
	View  any    `json:"view"`
}

func (m StreamMessage) Key() string {
	if m.Owner == "" {
		return m.Type
	}
	return m.Type + ":" + m.Owner
}
