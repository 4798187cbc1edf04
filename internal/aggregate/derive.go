package aggregate

import (
	"sort"
	"strings"

	"github.com/GoPolymarket/clawdash/internal/model"
	"github.com/shopspring/decimal"
)

const (
	DefaultTradeWindow = 150
	DefaultDayWindow   = 10
)

type venueTagged interface {
	model.Position | model.Trade
}

func venueOf[T venueTagged](item T) string {
	switch v := any(item).(type) {
	case model.Position:
		return v.Venue
	case model.Trade:
		return v.Venue
	}
	return ""
}

// FilterVenue keeps only items whose venue equals venue exactly, preserving
// their relative order.
func FilterVenue[T venueTagged](items []T, venue string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if venueOf(item) == venue {
			out = append(out, item)
		}
	}
	return out
}

// RankByAbsPnL orders positions by descending |P&L|. Ties keep their input order.
func RankByAbsPnL(positions []model.Position) []model.Position {
	out := make([]model.Position, len(positions))
	copy(out, positions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PnL.Abs().GreaterThan(out[j].PnL.Abs())
	})
	return out
}

// ActivityByDay buckets the newest tradeWindow trades by the YYYY-MM-DD
// prefix of their timestamp and keeps the dayWindow most recent days, newest
// first. trades are expected newest first, as the upstream returns them.
func ActivityByDay(trades []model.Trade, tradeWindow, dayWindow int) []model.DayActivity {
	if tradeWindow <= 0 {
		tradeWindow = DefaultTradeWindow
	}
	if dayWindow <= 0 {
		dayWindow = DefaultDayWindow
	}
	if len(trades) > tradeWindow {
		trades = trades[:tradeWindow]
	}

	buckets := make(map[string]*model.DayActivity)
	for _, t := range trades {
		day := dayPrefix(t.CreatedAt)
		if day == "" {
			continue
		}
		b, ok := buckets[day]
		if !ok {
			b = &model.DayActivity{Day: day, Volume: decimal.Zero}
			buckets[day] = b
		}
		b.Trades++
		switch tradeDirection(t) {
		case "buy":
			b.Buys++
		case "sell":
			b.Sells++
		}
		b.Volume = b.Volume.Add(tradeVolume(t))
	}

	days := make([]string, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	// YYYY-MM-DD sorts lexically in date order.
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	if len(days) > dayWindow {
		days = days[:dayWindow]
	}

	out := make([]model.DayActivity, 0, len(days))
	for _, day := range days {
		out = append(out, *buckets[day])
	}
	return out
}

// tradeDirection prefers the explicit action; side may be an outcome (yes/no)
// rather than a direction.
func tradeDirection(t model.Trade) string {
	if t.Action != "" {
		return strings.ToLower(t.Action)
	}
	return strings.ToLower(t.Side)
}

func tradeVolume(t model.Trade) decimal.Decimal {
	if !t.Cost.IsZero() {
		return t.Cost.Abs()
	}
	return t.Shares.Mul(t.Price).Abs()
}

func dayPrefix(ts string) string {
	if len(ts) < len("2006-01-02") {
		return ""
	}
	day := ts[:10]
	if day[4] != '-' || day[7] != '-' {
		return ""
	}
	return day
}
