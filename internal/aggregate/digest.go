package aggregate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/GoPolymarket/clawdash/internal/model"
	"github.com/shopspring/decimal"
)

// digestKeys are the numeric fields surfaced from object payloads, in the
// order they are printed.
var digestKeys = []string{
	"total_value", "balance", "cash", "pnl", "total_pnl", "win_rate", "rank", "count", "running", "enabled",
}

// Digest summarises a facet value in a single short line: counts for lists,
// key metrics for objects.
func Digest(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case []model.Position:
		total := decimal.Zero
		for _, p := range val {
			total = total.Add(p.PnL)
		}
		return fmt.Sprintf("%d positions, pnl %s", len(val), total.StringFixed(2))
	case []model.Trade:
		if len(val) == 0 {
			return "0 trades"
		}
		return fmt.Sprintf("%d trades, latest %s", len(val), dayPrefix(val[0].CreatedAt))
	case model.WalletValue:
		return fmt.Sprintf("wallet %s", val.Value.StringFixed(2))
	case *model.WalletValue:
		if val == nil {
			return "null"
		}
		return fmt.Sprintf("wallet %s", val.Value.StringFixed(2))
	case json.RawMessage:
		return digestRaw(val)
	default:
		return fmt.Sprintf("%T", v)
	}
}

func digestRaw(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "null"
	}
	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return "invalid list"
		}
		return fmt.Sprintf("%d items", len(items))
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return "invalid object"
		}
		var parts []string
		for _, key := range digestKeys {
			if v, ok := obj[key]; ok {
				parts = append(parts, key+"="+strings.Trim(string(v), `"`))
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
		// Fall back to the sizes of any nested lists.
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			var items []json.RawMessage
			if json.Unmarshal(obj[k], &items) == nil {
				parts = append(parts, fmt.Sprintf("%s=%d", k, len(items)))
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
		return fmt.Sprintf("%d fields", len(obj))
	default:
		return string(trimmed)
	}
}
