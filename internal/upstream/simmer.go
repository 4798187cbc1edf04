package upstream

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/GoPolymarket/clawdash/internal/model"
)

const (
	simmerPortfolioPath   = "/api/sdk/portfolio"
	simmerPositionsPath   = "/api/sdk/positions"
	simmerTradesPath      = "/api/sdk/trades"
	simmerMarketsPath     = "/api/sdk/markets"
	simmerBriefingPath    = "/api/sdk/briefing"
	simmerLeaderboardPath = "/api/sdk/leaderboard"
)

// Simmer is the per-owner trading-data API. Every call authenticates with
// the owner's own key.
type Simmer struct {
	client  *Client
	baseURL string
	creds   CredentialSource
}

func NewSimmer(client *Client, baseURL string, creds CredentialSource) *Simmer {
	return &Simmer{client: client, baseURL: baseURL, creds: creds}
}

func (s *Simmer) get(ctx context.Context, ownerID, path string, query url.Values) (json.RawMessage, error) {
	cred, err := resolve(s.creds, ownerID)
	if err != nil {
		return nil, err
	}
	return s.client.FetchJSON(ctx, BackendSimmer, s.baseURL, path, Options{
		Headers: map[string]string{"Authorization": "Bearer " + cred.APIKey},
		Query:   query,
	})
}

func (s *Simmer) Portfolio(ctx context.Context, ownerID string) (json.RawMessage, error) {
	return s.get(ctx, ownerID, simmerPortfolioPath, nil)
}

func (s *Simmer) Positions(ctx context.Context, ownerID string) ([]model.Position, error) {
	raw, err := s.get(ctx, ownerID, simmerPositionsPath, nil)
	if err != nil {
		return nil, err
	}
	positions, err := decodeList[model.Position](raw, "positions")
	if err != nil {
		return nil, decodeError(BackendSimmer, simmerPositionsPath, err)
	}
	return positions, nil
}

func (s *Simmer) Trades(ctx context.Context, ownerID string, limit int) ([]model.Trade, error) {
	var query url.Values
	if limit > 0 {
		query = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	raw, err := s.get(ctx, ownerID, simmerTradesPath, query)
	if err != nil {
		return nil, err
	}
	trades, err := decodeList[model.Trade](raw, "trades")
	if err != nil {
		return nil, decodeError(BackendSimmer, simmerTradesPath, err)
	}
	return trades, nil
}

func (s *Simmer) Markets(ctx context.Context, ownerID string) (json.RawMessage, error) {
	return s.get(ctx, ownerID, simmerMarketsPath, nil)
}

func (s *Simmer) Briefing(ctx context.Context, ownerID string) (json.RawMessage, error) {
	return s.get(ctx, ownerID, simmerBriefingPath, nil)
}

func (s *Simmer) Leaderboard(ctx context.Context, ownerID string) (json.RawMessage, error) {
	return s.get(ctx, ownerID, simmerLeaderboardPath, nil)
}
