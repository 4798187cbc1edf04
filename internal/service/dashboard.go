package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/GoPolymarket/clawdash/internal/aggregate"
	"github.com/GoPolymarket/clawdash/internal/model"
	"github.com/GoPolymarket/clawdash/internal/upstream"
)

// HomeViewName is the activity-log view name of the home dashboard.
const HomeViewName = "home"

// OwnerViewName is the activity-log view name of an owner dashboard.
func OwnerViewName(ownerID string) string { return "owner:" + ownerID }

type SimmerAPI interface {
	Portfolio(ctx context.Context, ownerID string) (json.RawMessage, error)
	Positions(ctx context.Context, ownerID string) ([]model.Position, error)
	Trades(ctx context.Context, ownerID string, limit int) ([]model.Trade, error)
	Markets(ctx context.Context, ownerID string) (json.RawMessage, error)
	Briefing(ctx context.Context, ownerID string) (json.RawMessage, error)
	Leaderboard(ctx context.Context, ownerID string) (json.RawMessage, error)
}

type VPSAPI interface {
	Executions(ctx context.Context) (json.RawMessage, error)
	Status(ctx context.Context, ownerID string) (json.RawMessage, error)
	Crons(ctx context.Context, ownerID string) (json.RawMessage, error)
	ToggleCron(ctx context.Context, ownerID, name string, enabled bool) (json.RawMessage, error)
	RunCron(ctx context.Context, ownerID, name string) (json.RawMessage, error)
	PauseBot(ctx context.Context, ownerID, bot string, paused bool) (json.RawMessage, error)
}

type WalletAPI interface {
	WalletValue(ctx context.Context, ownerID string) (model.WalletValue, error)
}

type DashboardOptions struct {
	Venue       string
	TradeWindow int
	DayWindow   int
}

// DashboardService builds the home and owner views out of independent facet
// calls and proxies the owner write actions.
type DashboardService struct {
	owners   *OwnerRegistry
	simmer   SimmerAPI
	vps      VPSAPI
	wallet   WalletAPI
	activity *ActivityLog
	opts     DashboardOptions
}

// NewDashboardService wires the facet sources. wallet and activity may be nil.
func NewDashboardService(owners *OwnerRegistry, simmer SimmerAPI, vps VPSAPI, wallet WalletAPI, activity *ActivityLog, opts DashboardOptions) *DashboardService {
	if opts.Venue == "" {
		opts.Venue = "polymarket"
	}
	if opts.TradeWindow <= 0 {
		opts.TradeWindow = aggregate.DefaultTradeWindow
	}
	if opts.DayWindow <= 0 {
		opts.DayWindow = aggregate.DefaultDayWindow
	}
	return &DashboardService{
		owners:   owners,
		simmer:   simmer,
		vps:      vps,
		wallet:   wallet,
		activity: activity,
		opts:     opts,
	}
}

func (s *DashboardService) Owners() *OwnerRegistry { return s.owners }

func (s *DashboardService) Options() DashboardOptions { return s.opts }

// CheckOwner reports ErrUnknownOwner for ids outside the owner table and the
// offline condition for owners without a credential.
func (s *DashboardService) CheckOwner(ownerID string) (*model.Owner, error) {
	o, ok := s.owners.Get(ownerID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownOwner, ownerID)
	}
	if !o.Creds.Configured() {
		return o, fmt.Errorf("%w: %w: %s", upstream.ErrOffline, model.ErrOwnerNotConfigured, ownerID)
	}
	return o, nil
}

// HomeCalls are the six facets of the home dashboard.
func (s *DashboardService) HomeCalls(ownerID string) []aggregate.Call {
	return []aggregate.Call{
		s.call(ownerID, model.FacetPortfolio),
		s.call(ownerID, model.FacetPositions),
		s.call(ownerID, model.FacetTrades),
		s.call(ownerID, model.FacetMarkets),
		s.call(ownerID, model.FacetBriefing),
		s.call(ownerID, model.FacetExecutions),
	}
}

// OwnerFastCalls is the small, high-frequency group.
func (s *DashboardService) OwnerFastCalls(ownerID string) []aggregate.Call {
	return []aggregate.Call{s.call(ownerID, model.FacetCrons)}
}

// OwnerSlowCalls is the larger group polled together. The wallet facet is
// included only for owners with a wallet address.
func (s *DashboardService) OwnerSlowCalls(ownerID string) []aggregate.Call {
	calls := []aggregate.Call{
		s.call(ownerID, model.FacetStatus),
		s.call(ownerID, model.FacetTrades),
		s.call(ownerID, model.FacetLeaderboard),
	}
	if o, ok := s.owners.Get(ownerID); ok && o.Creds.HasWallet() && s.wallet != nil {
		calls = append(calls, s.call(ownerID, model.FacetWallet))
	}
	return calls
}

func (s *DashboardService) call(ownerID string, facet model.Facet) aggregate.Call {
	return aggregate.Call{Facet: facet, Fetch: func(ctx context.Context) (any, error) {
		return s.fetch(ctx, ownerID, facet)
	}}
}

func (s *DashboardService) fetch(ctx context.Context, ownerID string, facet model.Facet) (any, error) {
	switch facet {
	case model.FacetPortfolio:
		return s.simmer.Portfolio(ctx, ownerID)
	case model.FacetPositions:
		positions, err := s.simmer.Positions(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		return aggregate.RankByAbsPnL(aggregate.FilterVenue(positions, s.opts.Venue)), nil
	case model.FacetTrades:
		trades, err := s.simmer.Trades(ctx, ownerID, s.opts.TradeWindow)
		if err != nil {
			return nil, err
		}
		return aggregate.FilterVenue(trades, s.opts.Venue), nil
	case model.FacetMarkets:
		return s.simmer.Markets(ctx, ownerID)
	case model.FacetBriefing:
		return s.simmer.Briefing(ctx, ownerID)
	case model.FacetLeaderboard:
		return s.simmer.Leaderboard(ctx, ownerID)
	case model.FacetExecutions:
		return s.vps.Executions(ctx)
	case model.FacetStatus:
		return s.vps.Status(ctx, ownerID)
	case model.FacetCrons:
		return s.vps.Crons(ctx, ownerID)
	case model.FacetWallet:
		if s.wallet == nil {
			return nil, fmt.Errorf("wallet facet disabled")
		}
		wv, err := s.wallet.WalletValue(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		return &wv, nil
	default:
		return nil, fmt.Errorf("unknown facet %q", facet)
	}
}

// Gather runs one aggregation round and records its facet log.
func (s *DashboardService) Gather(ctx context.Context, view string, calls []aggregate.Call) aggregate.Round {
	round := aggregate.Gather(ctx, view, calls)
	if s.activity != nil {
		s.activity.Record(round.LogEntries())
	}
	return round
}

// Home runs a single-shot round for the home owner. Failed facets are flagged
// in the view, never returned as an error.
func (s *DashboardService) Home(ctx context.Context) (model.HomeView, error) {
	ownerID := s.owners.HomeOwner()
	if _, err := s.CheckOwner(ownerID); err != nil {
		return model.HomeView{}, err
	}
	round := s.Gather(ctx, HomeViewName, s.HomeCalls(ownerID))
	return BuildHomeView(ownerID, round.Snapshot(), round.LogEntries(), s.opts), nil
}

// Owner runs the fast and slow groups of an owner dashboard in one round.
func (s *DashboardService) Owner(ctx context.Context, ownerID string) (model.OwnerView, error) {
	o, err := s.CheckOwner(ownerID)
	if err != nil {
		return model.OwnerView{}, err
	}
	calls := append(s.OwnerFastCalls(ownerID), s.OwnerSlowCalls(ownerID)...)
	round := s.Gather(ctx, OwnerViewName(ownerID), calls)
	return BuildOwnerView(o.Profile(), round.Snapshot(), round.LogEntries(), s.opts), nil
}

// HomeFacet reads one home facet for the home owner.
func (s *DashboardService) HomeFacet(ctx context.Context, facet model.Facet) (any, error) {
	ownerID := s.owners.HomeOwner()
	if facet != model.FacetExecutions {
		if _, err := s.CheckOwner(ownerID); err != nil {
			return nil, err
		}
	}
	return s.fetch(ctx, ownerID, facet)
}

// OwnerFacet reads one facet of an owner dashboard.
func (s *DashboardService) OwnerFacet(ctx context.Context, ownerID string, facet model.Facet) (any, error) {
	if _, err := s.CheckOwner(ownerID); err != nil {
		return nil, err
	}
	return s.fetch(ctx, ownerID, facet)
}

func (s *DashboardService) ToggleCron(ctx context.Context, ownerID, name string, enabled bool) (json.RawMessage, error) {
	if _, err := s.CheckOwner(ownerID); err != nil {
		return nil, err
	}
	return s.vps.ToggleCron(ctx, ownerID, name, enabled)
}

func (s *DashboardService) RunCron(ctx context.Context, ownerID, name string) (json.RawMessage, error) {
	if _, err := s.CheckOwner(ownerID); err != nil {
		return nil, err
	}
	return s.vps.RunCron(ctx, ownerID, name)
}

func (s *DashboardService) PauseBot(ctx context.Context, ownerID, bot string, paused bool) (json.RawMessage, error) {
	if _, err := s.CheckOwner(ownerID); err != nil {
		return nil, err
	}
	return s.vps.PauseBot(ctx, ownerID, bot, paused)
}

// viewLog drops per-call latency so two rounds over the same data render the
// same view. The activity log keeps it.
func viewLog(log []model.FacetLog) []model.FacetLog {
	if log == nil {
		return nil
	}
	out := make([]model.FacetLog, len(log))
	for i, e := range log {
		e.LatencyMs = 0
		out[i] = e
	}
	return out
}

// BuildHomeView projects a snapshot onto the home view model.
func BuildHomeView(ownerID string, snap aggregate.Snapshot, log []model.FacetLog, opts DashboardOptions) model.HomeView {
	v := model.HomeView{
		Owner:     ownerID,
		OK:        snap.OK,
		Errors:    snap.Errors,
		Log:       viewLog(log),
		UpdatedAt: snap.UpdatedAt,
	}
	v.Portfolio, _ = aggregate.Value[json.RawMessage](snap, model.FacetPortfolio)
	v.Positions, _ = aggregate.Value[[]model.Position](snap, model.FacetPositions)
	v.Trades, _ = aggregate.Value[[]model.Trade](snap, model.FacetTrades)
	v.Markets, _ = aggregate.Value[json.RawMessage](snap, model.FacetMarkets)
	v.Briefing, _ = aggregate.Value[json.RawMessage](snap, model.FacetBriefing)
	v.Executions, _ = aggregate.Value[json.RawMessage](snap, model.FacetExecutions)
	v.ActivityByDay = aggregate.ActivityByDay(v.Trades, opts.TradeWindow, opts.DayWindow)
	return v
}

// BuildOwnerView projects a snapshot onto the owner view model.
func BuildOwnerView(profile model.OwnerProfile, snap aggregate.Snapshot, log []model.FacetLog, opts DashboardOptions) model.OwnerView {
	v := model.OwnerView{
		Owner:     profile,
		OK:        snap.OK,
		Errors:    snap.Errors,
		Log:       viewLog(log),
		UpdatedAt: snap.UpdatedAt,
	}
	v.Status, _ = aggregate.Value[json.RawMessage](snap, model.FacetStatus)
	v.Trades, _ = aggregate.Value[[]model.Trade](snap, model.FacetTrades)
	v.Leaderboard, _ = aggregate.Value[json.RawMessage](snap, model.FacetLeaderboard)
	v.Crons, _ = aggregate.Value[json.RawMessage](snap, model.FacetCrons)
	v.Wallet, _ = aggregate.Value[*model.WalletValue](snap, model.FacetWallet)
	v.ActivityByDay = aggregate.ActivityByDay(v.Trades, opts.TradeWindow, opts.DayWindow)
	return v
}
