package poll

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/GoPolymarket/clawdash/internal/aggregate"
	"github.com/GoPolymarket/clawdash/internal/model"
	"github.com/GoPolymarket/clawdash/internal/pkg/logger"
	"github.com/GoPolymarket/clawdash/internal/service"
)

// Broadcaster receives every retained view after it changes.
type Broadcaster interface {
	Broadcast(msg model.StreamMessage)
}

// Watcher keeps a retained, last-good state per view. The home view refreshes
// on the slow cadence; each owner view has a fast group (crons) and a slow
// group (status, trades, leaderboard, wallet).
type Watcher struct {
	dash  *service.DashboardService
	sched *Scheduler
	hub   Broadcaster
	fast  time.Duration
	slow  time.Duration

	home   *aggregate.State
	owners map[string]*aggregate.State

	mu      sync.Mutex
	handles []*Handle
}

func NewWatcher(dash *service.DashboardService, sched *Scheduler, hub Broadcaster, fast, slow time.Duration) *Watcher {
	w := &Watcher{
		dash:   dash,
		sched:  sched,
		hub:    hub,
		fast:   fast,
		slow:   slow,
		home:   aggregate.NewState(),
		owners: make(map[string]*aggregate.State),
	}
	for _, o := range dash.Owners().List() {
		w.owners[o.ID] = aggregate.NewState()
	}
	return w
}

// Start schedules the rounds. Owners without a credential are never polled.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.handles) > 0 {
		return
	}

	home := w.dash.Owners().HomeOwner()
	if _, err := w.dash.CheckOwner(home); err == nil {
		w.handles = append(w.handles, w.sched.Start("home", w.slow, w.pollHome))
	} else {
		logger.Warn("home owner offline, home view will not be polled", "owner", home)
	}

	for _, o := range w.dash.Owners().List() {
		if !o.Creds.Configured() {
			logger.Info("owner pending, not polling", "owner", o.ID)
			continue
		}
		id := o.ID
		w.handles = append(w.handles,
			w.sched.Start(fmt.Sprintf("owner:%s:fast", id), w.fast, func(ctx context.Context) {
				w.pollOwner(ctx, id, w.dash.OwnerFastCalls(id))
			}),
			w.sched.Start(fmt.Sprintf("owner:%s:slow", id), w.slow, func(ctx context.Context) {
				w.pollOwner(ctx, id, w.dash.OwnerSlowCalls(id))
			}),
		)
	}
}

// Stop cancels every round this watcher started.
func (w *Watcher) Stop() {
	w.mu.Lock()
	handles := w.handles
	w.handles = nil
	w.mu.Unlock()
	for _, h := range handles {
		w.sched.Cancel(h)
	}
}

func (w *Watcher) pollHome(ctx context.Context) {
	home := w.dash.Owners().HomeOwner()
	round := w.dash.Gather(ctx, service.HomeViewName, w.dash.HomeCalls(home))
	if ctx.Err() != nil {
		return
	}
	w.home.Merge(round)
	if w.hub != nil {
		w.hub.Broadcast(model.StreamMessage{Type: "home", View: w.buildHome()})
	}
}

func (w *Watcher) pollOwner(ctx context.Context, ownerID string, calls []aggregate.Call) {
	state, ok := w.owners[ownerID]
	if !ok {
		return
	}
	round := w.dash.Gather(ctx, service.OwnerViewName(ownerID), calls)
	if ctx.Err() != nil {
		return
	}
	state.Merge(round)
	if w.hub == nil {
		return
	}
	view, err := w.OwnerView(ownerID)
	if err != nil {
		return
	}
	w.hub.Broadcast(model.StreamMessage{Type: "owner", Owner: ownerID, View: view})
}

func (w *Watcher) buildHome() model.HomeView {
	return service.BuildHomeView(w.dash.Owners().HomeOwner(), w.home.Snapshot(), w.home.LastLog(), w.dash.Options())
}

// HomeView returns the retained home view.
func (w *Watcher) HomeView() (model.HomeView, error) {
	if _, err := w.dash.CheckOwner(w.dash.Owners().HomeOwner()); err != nil {
		return model.HomeView{}, err
	}
	return w.buildHome(), nil
}

// OwnerView returns the retained view of one owner.
func (w *Watcher) OwnerView(ownerID string) (model.OwnerView, error) {
	o, err := w.dash.CheckOwner(ownerID)
	if err != nil {
		return model.OwnerView{}, err
	}
	state := w.owners[ownerID]
	return service.BuildOwnerView(o.Profile(), state.Snapshot(), state.LastLog(), w.dash.Options()), nil
}
