package service

import (
	"fmt"
	"sync"

	"github.com/GoPolymarket/clawdash/internal/config"
	"github.com/GoPolymarket/clawdash/internal/model"
	"golang.org/x/time/rate"
)

// OwnerRegistry is the keyed owner table: owner id -> profile, credential and
// write limiter. It is built once at startup from config.
type OwnerRegistry struct {
	mu       sync.RWMutex
	order    []string
	owners   map[string]*model.Owner
	limiters map[string]*rate.Limiter
	home     string
}

func NewOwnerRegistry(cfg *config.Config) *OwnerRegistry {
	r := &OwnerRegistry{
		owners:   make(map[string]*model.Owner),
		limiters: make(map[string]*rate.Limiter),
	}
	if cfg == nil {
		return r
	}
	for _, oc := range cfg.Owners {
		r.Register(&model.Owner{
			ID:     oc.ID,
			Name:   oc.Name,
			Region: model.Region(oc.Region),
			Cities: oc.Cities,
			Color:  oc.Color,
			Creds: model.Credential{
				APIKey:        oc.APIKey,
				WalletAddress: oc.WalletAddress,
			},
			Rate: model.RateLimitConfig{
				QPS:   oc.RateLimit.QPS,
				Burst: oc.RateLimit.Burst,
			},
		})
	}
	r.home = cfg.Dashboard.HomeOwner
	return r
}

func (r *OwnerRegistry) Register(o *model.Owner) {
	if o == nil || o.ID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.owners[o.ID]; !exists {
		r.order = append(r.order, o.ID)
	}
	r.owners[o.ID] = o
	if r.home == "" {
		r.home = o.ID
	}

	// Zero QPS means unlimited.
	limit := rate.Limit(o.Rate.QPS)
	if limit == 0 {
		limit = rate.Inf
	}
	burst := o.Rate.Burst
	if burst == 0 {
		burst = 1
	}
	r.limiters[o.ID] = rate.NewLimiter(limit, burst)
}

func (r *OwnerRegistry) Get(id string) (*model.Owner, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.owners[id]
	return o, ok
}

// List returns owners in configured order.
func (r *OwnerRegistry) List() []*model.Owner {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Owner, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.owners[id])
	}
	return out
}

func (r *OwnerRegistry) Profiles() []model.OwnerProfile {
	owners := r.List()
	out := make([]model.OwnerProfile, 0, len(owners))
	for _, o := range owners {
		out = append(out, o.Profile())
	}
	return out
}

// Resolve returns the owner's credential. An owner without an API key is not
// a failure of the lookup; it reports ErrOwnerNotConfigured so callers can
// treat it as the offline state.
func (r *OwnerRegistry) Resolve(ownerID string) (model.Credential, error) {
	o, ok := r.Get(ownerID)
	if !ok {
		return model.Credential{}, fmt.Errorf("%w: %s", model.ErrUnknownOwner, ownerID)
	}
	if !o.Creds.Configured() {
		return model.Credential{}, fmt.Errorf("%w: %s", model.ErrOwnerNotConfigured, ownerID)
	}
	return o.Creds, nil
}

// HomeOwner is the owner whose data backs the home dashboard.
func (r *OwnerRegistry) HomeOwner() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.home
}

func (r *OwnerRegistry) LimiterFor(ownerID string) *rate.Limiter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.limiters[ownerID]
}
