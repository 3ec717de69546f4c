package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/landpermit-cli/internal/addrcache"
	"github.com/sells-group/landpermit-cli/internal/model"
	"github.com/sells-group/landpermit-cli/pkg/geocode"
)

// ResolveStats counts resolver outcomes.
type ResolveStats struct {
	CacheHits int `json:"cache_hits"`
	Lookups   int `json:"lookups"`
	Failures  int `json:"failures"`
}

// Resolver maps full addresses to building names, consulting the cache
// before the geocoder. Cached failures are returned as-is and never retried.
type Resolver struct {
	client  geocode.Client
	cache   addrcache.Store
	limiter *rate.Limiter
	stats   ResolveStats
}

// NewResolver creates a Resolver. Consecutive uncached lookups are spaced at
// least throttle apart; zero disables throttling.
func NewResolver(client geocode.Client, cache addrcache.Store, throttle time.Duration) *Resolver {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if throttle > 0 {
		limiter = rate.NewLimiter(rate.Every(throttle), 1)
	}
	return &Resolver{client: client, cache: cache, limiter: limiter}
}

// Stats returns the counters accumulated so far.
func (r *Resolver) Stats() ResolveStats { return r.stats }

// Resolve returns the building name for address. Lookup failures come back
// as a failed Resolution, never as an error.
func (r *Resolver) Resolve(ctx context.Context, address string) model.Resolution {
	if stored, ok := r.cache.Get(address); ok {
		r.stats.CacheHits++
		return model.ParseResolution(stored)
	}

	if err := r.limiter.Wait(ctx); err != nil {
		// Cancelled before any request: uncached and uncounted.
		return model.Failed(model.LookupError, err.Error())
	}

	r.stats.Lookups++
	res := r.lookup(ctx, address)
	if ctx.Err() != nil && !res.OK() {
		r.stats.Failures++
		return res
	}
	if !res.OK() {
		r.stats.Failures++
		zap.L().Debug("resolve: lookup failed",
			zap.String("address", address),
			zap.String("result", res.String()),
		)
	}

	r.cache.Set(address, res.String())
	return res
}

func (r *Resolver) lookup(ctx context.Context, address string) model.Resolution {
	resp, err := r.client.SearchAddress(ctx, address)
	if err != nil {
		return model.Failed(model.LookupError, err.Error())
	}
	if len(resp.Documents) == 0 {
		return model.Failed(model.NoResults, "")
	}
	road := resp.Documents[0].RoadAddress
	if road == nil || road.BuildingName == nil {
		return model.Failed(model.NoBuildingName, "")
	}
	return model.Resolved(*road.BuildingName)
}
