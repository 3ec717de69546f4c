package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/landpermit-cli/internal/addrcache"
	"github.com/sells-group/landpermit-cli/internal/model"
	"github.com/sells-group/landpermit-cli/pkg/geocode"
	"github.com/sells-group/landpermit-cli/pkg/landseoul"
)

// Options configures a Pipeline.
type Options struct {
	CityPrefix string
	Throttle   time.Duration
}

// Pipeline fetches, enriches and deduplicates permits for a set of
// districts, one district at a time.
type Pipeline struct {
	fetcher  landseoul.Client
	resolver *Resolver
	enricher *Enricher
}

// New creates a Pipeline. The cache is shared by every district in a run.
func New(fetcher landseoul.Client, geocoder geocode.Client, cache addrcache.Store, opts Options) *Pipeline {
	resolver := NewResolver(geocoder, cache, opts.Throttle)
	return &Pipeline{
		fetcher:  fetcher,
		resolver: resolver,
		enricher: NewEnricher(resolver, cache, opts.CityPrefix),
	}
}

// Request selects the districts and date range of a run. Dates are compact
// YYYYMMDD strings.
type Request struct {
	Begin     string
	End       string
	Districts []model.District
}

// Result is the outcome of a run.
type Result struct {
	RunID     string                `json:"run_id"`
	Begin     string                `json:"begin"`
	End       string                `json:"end"`
	Raw       []model.PermitRecord  `json:"raw"`
	Deduped   []model.PermitRecord  `json:"deduped"`
	Districts []model.DistrictStats `json:"districts"`
	Geocode   ResolveStats          `json:"geocode"`
}

// Contributing returns the number of districts that produced records.
func (r *Result) Contributing() int {
	n := 0
	for _, d := range r.Districts {
		if !d.Skipped {
			n++
		}
	}
	return n
}

// Run processes every requested district in order. A district whose fetch
// fails or returns nothing is skipped; only cancellation aborts the run.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	result := &Result{
		RunID: uuid.NewString(),
		Begin: req.Begin,
		End:   req.End,
	}
	runLog := zap.L().With(zap.String("run_id", result.RunID))
	runLog.Info("pipeline: starting run",
		zap.String("begin", req.Begin),
		zap.String("end", req.End),
		zap.Int("districts", len(req.Districts)),
	)

	for _, d := range req.Districts {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "pipeline: run cancelled")
		}
		log := runLog.With(zap.String("district", d.Name), zap.String("code", d.Code))

		stats, raw, deduped, err := p.runDistrict(ctx, log, d, req.Begin, req.End)
		if err != nil {
			return nil, err
		}
		result.Districts = append(result.Districts, stats)
		result.Raw = append(result.Raw, raw...)
		result.Deduped = append(result.Deduped, deduped...)
	}

	result.Geocode = p.resolver.Stats()
	runLog.Info("pipeline: run complete",
		zap.Int("raw", len(result.Raw)),
		zap.Int("deduped", len(result.Deduped)),
		zap.Int("contributing_districts", result.Contributing()),
		zap.Int("cache_hits", result.Geocode.CacheHits),
		zap.Int("lookups", result.Geocode.Lookups),
		zap.Int("lookup_failures", result.Geocode.Failures),
	)
	return result, nil
}

func (p *Pipeline) runDistrict(ctx context.Context, log *zap.Logger, d model.District, begin, end string) (model.DistrictStats, []model.PermitRecord, []model.PermitRecord, error) {
	stats := model.DistrictStats{District: d}

	batch, err := p.fetcher.FetchPermits(ctx, d.Code, begin, end)
	if err != nil {
		if ctx.Err() != nil {
			return stats, nil, nil, eris.Wrap(ctx.Err(), "pipeline: run cancelled")
		}
		var fe *landseoul.FetchError
		if errors.As(err, &fe) {
			log.Error("pipeline: fetch failed, skipping district",
				zap.Int("status", fe.StatusCode), zap.Error(err))
		} else {
			log.Error("pipeline: unreadable response, skipping district", zap.Error(err))
		}
		stats.Skipped = true
		stats.SkipReason = model.SkipFetchError
		stats.Error = err.Error()
		return stats, nil, nil, nil
	}

	stats.Fetched = len(batch)
	if len(batch) == 0 {
		log.Info("pipeline: no permits, skipping district")
		stats.Skipped = true
		stats.SkipReason = model.SkipEmpty
		return stats, nil, nil, nil
	}

	if err := p.enricher.Enrich(ctx, batch); err != nil {
		var fe *FlushError
		if !errors.As(err, &fe) {
			log.Error("pipeline: enrichment failed, skipping district", zap.Error(err))
			stats.Skipped = true
			stats.SkipReason = model.SkipEnrichError
			stats.Error = err.Error()
			return stats, nil, nil, nil
		}
		log.Warn("pipeline: address cache not persisted", zap.Error(err))
	}

	for i := range batch {
		batch[i].DistrictName = d.Name
	}
	deduped := Deduplicate(batch)
	stats.Deduped = len(deduped)

	log.Info("pipeline: district complete",
		zap.Int("fetched", stats.Fetched),
		zap.Int("deduped", stats.Deduped),
	)
	return stats, batch, deduped, nil
}
