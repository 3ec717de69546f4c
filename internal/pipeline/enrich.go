package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/landpermit-cli/internal/addrcache"
	"github.com/sells-group/landpermit-cli/internal/model"
)

// DefaultCityPrefix is prepended to registry addresses before geocoding.
const DefaultCityPrefix = "서울특별시"

// Enricher derives neighborhood and apartment labels for permit records.
type Enricher struct {
	resolver   *Resolver
	cache      addrcache.Store
	cityPrefix string
}

// NewEnricher creates an Enricher. The cache must be the one the resolver uses.
func NewEnricher(resolver *Resolver, cache addrcache.Store, cityPrefix string) *Enricher {
	if cityPrefix == "" {
		cityPrefix = DefaultCityPrefix
	}
	return &Enricher{resolver: resolver, cache: cache, cityPrefix: cityPrefix}
}

// Enrich mutates every record in batch in place. The cache is reloaded
// before the batch and flushed once after it. A flush error is returned as
// *FlushError; the records are enriched regardless.
func (e *Enricher) Enrich(ctx context.Context, batch model.PermitBatch) error {
	if err := e.cache.Load(ctx); err != nil {
		return eris.Wrap(err, "enrich: load address cache")
	}

	for i := range batch {
		e.enrichRecord(ctx, &batch[i])
	}

	if err := e.cache.Flush(ctx); err != nil {
		zap.L().Warn("enrich: address cache flush failed", zap.Error(err))
		return &FlushError{Err: err}
	}
	return nil
}

// FlushError reports that enrichment finished but the cache could not be
// persisted.
type FlushError struct {
	Err error
}

func (e *FlushError) Error() string { return "enrich: flush address cache: " + e.Err.Error() }

func (e *FlushError) Unwrap() error { return e.Err }

func (e *Enricher) enrichRecord(ctx context.Context, rec *model.PermitRecord) {
	raw := strings.TrimSpace(rec.Address)
	res := e.resolver.Resolve(ctx, e.cityPrefix+" "+raw)

	rec.Building = res
	rec.NeighborhoodName = Neighborhood(raw)
	rec.ApartmentName = ApartmentLabel(rec.NeighborhoodName, res.String())
}

// Neighborhood returns the dong token of a registry address, the second
// whitespace-separated field, or "" when there are fewer than two.
func Neighborhood(address string) string {
	fields := strings.Fields(address)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// ApartmentLabel joins dong and building when both are present. Otherwise it
// is the building label alone, which may be empty.
func ApartmentLabel(dong, building string) string {
	if dong != "" && building != "" {
		return dong + " " + building
	}
	return building
}
