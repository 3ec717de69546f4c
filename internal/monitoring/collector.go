package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"

	"github.com/sells-group/landpermit-cli/internal/model"
)

// RunSnapshot holds the totals of a single run.
type RunSnapshot struct {
	RunID string `json:"run_id"`

	// District metrics.
	DistrictsTotal   int `json:"districts_total"`
	DistrictsSkipped int `json:"districts_skipped"`
	FetchErrors      int `json:"fetch_errors"`
	EnrichErrors     int `json:"enrich_errors"`
	PermitsFetched   int `json:"permits_fetched"`
	PermitsDeduped   int `json:"permits_deduped"`

	// Geocoding metrics.
	CacheHits       int     `json:"cache_hits"`
	GeocodeLookups  int     `json:"geocode_lookups"`
	GeocodeFailures int     `json:"geocode_failures"`
	GeocodeFailRate float64 `json:"geocode_fail_rate"`

	// Delivery metrics.
	MessagesSent   int `json:"messages_sent"`
	MessagesFailed int `json:"messages_failed"`

	Duration    time.Duration `json:"duration"`
	CollectedAt time.Time     `json:"collected_at"`
}

// Collector records run metrics into a private Prometheus registry.
type Collector struct {
	mu       sync.Mutex
	snap     RunSnapshot
	registry *prometheus.Registry

	fetched  *prometheus.CounterVec
	deduped  *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	geocode  *prometheus.CounterVec
	messages *prometheus.CounterVec
	duration prometheus.Gauge
	lastRun  prometheus.Gauge
}

// NewCollector creates a Collector for the run identified by runID.
func NewCollector(runID string) *Collector {
	c := &Collector{
		snap:     RunSnapshot{RunID: runID},
		registry: prometheus.NewRegistry(),
		fetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "landpermit_permits_fetched_total",
			Help: "Residential permits returned by the registry, per district.",
		}, []string{"district"}),
		deduped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "landpermit_permits_deduplicated_total",
			Help: "Permits remaining after serial-number deduplication, per district.",
		}, []string{"district"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "landpermit_districts_skipped_total",
			Help: "Skipped districts by reason (empty, fetch_error, enrich_error).",
		}, []string{"district", "reason"}),
		geocode: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "landpermit_geocode_requests_total",
			Help: "Address resolutions by outcome.",
		}, []string{"result"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "landpermit_messages_total",
			Help: "Chat reports by delivery status.",
		}, []string{"status"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "landpermit_run_duration_seconds",
			Help: "Wall-clock duration of the last run.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "landpermit_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}
	c.registry.MustRegister(c.fetched, c.deduped, c.skipped, c.geocode, c.messages, c.duration, c.lastRun)
	return c
}

// Registry exposes the collector's registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObserveDistrict records one district's pass through the pipeline.
func (c *Collector) ObserveDistrict(s model.DistrictStats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := s.District.Name
	c.snap.DistrictsTotal++
	c.snap.PermitsFetched += s.Fetched
	c.snap.PermitsDeduped += s.Deduped
	c.fetched.WithLabelValues(name).Add(float64(s.Fetched))
	c.deduped.WithLabelValues(name).Add(float64(s.Deduped))

	if !s.Skipped {
		return
	}
	c.snap.DistrictsSkipped++
	reason := s.SkipReason
	switch reason {
	case model.SkipFetchError:
		c.snap.FetchErrors++
	case model.SkipEnrichError:
		c.snap.EnrichErrors++
	case "":
		reason = model.SkipEmpty
	}
	c.skipped.WithLabelValues(name, reason).Inc()
}

// ObserveGeocode records resolver totals.
func (c *Collector) ObserveGeocode(cacheHits, lookups, failures int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snap.CacheHits += cacheHits
	c.snap.GeocodeLookups += lookups
	c.snap.GeocodeFailures += failures
	c.geocode.WithLabelValues("cache_hit").Add(float64(cacheHits))
	c.geocode.WithLabelValues("lookup").Add(float64(lookups))
	c.geocode.WithLabelValues("failure").Add(float64(failures))
}

// ObserveMessage records the outcome of one chat report.
func (c *Collector) ObserveMessage(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.snap.MessagesFailed++
		c.messages.WithLabelValues("failed").Inc()
		return
	}
	c.snap.MessagesSent++
	c.messages.WithLabelValues("sent").Inc()
}

// Finish stamps the run duration and completion time.
func (c *Collector) Finish(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC()
	c.snap.Duration = d
	c.snap.CollectedAt = now
	c.duration.Set(d.Seconds())
	c.lastRun.Set(float64(now.Unix()))
}

// Snapshot returns a copy of the run totals.
func (c *Collector) Snapshot() *RunSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.snap
	if snap.GeocodeLookups > 0 {
		snap.GeocodeFailRate = float64(snap.GeocodeFailures) / float64(snap.GeocodeLookups)
	}
	return &snap
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return eris.Wrap(err, "monitoring: write textfile")
	}
	return nil
}
