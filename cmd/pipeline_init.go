package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/landpermit-cli/internal/addrcache"
	"github.com/sells-group/landpermit-cli/internal/pipeline"
	"github.com/sells-group/landpermit-cli/pkg/geocode"
	"github.com/sells-group/landpermit-cli/pkg/landseoul"
	"github.com/sells-group/landpermit-cli/pkg/telegram"
)

// pipelineEnv holds the initialized cache, clients and pipeline needed by
// the run command.
type pipelineEnv struct {
	Cache    addrcache.Store
	Pipeline *pipeline.Pipeline
	HTTP     *http.Client
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Cache != nil {
		if err := pe.Cache.Close(); err != nil {
			zap.L().Warn("close address cache", zap.Error(err))
		}
	}
}

// initPipeline validates configuration, opens the address cache and builds
// the clients and Pipeline. Notification credentials are checked when notify
// is set; the bot itself is connected later by initNotifier. Callers should
// defer env.Close().
func initPipeline(ctx context.Context, notify bool) (*pipelineEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Geocode.APIKey == "" {
		return nil, eris.New("config: geocode.api_key is required (LANDPERMIT_GEOCODE_API_KEY)")
	}
	if notify {
		if err := cfg.ValidateNotify(); err != nil {
			return nil, err
		}
	}

	hc := cfg.Proxy.HTTPClient(time.Duration(cfg.Land.TimeoutSecs) * time.Second)

	cache, err := initCache(ctx)
	if err != nil {
		return nil, err
	}

	fetcher := landseoul.NewClient(
		landseoul.WithBaseURL(cfg.Land.BaseURL),
		landseoul.WithHTTPClient(hc),
	)
	geocoder := geocode.NewClient(cfg.Geocode.APIKey,
		geocode.WithBaseURL(cfg.Geocode.BaseURL),
		geocode.WithHTTPClient(hc),
	)

	p := pipeline.New(fetcher, geocoder, cache, pipeline.Options{
		CityPrefix: cfg.Geocode.CityPrefix,
		Throttle:   time.Duration(cfg.Geocode.ThrottleMS) * time.Millisecond,
	})

	return &pipelineEnv{
		Cache:    cache,
		Pipeline: p,
		HTTP:     hc,
	}, nil
}

// initNotifier connects the chat bot, which calls getMe. The run command
// calls it only after the exports are written.
func initNotifier(hc *http.Client) (telegram.Sender, error) {
	n, err := telegram.NewNotifier(telegram.Config{
		Token:       cfg.Telegram.Token,
		ChatID:      cfg.Telegram.ChatID,
		APIEndpoint: cfg.Telegram.APIEndpoint,
		ChunkSize:   cfg.Telegram.ChunkSize,
		HTTPClient:  hc,
	})
	if err != nil {
		return nil, eris.Wrap(err, "connect chat bot")
	}
	return n, nil
}

// initCache opens the configured address cache backend.
func initCache(ctx context.Context) (addrcache.Store, error) {
	st, err := addrcache.Open(ctx, addrcache.Options{
		Driver:      cfg.Cache.Driver,
		Path:        cfg.Cache.Path,
		DatabaseURL: cfg.Cache.DatabaseURL,
	})
	if err != nil {
		return nil, eris.Wrap(err, "open address cache")
	}
	return st, nil
}
