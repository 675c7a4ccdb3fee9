package main

import (
	"go.uber.org/zap"

	"vouch-graph/backend/internal/ens"
	"vouch-graph/backend/internal/identity"
	"vouch-graph/backend/internal/layout"
	"vouch-graph/backend/internal/names"
	"vouch-graph/backend/internal/profile"
	"vouch-graph/backend/internal/source"
	"vouch-graph/backend/internal/view"
	"vouch-graph/backend/pkg/config"
	"vouch-graph/backend/pkg/logger"
)

// viewOptions turns configuration into view options. Capabilities that are
// not configured stay absent.
func viewOptions(cfg *config.Config, addresses bool) []view.Option {
	resolverOpts := []names.Option{
		names.WithTimeout(cfg.ResolveTimeout),
		names.WithConcurrency(cfg.ResolveConcurrency),
	}
	if cfg.LookupsEnabled() {
		client, err := ens.NewClient(cfg.RPCURL, cfg.ENSRegistry, ens.WithRateLimit(cfg.RPCRateLimit, cfg.ResolveConcurrency))
		if err != nil {
			logger.Get().Warn("Name lookups disabled", zap.Error(err))
		} else {
			resolverOpts = append(resolverOpts, names.WithLookup(client))
		}
	}

	mode := names.ModeLookup
	if addresses {
		mode = names.ModeAddresses
	}

	opts := []view.Option{
		view.WithMode(mode),
		view.WithResolverOptions(resolverOpts...),
		view.WithLayoutOptions(
			layout.WithSize(cfg.CanvasWidth, cfg.CanvasHeight),
			layout.WithLinkDistance(cfg.LinkDistance),
			layout.WithChargeStrength(cfg.ChargeStrength),
			layout.WithTickInterval(cfg.TickInterval),
		),
	}
	if cfg.CurrentUser != "" {
		opts = append(opts, view.WithIdentity(identity.Static(cfg.CurrentUser)))
	}
	if cfg.ProfileURLTemplate != "" {
		opts = append(opts, view.WithAvatarSource(profile.NewScraper(cfg.ProfileURLTemplate, cfg.ResolveTimeout)))
	}
	return opts
}

// fetcher reads DATA_URL and falls back to the sample graph when it fails
func fetcher(cfg *config.Config, static bool) source.Fetcher {
	if static || cfg.DataURL == "" {
		return source.StaticFetcher{}
	}
	return source.WithFallback(source.NewHTTPFetcher(cfg.DataURL, cfg.ResolveTimeout), source.StaticFetcher{})
}
