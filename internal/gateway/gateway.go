package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fundgrove/relevance/internal/core/domain"
	"github.com/fundgrove/relevance/internal/engine"
	"github.com/fundgrove/relevance/internal/infra/storage"
)

// RequestSource delivers inbound invalidation and refresh requests, typically
// from the Redis bus.
type RequestSource interface {
	Subscribe(ctx context.Context, handler func(engine.Request)) error
}

// Config tunes the gateway loops.
type Config struct {
	// MaintenanceInterval between scheduled maintenance passes. Zero
	// disables the maintenance loop.
	MaintenanceInterval time.Duration `yaml:"maintenance_interval"`
}

// Gateway bridges persistence-layer change events and inbound requests into
// the relevance engine. It owns no state of its own; it only routes.
type Gateway struct {
	eng      *engine.Engine
	feed     storage.ChangeFeed
	requests RequestSource
	cfg      Config
}

// New creates a gateway. feed and requests may be nil when the corresponding
// source is not configured.
func New(eng *engine.Engine, feed storage.ChangeFeed, requests RequestSource, cfg Config) *Gateway {
	return &Gateway{
		eng:      eng,
		feed:     feed,
		requests: requests,
		cfg:      cfg,
	}
}

// Run starts the change-feed, request, and maintenance loops and blocks
// until the context is cancelled.
func (g *Gateway) Run(ctx context.Context) {
	var wg sync.WaitGroup

	if g.feed != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.feed.Listen(ctx, g.handleChange); err != nil && ctx.Err() == nil {
				slog.Error("change feed stopped", "error", err)
			}
		}()
	}

	if g.requests != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.requests.Subscribe(ctx, g.handleRequest); err != nil && ctx.Err() == nil {
				slog.Error("request subscription stopped", "error", err)
			}
		}()
	}

	if g.cfg.MaintenanceInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.maintenanceLoop(ctx)
		}()
	}

	wg.Wait()
}

func (g *Gateway) handleChange(ev domain.ChangeEvent) {
	result := g.eng.HandleChange(ev)
	if !result.Success {
		slog.Warn("change event produced errors",
			"kind", ev.Kind,
			"errors", result.Errors)
		return
	}
	slog.Debug("change event applied",
		"kind", ev.Kind,
		"invalidated", result.InvalidatedCount,
		"refreshed", result.RefreshedCount)
}

func (g *Gateway) handleRequest(req engine.Request) {
	result := g.eng.HandleRequest(req)
	if !result.Success {
		slog.Warn("request produced errors",
			"type", req.Type,
			"errors", result.Errors)
		return
	}
	slog.Debug("request handled",
		"type", req.Type,
		"invalidated", result.InvalidatedCount,
		"refreshed", result.RefreshedCount)
}

func (g *Gateway) maintenanceLoop(ctx context.Context) {
	ticker := time.NewTicker(g.cfg.MaintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report := g.eng.PerformMaintenance(engine.DefaultMaintenanceOptions())
			slog.Info("maintenance pass complete",
				"expired_removed", report.ExpiredRemoved,
				"orphans", report.OrphansRemoved,
				"recached", report.Recached)
		}
	}
}
