package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mmynk/pricebook/internal/dialog"
	"github.com/mmynk/pricebook/internal/identity"
	"github.com/mmynk/pricebook/internal/metrics"
	"github.com/mmynk/pricebook/internal/storage"
	"github.com/mmynk/pricebook/internal/storage/postgres"
	"github.com/mmynk/pricebook/internal/storage/sqlite"
	"github.com/mmynk/pricebook/internal/telegram"
)

// core is the collaborator graph shared by serve and poll.
type core struct {
	store    storage.Store
	machine  *dialog.Machine
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func (a *app) buildCore(ctx context.Context) (*core, error) {
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	resolver := identity.NewResolver(store)
	machine := dialog.NewMachine(store, resolver, dialog.NewSessions(), a.logger)

	return &core{
		store:    store,
		machine:  machine,
		registry: registry,
		metrics:  metrics.New(registry),
	}, nil
}

func (a *app) openStore(ctx context.Context) (storage.Store, error) {
	if a.cfg.UsePostgres() {
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		store, err := postgres.New(connectCtx, a.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		a.logger.Info("Storage initialized", "driver", "postgres")
		return store, nil
	}

	store, err := sqlite.New(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	a.logger.Info("Storage initialized", "driver", "sqlite", "database", a.cfg.DBPath)
	return store, nil
}

// telegramRuntime wires the Bot API client, the reply adapter and the
// per-user dispatcher around the machine.
func (a *app) telegramRuntime(c *core) (*telegram.Client, *telegram.Dispatcher) {
	client := telegram.NewClient(nil, a.cfg.TelegramAPIBase, a.cfg.TelegramToken, a.logger)
	bot := telegram.NewBot(client, c.machine, c.metrics, a.logger)
	dispatcher := telegram.NewDispatcher(func(ctx context.Context, in telegram.Inbound) {
		// Send failures are logged by the bot.
		_ = bot.Handle(ctx, in)
	}, telegram.DispatcherConfig{Concurrency: a.cfg.Workers}, c.metrics, a.logger)
	return client, dispatcher
}
