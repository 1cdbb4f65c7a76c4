package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/mmynk/pricebook/internal/auth"
	"github.com/mmynk/pricebook/internal/middleware"
	"github.com/mmynk/pricebook/internal/server"
	"github.com/mmynk/pricebook/internal/service"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the Telegram webhook, the turn API, health and metrics over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	c, err := a.buildCore(ctx)
	if err != nil {
		return err
	}
	defer c.store.Close()

	opts := server.Options{
		WebhookSecret: a.cfg.WebhookSecret,
		Gatherer:      c.registry,
		Logger:        a.logger,
	}

	if a.cfg.RequireTelegram() == nil {
		client, dispatcher := a.telegramRuntime(c)
		defer dispatcher.Close()
		opts.Updates = dispatcher

		if url := a.cfg.WebhookURL(); url != "" {
			setCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := client.SetWebhook(setCtx, url, a.cfg.WebhookSecret)
			cancel()
			if err != nil {
				return err
			}
			a.logger.Info("Webhook registered", "url", url)
		} else {
			a.logger.Warn("PUBLIC_URL not set, webhook not registered")
		}
	} else {
		a.logger.Warn("TELEGRAM_BOT_TOKEN not set, Telegram webhook disabled")
	}

	if a.cfg.JWTSecret != "" {
		jwtManager := auth.NewJWTManager(a.cfg.JWTSecret, 24*time.Hour)
		path, handler := service.NewTurnService(c.machine, c.metrics).Handler(
			connect.WithInterceptors(
				middleware.LoggingInterceptor(a.logger),
				middleware.RequireAuth(jwtManager),
			),
		)
		opts.Routes = append(opts.Routes, server.Route{Path: path, Handler: handler})
	} else {
		a.logger.Warn("JWT_SECRET not set, turn API disabled")
	}

	return server.New(opts).Run(ctx, a.cfg.Addr())
}
