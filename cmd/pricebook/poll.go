package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mmynk/pricebook/internal/telegram"
)

func newPollCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Long-poll Telegram for updates (no public URL needed)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RequireTelegram(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.poll(ctx)
		},
	}
}

func (a *app) poll(ctx context.Context) error {
	c, err := a.buildCore(ctx)
	if err != nil {
		return err
	}
	defer c.store.Close()

	client, dispatcher := a.telegramRuntime(c)
	defer dispatcher.Close()

	// getUpdates is refused while a webhook is registered.
	if err := client.DeleteWebhook(ctx); err != nil {
		return err
	}

	a.logger.Info("Polling for updates", "workers", a.cfg.Workers)
	err = telegram.NewPoller(client, dispatcher, a.logger).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
