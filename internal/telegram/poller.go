package telegram

import (
	"context"
	"log/slog"
	"time"
)

// Poller feeds getUpdates results into a Dispatcher. Used when no public
// webhook URL is available.
type Poller struct {
	client     *Client
	dispatcher *Dispatcher
	logger     *slog.Logger
	timeout    time.Duration
	backoff    time.Duration
}

func NewPoller(client *Client, dispatcher *Dispatcher, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		client:     client,
		dispatcher: dispatcher,
		logger:     logger,
		timeout:    30 * time.Second,
		backoff:    2 * time.Second,
	}
}

// Run polls until ctx is done and returns ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	var offset int64
	for {
		updates, next, err := p.client.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Warn("getUpdates failed", "offset", offset, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.backoff):
			}
			continue
		}

		offset = next
		for _, u := range updates {
			// Rejections are logged and counted by the dispatcher.
			_ = p.dispatcher.SubmitUpdate("poll", u)
		}
	}
}
