package telegram

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerDispatchesUpdates(t *testing.T) {
	api := &fakeAPI{respond: func(method string, n int, body map[string]any) (int, string) {
		if n == 1 {
			return http.StatusOK, `{"ok":true,"result":[
				{"update_id":1,"message":{"message_id":1,"chat":{"id":5},"from":{"id":9},"text":"/start"}},
				{"update_id":2}
			]}`
		}
		time.Sleep(10 * time.Millisecond)
		return http.StatusOK, `{"ok":true,"result":[]}`
	}}
	client := newFakeClient(t, api)

	got := make(chan Inbound, 4)
	d := NewDispatcher(func(_ context.Context, in Inbound) { got <- in }, DispatcherConfig{}, nil, nil)
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller(client, d, nil)
	p.timeout = time.Second

	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	select {
	case in := <-got:
		assert.Equal(t, "9", in.UserID)
		assert.Equal(t, "/start", in.Input.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("update was not dispatched")
	}

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop")
	}

	calls := api.recorded()
	require.GreaterOrEqual(t, len(calls), 2)
	assert.Equal(t, float64(3), calls[1].Body["offset"])
}
