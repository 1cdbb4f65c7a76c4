// Package service exposes the dialog over Connect so scripts and other
// front-ends can drive a user's session without Telegram.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mmynk/pricebook/internal/dialog"
	"github.com/mmynk/pricebook/internal/metrics"
	"github.com/mmynk/pricebook/internal/middleware"
)

// HandleTurnProcedure is the Connect procedure path of TurnService.HandleTurn.
const HandleTurnProcedure = "/pricebook.v1.TurnService/HandleTurn"

// TurnHandler runs one dialog turn. Implemented by *dialog.Machine.
type TurnHandler interface {
	HandleTurn(ctx context.Context, userID string, in dialog.Input) dialog.Result
}

// TurnService implements the Connect TurnService.
//
// Request:  {"text": "...", "action": "..."}
// Response: {"state": "...", "outcome": "...", "replies": [{"text", "keyboard", "actions"}]}
type TurnService struct {
	turns   TurnHandler
	metrics *metrics.Metrics
}

// NewTurnService creates a new TurnService backed by turns.
func NewTurnService(turns TurnHandler, m *metrics.Metrics) *TurnService {
	return &TurnService{turns: turns, metrics: m}
}

// Handler returns the procedure path and HTTP handler, like generated Connect code.
func (s *TurnService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	return HandleTurnProcedure, connect.NewUnaryHandler(HandleTurnProcedure, s.HandleTurn, opts...)
}

// HandleTurn runs one turn for the authenticated user.
func (s *TurnService) HandleTurn(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("no user on request"))
	}

	in, err := decodeInput(req.Msg)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	slog.Info("HandleTurn request received", "user_id", userID, "has_action", in.Action != "")

	start := time.Now()
	res := s.turns.HandleTurn(ctx, userID, in)
	s.metrics.ObserveTurn("api", res.Outcome.String(), time.Since(start))

	out, err := encodeResult(res)
	if err != nil {
		slog.Error("HandleTurn encode failed", "user_id", userID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

func decodeInput(msg *structpb.Struct) (dialog.Input, error) {
	var in dialog.Input
	for key, v := range msg.GetFields() {
		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return in, fmt.Errorf("field %q must be a string", key)
		}
		switch key {
		case "text":
			in.Text = s.StringValue
		case "action":
			in.Action = s.StringValue
		default:
			return in, fmt.Errorf("unknown field %q", key)
		}
	}
	return in, nil
}

func encodeResult(res dialog.Result) (*structpb.Struct, error) {
	replies := make([]any, len(res.Replies))
	for i, r := range res.Replies {
		actions := make([]any, len(r.Actions))
		for j, a := range r.Actions {
			actions[j] = map[string]any{"label": a.Label, "data": a.Data}
		}
		replies[i] = map[string]any{
			"text":     r.Text,
			"keyboard": r.Keyboard.String(),
			"actions":  actions,
		}
	}
	return structpb.NewStruct(map[string]any{
		"state":   res.State.String(),
		"outcome": res.Outcome.String(),
		"replies": replies,
	})
}
