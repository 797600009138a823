package events

import (
	"context"
	"encoding/json"

	"github.com/wwebgo/wweb/internal/bus"
	"github.com/wwebgo/wweb/internal/status"
	"go.uber.org/zap"
)

// AuthPort is the slice of the boundary the auth flow needs. Satisfied by
// the client façade.
type AuthPort interface {
	// IsRegistered probes whether the session identity is registered.
	IsRegistered(ctx context.Context) (bool, error)
	// RequestPairingCode obtains a linking code for the given phone number.
	RequestPairingCode(ctx context.Context, phone string) (string, error)
	// WaitUntilLoaded blocks until the main session reports fully loaded.
	WaitUntilLoaded(ctx context.Context) error
	// StreamInfo captures best-effort diagnostic stream state.
	StreamInfo(ctx context.Context) json.RawMessage
}

// RunAuthFlow drives authentication to readiness. The registration probe
// has three outcomes: not registered (pairing credential emitted; QR codes
// arrive through the mutation stream, a linking code is fetched when a
// phone number was pre-configured), registered (await readiness), or error
// (auth failure with diagnostics). Only after registration is confirmed
// does the flow await the fully-loaded signal, then emit authenticated and
// finally ready.
func (n *Normalizer) RunAuthFlow(ctx context.Context, port AuthPort, phone string) error {
	registered, err := port.IsRegistered(ctx)
	if err != nil {
		n.failAuth(ctx, port, err)
		return err
	}

	if registered {
		_ = n.machine.Transition(status.Authenticating)
	} else {
		_ = n.machine.Transition(status.AuthRequired)
		if phone != "" {
			code, codeErr := port.RequestPairingCode(ctx, phone)
			if codeErr != nil {
				n.failAuth(ctx, port, codeErr)
				return codeErr
			}
			n.bus.Emit(bus.KindPairingCode, PairingCode{Code: code})
		}
	}

	// For an unregistered identity this wait spans the whole pairing
	// exchange; no deadline is imposed here.
	if err := port.WaitUntilLoaded(ctx); err != nil {
		n.failAuth(ctx, port, err)
		return err
	}

	if n.machine.Current() == status.AuthRequired {
		_ = n.machine.Transition(status.Authenticating)
	}
	n.bus.Emit(bus.KindAuthenticated, nil)
	n.logger.Info("session authenticated")

	// Ready may trail a history-sync phase; loading progress events have
	// already been streaming through the mutation queue.
	_ = n.machine.Transition(status.Ready)
	n.bus.Emit(bus.KindReady, nil)
	n.logger.Info("session ready")
	return nil
}

func (n *Normalizer) failAuth(ctx context.Context, port AuthPort, cause error) {
	n.logger.Error("authentication failed", zap.Error(cause))
	n.bus.Emit(bus.KindAuthFailure, AuthFailure{
		Message: cause.Error(),
		Stream:  port.StreamInfo(ctx),
	})
	_ = n.machine.Transition(status.Failed)
}
