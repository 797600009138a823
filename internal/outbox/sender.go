// Package outbox drains queued outgoing messages through the live session,
// surviving daemon restarts between queueing and delivery.
package outbox

import (
	"context"
	"time"

	"github.com/wwebgo/wweb/internal/bus"
	"github.com/wwebgo/wweb/internal/store"
	"github.com/wwebgo/wweb/internal/wid"
	"go.uber.org/zap"
)

// TextSender submits one text message and returns the confirmed server
// message id. Satisfied by the client façade through a thin adapter.
type TextSender interface {
	SendText(ctx context.Context, chatID wid.WID, text string) (serverMsgID string, err error)
}

// Sender polls the outbox and delivers pending entries in queue order.
type Sender struct {
	db     *store.DB
	sender TextSender
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc

	interval time.Duration
}

// NewSender creates an outbox sender.
func NewSender(db *store.DB, sender TextSender, b *bus.Bus, logger *zap.Logger) *Sender {
	return &Sender{
		db:       db,
		sender:   sender,
		bus:      b,
		logger:   logger,
		interval: 500 * time.Millisecond,
	}
}

// Queue adds a message to the outbox and announces it.
func (s *Sender) Queue(clientMsgID string, chatID wid.WID, body string) error {
	if err := s.db.QueueOutbox(clientMsgID, chatID.String(), body); err != nil {
		return err
	}
	s.bus.Emit(bus.KindOutboxQueued, map[string]string{
		"client_msg_id": clientMsgID,
		"chat":          chatID.String(),
	})
	return nil
}

// Start begins polling for pending entries.
func (s *Sender) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
}

// Stop stops the drain loop.
func (s *Sender) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Sender) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Drain(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Drain delivers every currently pending entry, oldest first. Individual
// failures are recorded on their entry and do not stop the pass.
func (s *Sender) Drain(ctx context.Context) {
	pending, err := s.db.PendingOutbox()
	if err != nil {
		s.logger.Error("failed to read outbox", zap.Error(err))
		return
	}

	for _, entry := range pending {
		chatID, err := wid.Parse(entry.ChatWID)
		if err != nil {
			s.logger.Error("dropping outbox entry with malformed chat id",
				zap.String("client_msg_id", entry.ClientMsgID), zap.Error(err))
			_ = s.db.MarkOutboxFailed(entry.ClientMsgID, err.Error())
			continue
		}

		if err := s.db.MarkOutboxSending(entry.ClientMsgID); err != nil {
			s.logger.Error("failed to mark sending", zap.Error(err),
				zap.String("client_msg_id", entry.ClientMsgID))
			continue
		}

		serverMsgID, err := s.sender.SendText(ctx, chatID, entry.Body)
		if err != nil {
			s.logger.Error("outbox delivery failed", zap.Error(err),
				zap.String("client_msg_id", entry.ClientMsgID))
			_ = s.db.MarkOutboxFailed(entry.ClientMsgID, err.Error())
			s.bus.Emit(bus.KindOutboxFailed, map[string]string{
				"client_msg_id": entry.ClientMsgID,
				"error":         err.Error(),
			})
			continue
		}

		if err := s.db.MarkOutboxSent(entry.ClientMsgID, serverMsgID); err != nil {
			s.logger.Error("failed to mark sent", zap.Error(err),
				zap.String("client_msg_id", entry.ClientMsgID))
		}
		s.logger.Info("outbox entry delivered",
			zap.String("client_msg_id", entry.ClientMsgID),
			zap.String("server_msg_id", serverMsgID))
		s.bus.Emit(bus.KindOutboxSent, map[string]string{
			"client_msg_id": entry.ClientMsgID,
			"server_msg_id": serverMsgID,
		})
	}
}
