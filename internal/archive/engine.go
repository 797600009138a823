// Package archive subscribes to domain events and maintains the local
// SQLite archive of chats, contacts and messages.
package archive

import (
	"context"
	"fmt"

	"github.com/wwebgo/wweb/internal/bus"
	"github.com/wwebgo/wweb/internal/events"
	"github.com/wwebgo/wweb/internal/model"
	"github.com/wwebgo/wweb/internal/store"
	"go.uber.org/zap"
)

// Engine ingests the event stream into the archive. Ingestion is
// idempotent: re-observing a message refreshes it rather than duplicating.
type Engine struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
}

// NewEngine creates an archive engine over the given database.
func NewEngine(db *store.DB, b *bus.Bus, logger *zap.Logger) *Engine {
	return &Engine{db: db, bus: b, logger: logger}
}

// Start subscribes to the event stream and ingests until the context is
// canceled.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	ch, unsub := e.bus.Subscribe("", 256)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				if err := e.handleEvent(evt); err != nil {
					e.logger.Error("archive ingestion failed",
						zap.String("kind", evt.Kind), zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the ingestion goroutine.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *Engine) handleEvent(evt bus.Event) error {
	switch evt.Kind {
	case bus.KindMessageCreated:
		msg, ok := evt.Payload.(*model.Message)
		if !ok {
			return nil
		}
		return e.IngestMessage(msg)

	case bus.KindMessageAck:
		ack, ok := evt.Payload.(events.MessageAck)
		if !ok {
			return nil
		}
		return e.db.SetAck(ack.Message.ChatID().String(), ack.Message.ID.Serialized, int(ack.Ack))

	case bus.KindRevokedEveryone:
		revoked, ok := evt.Payload.(events.RevokedEveryone)
		if !ok {
			return nil
		}
		return e.db.MarkRevoked(revoked.Message.ChatID().String(), revoked.Message.ID.Serialized)

	case bus.KindRevokedMe:
		msg, ok := evt.Payload.(*model.Message)
		if !ok {
			return nil
		}
		return e.db.MarkRevoked(msg.ChatID().String(), msg.ID.Serialized)

	case bus.KindMessageEdited:
		msg, ok := evt.Payload.(*model.Message)
		if !ok {
			return nil
		}
		return e.db.ApplyEdit(msg.ChatID().String(), msg.ID.Serialized, msg.Body)

	case bus.KindChatArchived:
		archived, ok := evt.Payload.(events.ChatArchived)
		if !ok {
			return nil
		}
		return e.db.SetChatArchived(archived.Chat.ID().String(), archived.Archived)

	case bus.KindChatUnreadCount:
		unread, ok := evt.Payload.(events.UnreadCount)
		if !ok {
			return nil
		}
		return e.db.SetChatUnreadCount(unread.Chat.ID().String(), unread.Chat.UnreadCount())

	case bus.KindChatRemoved:
		chat, ok := evt.Payload.(model.Chat)
		if !ok {
			return nil
		}
		return e.db.DeleteChat(chat.ID().String())

	case bus.KindContactChanged:
		changed, ok := evt.Payload.(events.ContactChanged)
		if !ok {
			return nil
		}
		return e.db.RenameContact(changed.OldID.String(), changed.NewID.String())
	}
	return nil
}

// IngestMessage archives one message and refreshes its chat row.
func (e *Engine) IngestMessage(msg *model.Message) error {
	if msg.Type.IsNotification() {
		return nil
	}
	chatWID := msg.ChatID().String()

	if err := e.db.UpsertChat(&store.Chat{
		WID:                chatWID,
		LastMessageAt:      msg.Timestamp.UnixMilli(),
		LastMessagePreview: truncate(msg.Body, 100),
	}); err != nil {
		return fmt.Errorf("upsert chat: %w", err)
	}

	if err := e.db.UpsertMessage(&store.Message{
		ChatWID:     chatWID,
		MsgID:       msg.ID.Serialized,
		SenderWID:   msg.SenderID().String(),
		Body:        msg.Body,
		MessageType: string(msg.Type),
		FromMe:      msg.FromMe,
		Ack:         int(msg.Ack),
		Revoked:     msg.Type == model.MessageTypeRevoked,
		Timestamp:   msg.Timestamp.UnixMilli(),
	}); err != nil {
		return fmt.Errorf("upsert message: %w", err)
	}
	return nil
}

// SyncContacts applies a full contact listing to the archive.
func (e *Engine) SyncContacts(contacts []model.Contact) error {
	rows := make([]store.Contact, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, store.Contact{
			WID:        c.ID().String(),
			Name:       c.Name(),
			PushName:   c.PushName(),
			Number:     c.Number(),
			IsBusiness: c.IsBusiness(),
		})
	}
	return e.db.BulkUpsertContacts(rows)
}

// SyncChats applies a full chat listing to the archive.
func (e *Engine) SyncChats(chats []model.Chat) error {
	for _, c := range chats {
		row := &store.Chat{
			WID:         c.ID().String(),
			Name:        c.Name(),
			IsGroup:     c.IsGroup(),
			Archived:    c.IsArchived(),
			Pinned:      c.IsPinned(),
			UnreadCount: c.UnreadCount(),
		}
		if ts := c.Timestamp(); !ts.IsZero() {
			row.LastMessageAt = ts.UnixMilli()
		}
		if err := e.db.UpsertChat(row); err != nil {
			return fmt.Errorf("upsert chat %s: %w", row.WID, err)
		}
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
