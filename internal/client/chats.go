package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wwebgo/wweb/internal/model"
)

// GetChats lists every chat known to the remote store.
func (c *Client) GetChats(ctx context.Context) ([]model.Chat, error) {
	raw, err := c.execute(ctx, fnGetChats)
	if err != nil {
		return nil, err
	}
	var snapshots []json.RawMessage
	if err := json.Unmarshal(raw, &snapshots); err != nil {
		return nil, err
	}
	chats := make([]model.Chat, 0, len(snapshots))
	for _, snap := range snapshots {
		chat, err := model.NewChat(c, snap)
		if err != nil {
			c.logger.Debug("skipping malformed chat snapshot")
			continue
		}
		chats = append(chats, chat)
	}
	return chats, nil
}

// GetChatByID fetches a single chat snapshot.
func (c *Client) GetChatByID(ctx context.Context, id string) (model.Chat, error) {
	raw, err := c.execute(ctx, fnGetChat, id)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}
	return model.NewChat(c, raw)
}

// ArchiveChat moves a chat into the archive.
func (c *Client) ArchiveChat(ctx context.Context, chatID string) error {
	_, err := c.execute(ctx, fnArchiveChat, chatID, true)
	return err
}

// UnarchiveChat restores a chat from the archive.
func (c *Client) UnarchiveChat(ctx context.Context, chatID string) error {
	_, err := c.execute(ctx, fnArchiveChat, chatID, false)
	return err
}

// PinChat pins a chat. The remote refuses past the pin limit; that refusal
// surfaces as false.
func (c *Client) PinChat(ctx context.Context, chatID string) (bool, error) {
	var ok bool
	if _, err := c.executeInto(ctx, &ok, fnPinChat, chatID, true); err != nil {
		return false, err
	}
	return ok, nil
}

// UnpinChat unpins a chat.
func (c *Client) UnpinChat(ctx context.Context, chatID string) (bool, error) {
	var ok bool
	if _, err := c.executeInto(ctx, &ok, fnPinChat, chatID, false); err != nil {
		return false, err
	}
	return ok, nil
}

// MuteChat silences a chat until the given time; a zero time mutes forever.
func (c *Client) MuteChat(ctx context.Context, chatID string, until time.Time) error {
	var expiration int64 = -1
	if !until.IsZero() {
		expiration = until.Unix()
	}
	_, err := c.execute(ctx, fnMuteChat, chatID, expiration)
	return err
}

// UnmuteChat lifts a mute.
func (c *Client) UnmuteChat(ctx context.Context, chatID string) error {
	_, err := c.execute(ctx, fnMuteChat, chatID, 0)
	return err
}

// MarkChatUnread flags a chat as unread without changing its messages.
func (c *Client) MarkChatUnread(ctx context.Context, chatID string) error {
	_, err := c.execute(ctx, fnMarkUnread, chatID)
	return err
}

// DeleteChat removes a chat from the remote store.
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	_, err := c.execute(ctx, fnDeleteChat, chatID)
	return err
}

// SendSeen marks every message in a chat as read.
func (c *Client) SendSeen(ctx context.Context, chatID string) error {
	_, err := c.execute(ctx, fnSendSeen, chatID)
	return err
}

// SendChatState broadcasts a typing/recording/paused indicator. An invalid
// state name is rejected before any dispatch.
func (c *Client) SendChatState(ctx context.Context, chatID string, state model.ChatState) error {
	if !state.Valid() {
		return fmt.Errorf("invalid chat state %q", state)
	}
	_, err := c.execute(ctx, fnSendChatState, chatID, string(state))
	return err
}

// ClearChatState resets the indicator set by SendChatState.
func (c *Client) ClearChatState(ctx context.Context, chatID string) error {
	_, err := c.execute(ctx, fnSendChatState, chatID, string(model.ChatStatePaused))
	return err
}
