package client

import (
	"context"
	"encoding/json"

	"github.com/wwebgo/wweb/internal/model"
)

// GetMessageByID fetches one message snapshot. Returns nil without error
// when the message is not known to the remote store.
func (c *Client) GetMessageByID(ctx context.Context, id string) (*model.Message, error) {
	raw, err := c.execute(ctx, fnGetMessage, id)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}
	return model.NewMessage(c, raw)
}

// SearchMessages runs a full-text search on the remote store. A zero page
// or limit leaves the remote defaults in place.
func (c *Client) SearchMessages(ctx context.Context, query string, page, limit int, chatID string) ([]*model.Message, error) {
	raw, err := c.execute(ctx, fnSearchMessages, query, page, limit, chatID)
	if err != nil {
		return nil, err
	}
	var snapshots []json.RawMessage
	if err := json.Unmarshal(raw, &snapshots); err != nil {
		return nil, err
	}
	msgs := make([]*model.Message, 0, len(snapshots))
	for _, snap := range snapshots {
		msg, err := model.NewMessage(c, snap)
		if err != nil {
			c.logger.Debug("skipping malformed search result")
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// DeleteMessage revokes a message for everyone or clears it locally.
func (c *Client) DeleteMessage(ctx context.Context, messageID string, everyone bool) error {
	_, err := c.execute(ctx, fnDeleteMessage, messageID, everyone)
	return err
}

// StarMessage stars or unstars a message.
func (c *Client) StarMessage(ctx context.Context, messageID string, starred bool) error {
	_, err := c.execute(ctx, fnStarMessage, messageID, starred)
	return err
}

// React sets the caller's reaction on a message. An empty reaction removes
// a previous one.
func (c *Client) React(ctx context.Context, messageID, reaction string) error {
	_, err := c.execute(ctx, fnReactToMessage, messageID, reaction)
	return err
}

// EditMessage replaces the body of an own message and returns the edited
// snapshot.
func (c *Client) EditMessage(ctx context.Context, messageID, newBody string) (*model.Message, error) {
	raw, err := c.execute(ctx, fnEditMessage, messageID, newBody)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}
	return model.NewMessage(c, raw)
}

// Forward forwards a message to another chat.
func (c *Client) Forward(ctx context.Context, messageID, chatID string) error {
	_, err := c.execute(ctx, fnForwardMessage, messageID, chatID)
	return err
}
