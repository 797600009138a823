package client

import (
	"context"
	"encoding/json"

	"github.com/wwebgo/wweb/internal/model"
)

// GetLabels lists the business labels defined on the account.
func (c *Client) GetLabels(ctx context.Context) ([]*model.Label, error) {
	return c.labelList(ctx, fnGetLabels)
}

// GetLabelByID fetches a single label. Returns nil when it does not exist.
func (c *Client) GetLabelByID(ctx context.Context, id string) (*model.Label, error) {
	var raw model.RawLabel
	ok, err := c.executeInto(ctx, &raw, fnGetLabel, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return model.NewLabel(&raw), nil
}

// GetChatLabels lists the labels applied to one chat.
func (c *Client) GetChatLabels(ctx context.Context, chatID string) ([]*model.Label, error) {
	return c.labelList(ctx, fnGetChatLabels, chatID)
}

func (c *Client) labelList(ctx context.Context, fn string, args ...any) ([]*model.Label, error) {
	var raws []model.RawLabel
	if _, err := c.executeInto(ctx, &raws, fn, args...); err != nil {
		return nil, err
	}
	labels := make([]*model.Label, 0, len(raws))
	for i := range raws {
		labels = append(labels, model.NewLabel(&raws[i]))
	}
	return labels, nil
}

// GetChatsByLabelID lists the chats tagged with a label.
func (c *Client) GetChatsByLabelID(ctx context.Context, labelID string) ([]model.Chat, error) {
	raw, err := c.execute(ctx, fnGetChatsByLabel, labelID)
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
			continue
		}
		chats = append(chats, chat)
	}
	return chats, nil
}
