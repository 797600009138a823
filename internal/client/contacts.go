package client

import (
	"context"
	"encoding/json"

	"github.com/wwebgo/wweb/internal/model"
	"github.com/wwebgo/wweb/internal/wid"
)

// GetContacts lists every contact known to the remote store.
func (c *Client) GetContacts(ctx context.Context) ([]model.Contact, error) {
	return c.contactList(ctx, fnGetContacts)
}

// GetBlockedContacts lists the contacts the session has blocked.
func (c *Client) GetBlockedContacts(ctx context.Context) ([]model.Contact, error) {
	return c.contactList(ctx, fnGetBlockedContacts)
}

func (c *Client) contactList(ctx context.Context, fn string) ([]model.Contact, error) {
	raw, err := c.execute(ctx, fn)
	if err != nil {
		return nil, err
	}
	var snapshots []json.RawMessage
	if err := json.Unmarshal(raw, &snapshots); err != nil {
		return nil, err
	}
	contacts := make([]model.Contact, 0, len(snapshots))
	for _, snap := range snapshots {
		contact, err := model.NewContact(c, snap)
		if err != nil {
			c.logger.Debug("skipping malformed contact snapshot")
			continue
		}
		contacts = append(contacts, contact)
	}
	return contacts, nil
}

// GetContactByID fetches a single contact snapshot.
func (c *Client) GetContactByID(ctx context.Context, id string) (model.Contact, error) {
	raw, err := c.execute(ctx, fnGetContact, id)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}
	return model.NewContact(c, raw)
}

// GetCommonGroups lists the group ids shared with a contact.
func (c *Client) GetCommonGroups(ctx context.Context, contactID string) ([]wid.WID, error) {
	var ids []wid.WID
	if _, err := c.executeInto(ctx, &ids, fnGetCommonGroups, contactID); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetFormattedNumber returns a contact's number in international display
// format.
func (c *Client) GetFormattedNumber(ctx context.Context, contactID string) (string, error) {
	var formatted string
	if _, err := c.executeInto(ctx, &formatted, fnFormatNumber, contactID); err != nil {
		return "", err
	}
	return formatted, nil
}

// GetCountryCode returns the dialing country code of a contact's number.
func (c *Client) GetCountryCode(ctx context.Context, contactID string) (string, error) {
	var code string
	if _, err := c.executeInto(ctx, &code, fnCountryCode, contactID); err != nil {
		return "", err
	}
	return code, nil
}
