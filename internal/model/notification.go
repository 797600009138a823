package model

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wwebgo/wweb/internal/wid"
)

// GroupNotification is a typed group system notification (participant
// added, promoted, subject changed, ...).
type GroupNotification struct {
	session Session

	ID           RawMessageID
	ChatID       wid.WID
	Author       wid.WID
	RecipientIDs []wid.WID
	Type         GroupNotificationType
	Timestamp    time.Time
	Body         string
}

// NewGroupNotification builds a group notification from a raw message
// snapshot carrying a group subtype.
func NewGroupNotification(session Session, raw *RawMessage) *GroupNotification {
	return &GroupNotification{
		session:      session,
		ID:           raw.ID,
		ChatID:       raw.ID.Remote,
		Author:       raw.Author,
		RecipientIDs: raw.RecipientIDs,
		Type:         GroupNotificationType(raw.Subtype),
		Timestamp:    time.Unix(raw.Timestamp, 0),
		Body:         raw.Body,
	}
}

// GetChat fetches the group chat the notification belongs to.
func (n *GroupNotification) GetChat(ctx context.Context) (Chat, error) {
	return n.session.GetChatByID(ctx, n.ChatID.String())
}

// GetContact fetches the contact that caused the notification.
func (n *GroupNotification) GetContact(ctx context.Context) (Contact, error) {
	return n.session.GetContactByID(ctx, n.Author.String())
}

// GetRecipients fetches the contacts affected by the notification.
func (n *GroupNotification) GetRecipients(ctx context.Context) ([]Contact, error) {
	var contacts []Contact
	for _, id := range n.RecipientIDs {
		c, err := n.session.GetContactByID(ctx, id.String())
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}

// Reaction is a single reaction observed on a message.
type Reaction struct {
	ID        RawMessageID
	Orphan    int
	MessageID RawMessageID
	Text      string
	SenderID  wid.WID
	Timestamp time.Time
	Read      bool
	Ack       Ack
}

// NewReaction builds a Reaction from its raw batch entry.
func NewReaction(raw *RawReaction) *Reaction {
	return &Reaction{
		ID:        raw.ID,
		Orphan:    raw.Orphan,
		MessageID: raw.MsgID,
		Text:      raw.Text,
		SenderID:  raw.SenderID,
		Timestamp: time.UnixMilli(raw.Timestamp),
		Read:      raw.Read,
		Ack:       raw.Ack,
	}
}

// Call is an incoming call notification.
type Call struct {
	ID                    string
	From                  wid.WID
	Timestamp             time.Time
	IsVideo               bool
	IsGroup               bool
	CanHandleLocally      bool
	WebClientShouldHandle bool
	Participants          []wid.WID
}

// NewCall builds a Call from its raw snapshot.
func NewCall(raw *RawCall) *Call {
	return &Call{
		ID:                    raw.ID,
		From:                  raw.From,
		Timestamp:             time.Unix(raw.Timestamp, 0),
		IsVideo:               raw.IsVideo,
		IsGroup:               raw.IsGroup,
		CanHandleLocally:      raw.CanHandleLocally,
		WebClientShouldHandle: raw.WebClientShouldHandle,
		Participants:          raw.Participants,
	}
}

// Label is a business label that chats can be tagged with.
type Label struct {
	ID       string
	Name     string
	HexColor string
}

// NewLabel builds a Label from its raw snapshot.
func NewLabel(raw *RawLabel) *Label {
	return &Label{ID: raw.ID, Name: raw.Name, HexColor: raw.HexColor}
}

// UnmarshalRaw decodes a snapshot payload into the given raw type,
// tolerating partially-populated objects.
func UnmarshalRaw[T any](data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
