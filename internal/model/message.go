package model

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wwebgo/wweb/internal/media"
	"github.com/wwebgo/wweb/internal/wid"
)

// Location is the payload of a location message.
type Location struct {
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lng"`
	Description string  `json:"loc,omitempty"`
}

// PollOption is a single poll choice.
type PollOption struct {
	Name    string `json:"name"`
	LocalID int    `json:"localId"`
}

// Poll is the payload of a poll creation message, and the content type
// used to send one.
type Poll struct {
	Name                 string       `json:"pollName"`
	Options              []PollOption `json:"pollOptions"`
	AllowMultipleAnswers bool         `json:"pollAllowMultipleAnswers"`
}

// NewPoll builds a poll from its name and option labels.
func NewPoll(name string, options []string, allowMultiple bool) *Poll {
	p := &Poll{Name: name, AllowMultipleAnswers: allowMultiple}
	for i, opt := range options {
		p.Options = append(p.Options, PollOption{Name: opt, LocalID: i})
	}
	return p
}

// GroupInvite carries the details of a v4 group invite message.
type GroupInvite struct {
	GroupID    wid.WID
	GroupName  string
	InviteCode string
	Expiration time.Time
}

// Payment is the payload of a payment message.
type Payment struct {
	Currency             string
	Amount1000           int64
	TransactionTimestamp time.Time
	Status               int
}

// Message is the typed snapshot of a single message. It is immutable except
// through Reload (re-fetch) and targeted patches such as ApplyEdit.
type Message struct {
	session Session
	raw     json.RawMessage

	ID              RawMessageID
	Ack             Ack
	HasMedia        bool
	Body            string
	Type            MessageType
	Timestamp       time.Time
	From            wid.WID
	To              wid.WID
	Author          wid.WID
	DeviceType      string
	IsForwarded     bool
	ForwardingScore int
	IsStatus        bool
	IsStarred       bool
	FromMe          bool
	Broadcast       bool
	IsEphemeral     bool
	IsGif           bool
	HasReaction     bool
	EditedAt        time.Time
	Duration        string
	Mimetype        string
	Filename        string
	MediaSize       int64

	MentionedIDs []wid.WID
	VCards       []string

	Location *Location
	InviteV4 *GroupInvite
	Poll     *Poll
	OrderID  string
	Token    string
	Payment  *Payment
}

// NewMessage builds a Message from a raw snapshot. The original snapshot
// bytes are retained verbatim and returned by RawData.
func NewMessage(session Session, data []byte) (*Message, error) {
	var raw RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("model: decode message snapshot: %w", err)
	}
	m := fromRawMessage(session, &raw)
	m.raw = append(json.RawMessage(nil), data...)
	return m, nil
}

// FromRawMessage builds a Message from an already-decoded snapshot. The
// retained raw form is re-serialized from the snapshot.
func FromRawMessage(session Session, raw *RawMessage) *Message {
	m := fromRawMessage(session, raw)
	m.raw, _ = json.Marshal(raw)
	return m
}

func fromRawMessage(session Session, raw *RawMessage) *Message {
	m := &Message{
		session:         session,
		ID:              raw.ID,
		Ack:             raw.Ack,
		Body:            raw.Body,
		Type:            raw.Type,
		Timestamp:       time.Unix(raw.Timestamp, 0),
		From:            raw.From,
		To:              raw.To,
		Author:          raw.Author,
		DeviceType:      raw.DeviceType,
		IsForwarded:     raw.IsForwarded,
		ForwardingScore: raw.ForwardingScore,
		IsStarred:       raw.IsStarred,
		FromMe:          raw.ID.FromMe,
		Broadcast:       raw.Broadcast,
		IsEphemeral:     raw.IsEphemeral,
		IsGif:           raw.IsGif,
		HasReaction:     raw.HasReaction,
		Duration:        raw.Duration,
		Mimetype:        raw.Mimetype,
		Filename:        raw.Filename,
		MediaSize:       raw.Size,
		MentionedIDs:    raw.MentionedIDs,
		VCards:          raw.VCards,
		OrderID:         raw.OrderID,
		Token:           raw.OrderToken,
	}

	if m.Type == "" {
		m.Type = MessageTypeUnknown
	}
	if raw.LatestEditSenderTimestampMs > 0 {
		m.EditedAt = time.UnixMilli(raw.LatestEditSenderTimestampMs)
	}

	// Media presence requires both the key and the direct path; either one
	// alone is a partial snapshot, not downloadable media.
	m.HasMedia = raw.MediaKey != "" && raw.DirectPath != ""

	// Status messages are flagged explicitly or addressed to the status
	// broadcast channel.
	m.IsStatus = raw.IsStatus || raw.ID.Remote.IsStatus()

	switch raw.Type {
	case MessageTypeLocation:
		m.Location = &Location{Latitude: raw.Lat, Longitude: raw.Lng, Description: raw.Loc}
	case MessageTypePoll:
		p := &Poll{Name: raw.PollName, AllowMultipleAnswers: raw.PollAllowMultipleAnswers}
		for _, opt := range raw.PollOptions {
			p.Options = append(p.Options, PollOption(opt))
		}
		m.Poll = p
	case MessageTypeGroupInvite:
		if raw.InviteV4 != nil {
			m.InviteV4 = &GroupInvite{
				GroupID:    raw.InviteV4.GroupID,
				GroupName:  raw.InviteV4.GroupName,
				InviteCode: raw.InviteV4.InviteCode,
				Expiration: time.Unix(raw.InviteV4.InviteExp, 0),
			}
		}
	case MessageTypePayment:
		m.Payment = &Payment{
			Currency:             raw.PaymentCurrency,
			Amount1000:           raw.PaymentAmount1000,
			TransactionTimestamp: time.Unix(raw.PaymentTransactionTS, 0),
			Status:               raw.PaymentStatus,
		}
	}

	return m
}

// RawData returns the unmodified snapshot the message was built from.
func (m *Message) RawData() json.RawMessage {
	return m.raw
}

// ChatID returns the identifier of the chat the message belongs to.
func (m *Message) ChatID() wid.WID {
	return m.ID.Remote
}

// SenderID returns the identifier of the sending account: the author inside
// group chats, otherwise the from field.
func (m *Message) SenderID() wid.WID {
	if !m.Author.IsEmpty() {
		return m.Author
	}
	return m.From
}

// GetChat fetches a fresh snapshot of the chat the message belongs to.
func (m *Message) GetChat(ctx context.Context) (Chat, error) {
	return m.session.GetChatByID(ctx, m.ChatID().String())
}

// GetContact fetches a fresh snapshot of the sending contact.
func (m *Message) GetContact(ctx context.Context) (Contact, error) {
	return m.session.GetContactByID(ctx, m.SenderID().String())
}

// Reload re-fetches the message and returns the fresh snapshot, or nil if
// the message no longer exists.
func (m *Message) Reload(ctx context.Context) (*Message, error) {
	return m.session.GetMessageByID(ctx, m.ID.Serialized)
}

// Delete removes the message, for everyone when everyone is true and the
// message is our own, otherwise only locally.
func (m *Message) Delete(ctx context.Context, everyone bool) error {
	return m.session.DeleteMessage(ctx, m.ID.Serialized, everyone)
}

// Star marks the message as starred.
func (m *Message) Star(ctx context.Context) error {
	return m.session.StarMessage(ctx, m.ID.Serialized, true)
}

// Unstar removes the starred mark.
func (m *Message) Unstar(ctx context.Context) error {
	return m.session.StarMessage(ctx, m.ID.Serialized, false)
}

// React adds a reaction to the message. An empty string removes an
// existing reaction.
func (m *Message) React(ctx context.Context, reaction string) error {
	return m.session.React(ctx, m.ID.Serialized, reaction)
}

// Edit replaces the message body. Only own messages can be edited; the
// returned snapshot reflects the local echo of the edit.
func (m *Message) Edit(ctx context.Context, newBody string) (*Message, error) {
	if !m.FromMe {
		return nil, fmt.Errorf("model: cannot edit a message sent by %s", m.SenderID())
	}
	return m.session.EditMessage(ctx, m.ID.Serialized, newBody)
}

// ApplyEdit patches the local snapshot after a confirmed edit.
func (m *Message) ApplyEdit(newBody string, editedAt time.Time) {
	m.Body = newBody
	m.EditedAt = editedAt
}

// DownloadMedia fetches and decrypts the attached media. Returns an error
// when the message carries no media.
func (m *Message) DownloadMedia(ctx context.Context) (*media.Media, error) {
	if !m.HasMedia {
		return nil, fmt.Errorf("model: message %s has no media", m.ID.Serialized)
	}
	return m.session.DownloadMedia(ctx, m.ID.Serialized)
}
