package model

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wwebgo/wweb/internal/wid"
)

// Chat is the common surface of private and group chats. Capability-specific
// operations live only on the matching variant: use a type switch or the
// AsGroup helper to reach group metadata.
type Chat interface {
	// ID returns the chat identifier.
	ID() wid.WID
	// Name returns the display name.
	Name() string
	// IsGroup reports whether the chat is a group chat.
	IsGroup() bool
	// IsReadOnly reports whether messages can no longer be sent.
	IsReadOnly() bool
	// IsArchived reports the archive state at snapshot time.
	IsArchived() bool
	// IsPinned reports the pin state at snapshot time.
	IsPinned() bool
	// IsMuted reports the mute state at snapshot time.
	IsMuted() bool
	// MuteExpiration returns when the mute ends, zero if unmuted.
	MuteExpiration() time.Time
	// UnreadCount returns the unread message count at snapshot time.
	UnreadCount() int
	// Timestamp returns the last activity time.
	Timestamp() time.Time
	// LastMessageID returns the id of the most recent message, if any.
	// The message itself is looked up on demand, never owned.
	LastMessageID() *RawMessageID
	// LastMessage resolves the most recent message through the session
	// handle. Returns nil when the chat has none.
	LastMessage(ctx context.Context) (*Message, error)
	// RawData returns the unmodified snapshot the chat was built from.
	RawData() json.RawMessage
}

// chatBase carries the fields shared by both variants. All metadata is a
// point-in-time snapshot; callers re-fetch to observe changes.
type chatBase struct {
	session        Session
	raw            json.RawMessage
	id             wid.WID
	name           string
	readOnly       bool
	archived       bool
	pinned         bool
	muted          bool
	muteExpiration int64
	unreadCount    int
	timestamp      int64
	lastMessageID  *RawMessageID
}

func (c *chatBase) ID() wid.WID               { return c.id }
func (c *chatBase) Name() string              { return c.name }
func (c *chatBase) IsReadOnly() bool          { return c.readOnly }
func (c *chatBase) IsArchived() bool          { return c.archived }
func (c *chatBase) IsPinned() bool            { return c.pinned }
func (c *chatBase) IsMuted() bool             { return c.muted }
func (c *chatBase) UnreadCount() int          { return c.unreadCount }
func (c *chatBase) Timestamp() time.Time      { return time.Unix(c.timestamp, 0) }
func (c *chatBase) LastMessageID() *RawMessageID { return c.lastMessageID }
func (c *chatBase) RawData() json.RawMessage  { return c.raw }

func (c *chatBase) MuteExpiration() time.Time {
	if c.muteExpiration <= 0 {
		return time.Time{}
	}
	return time.Unix(c.muteExpiration, 0)
}

func (c *chatBase) LastMessage(ctx context.Context) (*Message, error) {
	if c.lastMessageID == nil {
		return nil, nil
	}
	return c.session.GetMessageByID(ctx, c.lastMessageID.Serialized)
}

// PrivateChat is a direct conversation with a single contact.
type PrivateChat struct {
	chatBase
}

// IsGroup always reports false for a private chat.
func (c *PrivateChat) IsGroup() bool { return false }

// GetContact fetches the contact the conversation is with.
func (c *PrivateChat) GetContact(ctx context.Context) (Contact, error) {
	return c.session.GetContactByID(ctx, c.id.String())
}

// GroupParticipant is one member of a group participant snapshot.
type GroupParticipant struct {
	ID           wid.WID
	IsAdmin      bool
	IsSuperAdmin bool
}

// GroupChat is a group conversation. Its metadata, including the
// participant list, is a snapshot taken at construction.
type GroupChat struct {
	chatBase
	owner        wid.WID
	createdAt    int64
	description  string
	participants []GroupParticipant
}

// IsGroup always reports true for a group chat.
func (c *GroupChat) IsGroup() bool { return true }

// Owner returns the group owner's identifier.
func (c *GroupChat) Owner() wid.WID { return c.owner }

// CreatedAt returns the group creation time.
func (c *GroupChat) CreatedAt() time.Time { return time.Unix(c.createdAt, 0) }

// Description returns the group description at snapshot time.
func (c *GroupChat) Description() string { return c.description }

// Participants returns the participant snapshot.
func (c *GroupChat) Participants() []GroupParticipant { return c.participants }

// AsGroup narrows a Chat to its group variant.
func AsGroup(c Chat) (*GroupChat, bool) {
	g, ok := c.(*GroupChat)
	return g, ok
}

// NewChat builds the correctly-typed chat variant from a raw snapshot,
// dispatching on the isGroup discriminant. A missing discriminant yields
// the private variant.
func NewChat(session Session, data []byte) (Chat, error) {
	var raw RawChat
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("model: decode chat snapshot: %w", err)
	}
	c := FromRawChat(session, &raw)
	switch v := c.(type) {
	case *PrivateChat:
		v.raw = append(json.RawMessage(nil), data...)
	case *GroupChat:
		v.raw = append(json.RawMessage(nil), data...)
	}
	return c, nil
}

// FromRawChat builds the chat variant from an already-decoded snapshot.
func FromRawChat(session Session, raw *RawChat) Chat {
	base := chatBase{
		session:        session,
		id:             raw.ID,
		name:           raw.Name,
		readOnly:       raw.IsReadOnly,
		archived:       raw.Archived,
		pinned:         raw.Pinned,
		muted:          raw.IsMuted,
		muteExpiration: raw.MuteExpiration,
		unreadCount:    raw.UnreadCount,
		timestamp:      raw.Timestamp,
		lastMessageID:  raw.LastMessageID,
	}
	base.raw, _ = json.Marshal(raw)

	if !raw.IsGroup {
		return &PrivateChat{chatBase: base}
	}

	g := &GroupChat{chatBase: base}
	if meta := raw.GroupMetadata; meta != nil {
		g.owner = meta.Owner
		g.createdAt = meta.Creation
		g.description = meta.Description
		for _, p := range meta.Participants {
			g.participants = append(g.participants, GroupParticipant(p))
		}
	}
	return g
}
