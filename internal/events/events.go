// Package events normalizes the live client's raw mutation stream into
// canonical domain events published on the bus.
package events

import (
	"encoding/json"

	"github.com/wwebgo/wweb/internal/model"
	"github.com/wwebgo/wweb/internal/wid"
)

// Raw mutation kinds pushed by the page-side listener through the
// boundary binding. One normalizer handler is bound per kind.
const (
	MutMessageAdd        = "msg.add"
	MutMessageTypeChange = "msg.change.type"
	MutMessageAckChange  = "msg.change.ack"
	MutMessageBodyChange = "msg.change.body"
	MutMessageRemove     = "msg.remove"
	MutMediaUploaded     = "msg.media_uploaded"
	MutChatRemove        = "chat.remove"
	MutChatArchive       = "chat.archive"
	MutChatUnread        = "chat.unread"
	MutStateChange       = "state.change"
	MutIncomingCall      = "call.add"
	MutReactionAdd       = "reaction.add"
	MutQRChange          = "auth.qr"
	MutLoadingProgress   = "auth.loading"
)

// mutation is the envelope every push callback carries.
type mutation struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// QR is the payload of a session.qr event.
type QR struct {
	Code string
}

// PairingCode is the payload of a session.pairing_code event.
type PairingCode struct {
	Code string
}

// AuthFailure is the payload of a session.auth_failure event. Stream holds
// best-effort diagnostic info captured from the remote environment.
type AuthFailure struct {
	Message string
	Stream  json.RawMessage
}

// Loading is the payload of a session.loading event.
type Loading struct {
	Percent float64
	Message string
}

// StateChange is the payload of a session.state_changed event, re-emitting
// the raw connection state verbatim.
type StateChange struct {
	State model.WAState
}

// Disconnected is the payload of a session.disconnected event.
type Disconnected struct {
	Reason model.WAState
}

// MessageAck is the payload of a message.ack event.
type MessageAck struct {
	Message *model.Message
	Ack     model.Ack
}

// RevokedEveryone is the payload of a message.revoked_everyone event.
// Previous is the pre-revocation snapshot when the revoked id matched the
// most recently observed message, nil otherwise. It is omitted, never
// fabricated.
type RevokedEveryone struct {
	Message  *model.Message
	Previous *model.Message
}

// ContactChanged is the payload of a contact.changed event, emitted when a
// participant or contact changes phone number.
type ContactChanged struct {
	Message   *model.Message
	OldID     wid.WID
	NewID     wid.WID
	IsContact bool
}

// ChatArchived is the payload of a chat.archived event.
type ChatArchived struct {
	Chat     model.Chat
	Archived bool
	Previous bool
}

// UnreadCount is the payload of a chat.unread_count event.
type UnreadCount struct {
	Chat model.Chat
}
