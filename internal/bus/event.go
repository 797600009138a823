package bus

import "time"

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Canonical event kinds. Subscribers filter by namespace prefix, so
// "message." matches every message event and "" matches everything.
const (
	KindQR            = "session.qr"
	KindPairingCode   = "session.pairing_code"
	KindAuthenticated = "session.authenticated"
	KindAuthFailure   = "session.auth_failure"
	KindLoading       = "session.loading"
	KindReady         = "session.ready"
	KindStateChanged  = "session.state_changed"
	KindDisconnected  = "session.disconnected"
	KindLifecycle     = "session.lifecycle"

	KindMessageCreated  = "message.created"
	KindMessageReceived = "message.received"
	KindMessageAck      = "message.ack"
	KindRevokedEveryone = "message.revoked_everyone"
	KindRevokedMe       = "message.revoked_me"
	KindMessageEdited   = "message.edited"
	KindReaction        = "message.reaction"

	KindMediaUploaded = "media.uploaded"

	KindGroupJoin              = "group.join"
	KindGroupLeave             = "group.leave"
	KindGroupAdminChanged      = "group.admin_changed"
	KindGroupUpdate            = "group.update"
	KindGroupMembershipRequest = "group.membership_request"

	KindContactChanged = "contact.changed"

	KindIncomingCall = "call.incoming"

	KindChatRemoved     = "chat.removed"
	KindChatArchived    = "chat.archived"
	KindChatUnreadCount = "chat.unread_count"

	KindOutboxQueued = "outbox.queued"
	KindOutboxSent   = "outbox.sent"
	KindOutboxFailed = "outbox.failed"
)
