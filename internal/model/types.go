// Package model holds the typed domain entities built from raw snapshots
// observed across the remote boundary. Entities are value-like: once
// returned they are owned by the caller and hold no live reference into
// the remote object graph. Cross-references are plain identifiers resolved
// on demand through the Session handle.
package model

// MessageType enumerates the message types surfaced by the web client.
type MessageType string

const (
	MessageTypeText                 MessageType = "chat"
	MessageTypeImage                MessageType = "image"
	MessageTypeVideo                MessageType = "video"
	MessageTypeDocument             MessageType = "document"
	MessageTypeAudio                MessageType = "audio"
	MessageTypeVoice                MessageType = "ptt"
	MessageTypeSticker              MessageType = "sticker"
	MessageTypeLocation             MessageType = "location"
	MessageTypeContactCard          MessageType = "vcard"
	MessageTypeContactCardMulti     MessageType = "multi_vcard"
	MessageTypePoll                 MessageType = "poll_creation"
	MessageTypeGroupInvite          MessageType = "groups_v4_invite"
	MessageTypeOrder                MessageType = "order"
	MessageTypePayment              MessageType = "payment"
	MessageTypeRevoked              MessageType = "revoked"
	MessageTypeCiphertext           MessageType = "ciphertext"
	MessageTypeNotification         MessageType = "notification"
	MessageTypeNotificationTemplate MessageType = "notification_template"
	MessageTypeGroupNotification    MessageType = "gp2"
	MessageTypeE2ENotification      MessageType = "e2e_notification"
	MessageTypeCallLog              MessageType = "call_log"
	MessageTypeUnknown              MessageType = "unknown"
)

// IsNotification reports whether the type is a system notification rather
// than user content.
func (t MessageType) IsNotification() bool {
	switch t {
	case MessageTypeNotification, MessageTypeNotificationTemplate,
		MessageTypeGroupNotification, MessageTypeE2ENotification:
		return true
	}
	return false
}

// Ack is the delivery/read acknowledgment level of a sent message.
type Ack int

const (
	AckError   Ack = -1
	AckPending Ack = 0
	AckServer  Ack = 1
	AckDevice  Ack = 2
	AckRead    Ack = 3
	AckPlayed  Ack = 4
)

// ChatState is a presence indication shown inside a chat.
type ChatState string

const (
	ChatStateTyping    ChatState = "typing"
	ChatStateRecording ChatState = "recording"
	ChatStatePaused    ChatState = "paused"
)

// Valid reports whether the chat state is one the remote client accepts.
func (s ChatState) Valid() bool {
	switch s {
	case ChatStateTyping, ChatStateRecording, ChatStatePaused:
		return true
	}
	return false
}

// WAState is the connection state reported by the web client.
type WAState string

const (
	StateConflict          WAState = "CONFLICT"
	StateConnected         WAState = "CONNECTED"
	StateDeprecatedVersion WAState = "DEPRECATED_VERSION"
	StateOpening           WAState = "OPENING"
	StatePairing           WAState = "PAIRING"
	StateProxyBlock        WAState = "PROXYBLOCK"
	StateSMBTosBlock       WAState = "SMB_TOS_BLOCK"
	StateTimeout           WAState = "TIMEOUT"
	StateTosBlock          WAState = "TOS_BLOCK"
	StateUnlaunched        WAState = "UNLAUNCHED"
	StateUnpaired          WAState = "UNPAIRED"
	StateUnpairedIdle      WAState = "UNPAIRED_IDLE"
)

// GroupNotificationType enumerates group system notification subtypes.
type GroupNotificationType string

const (
	GroupNotificationAdd               GroupNotificationType = "add"
	GroupNotificationInvite            GroupNotificationType = "invite"
	GroupNotificationRemove            GroupNotificationType = "remove"
	GroupNotificationLeave             GroupNotificationType = "leave"
	GroupNotificationPromote           GroupNotificationType = "promote"
	GroupNotificationDemote            GroupNotificationType = "demote"
	GroupNotificationModify            GroupNotificationType = "modify"
	GroupNotificationCreate            GroupNotificationType = "create"
	GroupNotificationSubject           GroupNotificationType = "subject"
	GroupNotificationDescription       GroupNotificationType = "description"
	GroupNotificationPicture           GroupNotificationType = "picture"
	GroupNotificationAnnounce          GroupNotificationType = "announce"
	GroupNotificationRestrict          GroupNotificationType = "restrict"
	GroupNotificationMembershipRequest GroupNotificationType = "membership_approval_request"
)
