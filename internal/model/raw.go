package model

import (
	"github.com/wwebgo/wweb/internal/wid"
)

// RawMessageID is the composite message identity as serialized by the
// remote client.
type RawMessageID struct {
	FromMe     bool    `json:"fromMe"`
	Remote     wid.WID `json:"remote"`
	ID         string  `json:"id"`
	Serialized string  `json:"_serialized"`
}

// RawPollOption is a single poll choice in a poll creation snapshot.
type RawPollOption struct {
	Name    string `json:"name"`
	LocalID int    `json:"localId"`
}

// RawGroupInvite carries group invite details attached to an invite message.
type RawGroupInvite struct {
	GroupID    wid.WID `json:"groupId"`
	GroupName  string  `json:"groupName"`
	InviteCode string  `json:"inviteCode"`
	InviteExp  int64   `json:"inviteCodeExp"`
}

// RawMessage is the plain snapshot of a message object crossing the
// boundary. Field names follow the remote client's serialized form.
type RawMessage struct {
	ID              RawMessageID `json:"id"`
	Ack             Ack          `json:"ack"`
	Body            string       `json:"body"`
	Type            MessageType  `json:"type"`
	Subtype         string       `json:"subtype"`
	Timestamp       int64        `json:"t"`
	From            wid.WID      `json:"from"`
	To              wid.WID      `json:"to"`
	Author          wid.WID      `json:"author"`
	DeviceType      string       `json:"deviceType"`
	IsForwarded     bool         `json:"isForwarded"`
	ForwardingScore int          `json:"forwardingScore"`
	IsStatus        bool         `json:"isStatus"`
	IsStarred       bool         `json:"star"`
	Broadcast       bool         `json:"broadcast"`
	IsEphemeral     bool         `json:"isEphemeral"`
	IsGif           bool         `json:"isGif"`
	HasReaction     bool         `json:"hasReaction"`
	Duration        string       `json:"duration"`

	// Media fields. Media presence is derived, never taken verbatim.
	MediaKey   string `json:"mediaKey"`
	DirectPath string `json:"directPath"`
	Mimetype   string `json:"mimetype"`
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	Caption    string `json:"caption"`

	// Quoting and mentions.
	QuotedMsgID       *RawMessageID `json:"quotedStanzaID,omitempty"`
	QuotedParticipant wid.WID       `json:"quotedParticipant"`
	MentionedIDs      []wid.WID     `json:"mentionedJidList"`

	// Type-specific payloads.
	Lat                      float64         `json:"lat"`
	Lng                      float64         `json:"lng"`
	Loc                      string          `json:"loc"`
	VCards                   []string        `json:"vcardList"`
	InviteV4                 *RawGroupInvite `json:"inviteV4,omitempty"`
	PollName                 string          `json:"pollName"`
	PollOptions              []RawPollOption `json:"pollOptions"`
	PollAllowMultipleAnswers bool            `json:"pollAllowMultipleAnswers"`
	OrderID                  string          `json:"orderId"`
	OrderToken               string          `json:"token"`
	PaymentCurrency          string          `json:"paymentCurrency"`
	PaymentAmount1000        int64           `json:"paymentAmount1000"`
	PaymentTransactionTS     int64           `json:"paymentTransactionTimestamp"`
	PaymentStatus            int             `json:"paymentStatus"`

	// Notification payloads.
	RecipientIDs   []wid.WID `json:"recipients"`
	TemplateParams []string  `json:"templateParams"`

	// Edit tracking.
	LatestEditSenderTimestampMs int64 `json:"latestEditSenderTimestampMs"`
}

// RawParticipant is a group participant entry in a group metadata snapshot.
type RawParticipant struct {
	ID           wid.WID `json:"id"`
	IsAdmin      bool    `json:"isAdmin"`
	IsSuperAdmin bool    `json:"isSuperAdmin"`
}

// RawGroupMetadata is the group-specific portion of a chat snapshot.
type RawGroupMetadata struct {
	Owner        wid.WID          `json:"owner"`
	Creation     int64            `json:"creation"`
	Description  string           `json:"desc"`
	Participants []RawParticipant `json:"participants"`
}

// RawChat is the plain snapshot of a chat object.
type RawChat struct {
	ID             wid.WID           `json:"id"`
	Name           string            `json:"name"`
	IsGroup        bool              `json:"isGroup"`
	IsReadOnly     bool              `json:"isReadOnly"`
	Archived       bool              `json:"archived"`
	Pinned         bool              `json:"pinned"`
	IsMuted        bool              `json:"isMuted"`
	MuteExpiration int64             `json:"muteExpiration"`
	UnreadCount    int               `json:"unreadCount"`
	Timestamp      int64             `json:"timestamp"`
	LastMessageID  *RawMessageID     `json:"lastMessageId,omitempty"`
	GroupMetadata  *RawGroupMetadata `json:"groupMetadata,omitempty"`
}

// RawBusinessProfile is the business-specific portion of a contact snapshot.
type RawBusinessProfile struct {
	Description string         `json:"description"`
	Email       string         `json:"email"`
	Website     []string       `json:"website"`
	Categories  []string       `json:"categories"`
	Address     string         `json:"address"`
	Hours       map[string]any `json:"businessHours"`
}

// RawContact is the plain snapshot of a contact object.
type RawContact struct {
	ID              wid.WID             `json:"id"`
	Number          string              `json:"number"`
	Name            string              `json:"name"`
	ShortName       string              `json:"shortName"`
	PushName        string              `json:"pushname"`
	IsBusiness      bool                `json:"isBusiness"`
	IsEnterprise    bool                `json:"isEnterprise"`
	VerifiedLevel   int                 `json:"verifiedLevel"`
	VerifiedName    string              `json:"verifiedName"`
	IsUser          bool                `json:"isUser"`
	IsGroup         bool                `json:"isGroup"`
	IsWAContact     bool                `json:"isWAContact"`
	IsMyContact     bool                `json:"isMyContact"`
	IsBlocked       bool                `json:"isBlocked"`
	BusinessProfile *RawBusinessProfile `json:"businessProfile,omitempty"`
}

// RawReaction is one entry of a reaction batch mutation.
type RawReaction struct {
	ID           RawMessageID `json:"id"`
	Orphan       int          `json:"orphan"`
	OrphanReason string       `json:"orphanReason"`
	MsgID        RawMessageID `json:"msgId"`
	Text         string       `json:"reactionText"`
	SenderID     wid.WID      `json:"senderUserJid"`
	Timestamp    int64        `json:"timestamp"`
	Read         bool         `json:"read"`
	Ack          Ack          `json:"ack"`
}

// RawCall is the snapshot of an incoming call notification.
type RawCall struct {
	ID                    string    `json:"id"`
	From                  wid.WID   `json:"peerJid"`
	Timestamp             int64     `json:"offerTime"`
	IsVideo               bool      `json:"isVideo"`
	IsGroup               bool      `json:"isGroup"`
	CanHandleLocally      bool      `json:"canHandleLocally"`
	WebClientShouldHandle bool      `json:"webClientShouldHandle"`
	Participants          []wid.WID `json:"participants"`
}

// RawLabel is the snapshot of a business label.
type RawLabel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	HexColor string `json:"hexColor"`
}
