package store

// Chat is an archived chat row.
type Chat struct {
	WID                string
	Name               string
	IsGroup            bool
	Archived           bool
	Pinned             bool
	UnreadCount        int
	LastMessageAt      int64
	LastMessagePreview string
}

// Contact is an archived contact row.
type Contact struct {
	WID        string
	Name       string
	PushName   string
	Number     string
	IsBusiness bool
}

// Message is an archived message row.
type Message struct {
	ID          int64
	ChatWID     string
	MsgID       string
	SenderWID   string
	Body        string
	MessageType string
	FromMe      bool
	Ack         int
	Revoked     bool
	Timestamp   int64
}

// OutboxEntry is a pending outgoing message.
type OutboxEntry struct {
	ID           int64
	ClientMsgID  string
	ChatWID      string
	Body         string
	Status       string // queued, sending, sent, failed
	ErrorMessage string
	ServerMsgID  string
}

// SearchResult pairs a message with its search snippet.
type SearchResult struct {
	Message Message
	Snippet string
}
