package model

import (
	"context"

	"github.com/wwebgo/wweb/internal/media"
)

// Session is the capability handle injected into entities at construction.
// It exposes the narrow set of follow-up operations entities perform; the
// full command surface lives on the client façade. Entities never own the
// session's lifecycle.
type Session interface {
	GetMessageByID(ctx context.Context, id string) (*Message, error)
	GetChatByID(ctx context.Context, id string) (Chat, error)
	GetContactByID(ctx context.Context, id string) (Contact, error)
	GetProfilePicURL(ctx context.Context, contactID string) (string, error)
	DownloadMedia(ctx context.Context, messageID string) (*media.Media, error)
	DeleteMessage(ctx context.Context, messageID string, everyone bool) error
	StarMessage(ctx context.Context, messageID string, starred bool) error
	React(ctx context.Context, messageID, reaction string) error
	EditMessage(ctx context.Context, messageID, newBody string) (*Message, error)
}
