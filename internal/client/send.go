package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/wwebgo/wweb/internal/media"
	"github.com/wwebgo/wweb/internal/model"
	"github.com/wwebgo/wweb/internal/wid"
	"go.uber.org/zap"
)

// SendOptions control a single send. Tri-state booleans use pointers so
// "unset" can default to enabled.
type SendOptions struct {
	LinkPreview      *bool
	SendAudioAsVoice bool
	SendVideoAsGif   bool
	SendMediaAsSticker bool
	SendMediaAsDocument bool
	IsViewOnce       bool
	ParseVCards      *bool
	Caption          string
	QuotedMessageID  string
	Mentions         []wid.WID
	SendSeen         *bool
	StickerAuthor    string
	StickerName      string
	StickerCategories []string
	StickerIsAvatar  bool
	// Media attaches a payload regardless of the content argument's type.
	Media *media.Media
}

// sendPayload is the normalized record submitted over the boundary.
type sendPayload struct {
	LinkPreview    bool            `json:"linkPreview"`
	SendAudioAsVoice bool          `json:"sendAudioAsVoice"`
	SendVideoAsGif bool            `json:"sendVideoAsGif"`
	SendMediaAsDocument bool       `json:"sendMediaAsDocument"`
	IsViewOnce     bool            `json:"isViewOnce"`
	Caption        string          `json:"caption,omitempty"`
	QuotedMessageID string         `json:"quotedMsgId,omitempty"`
	Mentions       []string        `json:"mentionedJidList,omitempty"`
	Body           string          `json:"body,omitempty"`
	Attachment     *attachment     `json:"attachment,omitempty"`
	Location       *model.Location `json:"location,omitempty"`
	Poll           *model.Poll     `json:"poll,omitempty"`
	ContactCard    string          `json:"contactCard,omitempty"`
	ContactCards   []string        `json:"contactCardList,omitempty"`
	ParseVCards    bool            `json:"parseVCards"`
}

type attachment struct {
	Mimetype string `json:"mimetype"`
	Data     string `json:"data"`
	Filename string `json:"filename,omitempty"`
}

// StatusBroadcastID is the pseudo-chat that maps to status posting.
var StatusBroadcastID = wid.WID{User: "status", Server: "broadcast"}

func defaultTrue(v *bool) bool { return v == nil || *v }

// SendMessage submits content to a chat and returns the confirmed message.
//
// Content dispatch is mutually exclusive, checked in order: media,
// location, poll, single contact, contact list, plain text. A recognized
// non-text type clears the body. Sticker conversion runs before any remote
// dispatch; its failure aborts the send entirely.
func (c *Client) SendMessage(ctx context.Context, chatID wid.WID, content any, opts *SendOptions) (*model.Message, error) {
	if opts == nil {
		opts = &SendOptions{}
	}

	payload := sendPayload{
		LinkPreview:         defaultTrue(opts.LinkPreview),
		ParseVCards:         defaultTrue(opts.ParseVCards),
		SendAudioAsVoice:    opts.SendAudioAsVoice,
		SendVideoAsGif:      opts.SendVideoAsGif,
		SendMediaAsDocument: opts.SendMediaAsDocument,
		IsViewOnce:          opts.IsViewOnce,
		Caption:             opts.Caption,
		QuotedMessageID:     opts.QuotedMessageID,
	}
	for _, m := range opts.Mentions {
		payload.Mentions = append(payload.Mentions, m.String())
	}

	var attached *media.Media
	switch v := content.(type) {
	case *media.Media:
		attached = v
	case media.Media:
		attached = &v
	case *model.Location:
		payload.Location = v
	case model.Location:
		payload.Location = &v
	case *model.Poll:
		payload.Poll = v
	case model.Poll:
		payload.Poll = &v
	case model.Contact:
		payload.ContactCard = v.ID().String()
	case []model.Contact:
		for _, contact := range v {
			payload.ContactCards = append(payload.ContactCards, contact.ID().String())
		}
	case string:
		payload.Body = v
	case nil:
	default:
		return nil, fmt.Errorf("unsupported content type %T", content)
	}

	// An explicit media option attaches even alongside textual content; the
	// text then travels as the caption.
	if opts.Media != nil {
		attached = opts.Media
		if payload.Body != "" && payload.Caption == "" {
			payload.Caption = payload.Body
		}
		payload.Body = ""
	}

	if attached != nil && opts.SendMediaAsSticker {
		converted, err := media.ToSticker(ctx, attached, c.cfg.FFmpegPath, media.StickerOptions{
			Author:     opts.StickerAuthor,
			Name:       opts.StickerName,
			Categories: opts.StickerCategories,
			IsAvatar:   opts.StickerIsAvatar,
		})
		if err != nil {
			return nil, err
		}
		attached = converted
	}
	if attached != nil {
		payload.Attachment = &attachment{
			Mimetype: attached.Mimetype,
			Data:     attached.Base64(),
			Filename: attached.Filename,
		}
	}

	if chatID == StatusBroadcastID {
		return c.sendStatus(ctx, payload)
	}

	if defaultTrue(opts.SendSeen) {
		if err := c.SendSeen(ctx, chatID.String()); err != nil {
			c.logger.Debug("mark seen before send failed", zap.Error(err))
		}
	}

	raw, err := c.execute(ctx, fnSendMessage, chatID.String(), payload)
	if err != nil {
		return nil, err
	}
	return model.NewMessage(c, raw)
}

// sendStatus routes a status-broadcast post through the entry point
// matching its content: text, image media, or video media. Anything else
// is rejected before dispatch.
func (c *Client) sendStatus(ctx context.Context, payload sendPayload) (*model.Message, error) {
	var fn string
	switch {
	case payload.Attachment == nil && payload.Body != "":
		fn = fnSendStatusText
	case payload.Attachment != nil && strings.HasPrefix(payload.Attachment.Mimetype, "image/"):
		fn = fnSendStatusImage
	case payload.Attachment != nil && strings.HasPrefix(payload.Attachment.Mimetype, "video/"):
		fn = fnSendStatusVideo
	default:
		return nil, fmt.Errorf("status broadcast supports text, image or video content only")
	}
	raw, err := c.execute(ctx, fn, payload)
	if err != nil {
		return nil, err
	}
	return model.NewMessage(c, raw)
}
