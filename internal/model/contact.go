package model

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wwebgo/wweb/internal/wid"
)

// Contact is the common surface of private and business contacts. The
// business profile accessor exists only on the business variant.
type Contact interface {
	// ID returns the contact identifier.
	ID() wid.WID
	// Number returns the phone number in international format.
	Number() string
	// Name returns the address-book name, when available.
	Name() string
	// ShortName returns the abbreviated address-book name.
	ShortName() string
	// PushName returns the name the account publishes for itself.
	PushName() string
	// DisplayName returns the best available name, falling back to the
	// push name and finally the number.
	DisplayName() string
	// IsBusiness reports whether the account is a business account.
	IsBusiness() bool
	// IsUser reports whether the identifier names an individual account.
	IsUser() bool
	// IsGroup reports whether the identifier names a group.
	IsGroup() bool
	// IsWAContact reports whether the account is registered.
	IsWAContact() bool
	// IsMyContact reports whether the contact is in the address book.
	IsMyContact() bool
	// IsBlocked reports the block state at snapshot time.
	IsBlocked() bool
	// VerifiedLevel returns the business verification level.
	VerifiedLevel() int
	// GetProfilePicURL resolves the profile picture URL on demand.
	GetProfilePicURL(ctx context.Context) (string, error)
	// GetChat fetches the direct chat with this contact.
	GetChat(ctx context.Context) (Chat, error)
	// RawData returns the unmodified snapshot the contact was built from.
	RawData() json.RawMessage
}

type contactBase struct {
	session       Session
	raw           json.RawMessage
	id            wid.WID
	number        string
	name          string
	shortName     string
	pushName      string
	verifiedLevel int
	isUser        bool
	isGroup       bool
	isWAContact   bool
	isMyContact   bool
	isBlocked     bool
}

func (c *contactBase) ID() wid.WID              { return c.id }
func (c *contactBase) Number() string           { return c.number }
func (c *contactBase) Name() string             { return c.name }
func (c *contactBase) ShortName() string        { return c.shortName }
func (c *contactBase) PushName() string         { return c.pushName }
func (c *contactBase) IsUser() bool             { return c.isUser }
func (c *contactBase) IsGroup() bool            { return c.isGroup }
func (c *contactBase) IsWAContact() bool        { return c.isWAContact }
func (c *contactBase) IsMyContact() bool        { return c.isMyContact }
func (c *contactBase) IsBlocked() bool          { return c.isBlocked }
func (c *contactBase) VerifiedLevel() int       { return c.verifiedLevel }
func (c *contactBase) RawData() json.RawMessage { return c.raw }

func (c *contactBase) DisplayName() string {
	if c.name != "" {
		return c.name
	}
	if c.pushName != "" {
		return c.pushName
	}
	return c.number
}

func (c *contactBase) GetProfilePicURL(ctx context.Context) (string, error) {
	return c.session.GetProfilePicURL(ctx, c.id.String())
}

func (c *contactBase) GetChat(ctx context.Context) (Chat, error) {
	return c.session.GetChatByID(ctx, c.id.String())
}

// PrivateContact is a regular personal account.
type PrivateContact struct {
	contactBase
}

// IsBusiness always reports false for a private contact.
func (c *PrivateContact) IsBusiness() bool { return false }

// BusinessProfile describes the public profile of a business account.
type BusinessProfile struct {
	Description string
	Email       string
	Website     []string
	Categories  []string
	Address     string
}

// BusinessContact is a business account carrying a public profile.
type BusinessContact struct {
	contactBase
	profile BusinessProfile
}

// IsBusiness always reports true for a business contact.
func (c *BusinessContact) IsBusiness() bool { return true }

// BusinessProfile returns the public business profile snapshot.
func (c *BusinessContact) BusinessProfile() BusinessProfile { return c.profile }

// AsBusiness narrows a Contact to its business variant.
func AsBusiness(c Contact) (*BusinessContact, bool) {
	b, ok := c.(*BusinessContact)
	return b, ok
}

// NewContact builds the correctly-typed contact variant from a raw
// snapshot, dispatching on the isBusiness discriminant. A missing
// discriminant yields the private variant.
func NewContact(session Session, data []byte) (Contact, error) {
	var raw RawContact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("model: decode contact snapshot: %w", err)
	}
	c := FromRawContact(session, &raw)
	switch v := c.(type) {
	case *PrivateContact:
		v.raw = append(json.RawMessage(nil), data...)
	case *BusinessContact:
		v.raw = append(json.RawMessage(nil), data...)
	}
	return c, nil
}

// FromRawContact builds the contact variant from an already-decoded snapshot.
func FromRawContact(session Session, raw *RawContact) Contact {
	base := contactBase{
		session:       session,
		id:            raw.ID,
		number:        raw.Number,
		name:          raw.Name,
		shortName:     raw.ShortName,
		pushName:      raw.PushName,
		verifiedLevel: raw.VerifiedLevel,
		isUser:        raw.IsUser,
		isGroup:       raw.IsGroup,
		isWAContact:   raw.IsWAContact,
		isMyContact:   raw.IsMyContact,
		isBlocked:     raw.IsBlocked,
	}
	base.raw, _ = json.Marshal(raw)

	if !raw.IsBusiness {
		return &PrivateContact{contactBase: base}
	}

	b := &BusinessContact{contactBase: base}
	if p := raw.BusinessProfile; p != nil {
		b.profile = BusinessProfile{
			Description: p.Description,
			Email:       p.Email,
			Website:     p.Website,
			Categories:  p.Categories,
			Address:     p.Address,
		}
	}
	return b
}
