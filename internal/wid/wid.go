// Package wid implements the structured identifiers used by WhatsApp Web
// to name chats, contacts and groups.
package wid

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Known identifier servers.
const (
	UserServer      = "c.us"
	GroupServer     = "g.us"
	BroadcastServer = "broadcast"
	LIDServer       = "lid"
	NewsletterServer = "newsletter"
)

// StatusBroadcast is the pseudo-chat that carries status updates.
const StatusBroadcast = "status@broadcast"

// WID is a server/user identifier. The zero value is the empty WID.
type WID struct {
	Server string
	User   string
}

// New builds a WID from its user and server parts.
func New(user, server string) WID {
	return WID{Server: server, User: user}
}

// Parse parses a serialized identifier of the form "user@server".
func Parse(s string) (WID, error) {
	if s == "" {
		return WID{}, fmt.Errorf("wid: empty identifier")
	}
	user, server, found := strings.Cut(s, "@")
	if !found || server == "" {
		return WID{}, fmt.Errorf("wid: malformed identifier %q", s)
	}
	return WID{Server: server, User: user}, nil
}

// MustParse is Parse for identifiers known to be well formed. It panics on error.
func MustParse(s string) WID {
	w, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return w
}

// String returns the serialized "user@server" form.
func (w WID) String() string {
	if w.IsEmpty() {
		return ""
	}
	return w.User + "@" + w.Server
}

// IsEmpty reports whether the WID is the zero value.
func (w WID) IsEmpty() bool {
	return w.Server == "" && w.User == ""
}

// IsGroup reports whether the identifier names a group chat.
func (w WID) IsGroup() bool {
	return w.Server == GroupServer
}

// IsBroadcast reports whether the identifier names a broadcast list.
func (w WID) IsBroadcast() bool {
	return w.Server == BroadcastServer
}

// IsStatus reports whether the identifier is the status broadcast channel.
func (w WID) IsStatus() bool {
	return w.String() == StatusBroadcast
}

// IsUser reports whether the identifier names an individual account.
func (w WID) IsUser() bool {
	return w.Server == UserServer
}

// IsLID reports whether the identifier is an anonymized device identity.
func (w WID) IsLID() bool {
	return w.Server == LIDServer
}

// widJSON is the wire shape used by snapshots crossing the remote boundary.
type widJSON struct {
	Server     string `json:"server"`
	User       string `json:"user"`
	Serialized string `json:"_serialized"`
}

// MarshalJSON serializes the WID in the snapshot object form.
func (w WID) MarshalJSON() ([]byte, error) {
	return json.Marshal(widJSON{
		Server:     w.Server,
		User:       w.User,
		Serialized: w.String(),
	})
}

// UnmarshalJSON accepts both the snapshot object form and a bare
// serialized string.
func (w *WID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*w = WID{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*w = WID{}
			return nil
		}
		parsed, err := Parse(s)
		if err != nil {
			return err
		}
		*w = parsed
		return nil
	}
	var obj widJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Server == "" && obj.Serialized != "" {
		parsed, err := Parse(obj.Serialized)
		if err != nil {
			return err
		}
		*w = parsed
		return nil
	}
	*w = WID{Server: obj.Server, User: obj.User}
	return nil
}
