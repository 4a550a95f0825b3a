package kernel

import "strings"

// SessionKey identifies one logical WhatsApp session. Keys are opaque
// composites of the form "site:session" so the two-id addressing scheme
// stays a routing concern and the core logic is written once.
type SessionKey string

func JoinSessionKey(site, session string) SessionKey {
	return SessionKey(site + ":" + session)
}

func NewSessionKey(key string) SessionKey { return SessionKey(key) }
func (k SessionKey) String() string       { return string(k) }
func (k SessionKey) IsEmpty() bool        { return string(k) == "" }

// Site returns the site half of a composite key, or "" for bare keys.
func (k SessionKey) Site() string {
	if i := strings.Index(string(k), ":"); i >= 0 {
		return string(k)[:i]
	}
	return ""
}

type MessageID string

func NewMessageID(id string) MessageID { return MessageID(id) }
func (m MessageID) String() string     { return string(m) }
func (m MessageID) IsEmpty() bool      { return string(m) == "" }

type UpdateID string

func NewUpdateID(id string) UpdateID { return UpdateID(id) }
func (u UpdateID) String() string    { return string(u) }
func (u UpdateID) IsEmpty() bool     { return string(u) == "" }
