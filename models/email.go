package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Email is the backend's representation of a message. List endpoints may
// omit the body.
type Email struct {
	ID         int        `json:"id"`
	Sender     string     `json:"sender"`
	Recipients Recipients `json:"recipients"`
	Subject    string     `json:"subject"`
	Body       string     `json:"body,omitempty"`
	Timestamp  string     `json:"timestamp"`
	Read       bool       `json:"read"`
	Archived   bool       `json:"archived"`
}

// Recipients is a comma-joined address list. Backends that send a JSON
// array are accepted too.
type Recipients string

func (r *Recipients) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = Recipients(s)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("recipients must be a string or a list of strings: %w", err)
	}
	*r = Recipients(strings.Join(list, ", "))
	return nil
}

// String returns the recipients as displayed
func (r Recipients) String() string {
	return string(r)
}

// NewEmail is the body of a creation request
type NewEmail struct {
	Recipients string `json:"recipients"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
}

// NormalizeRecipients trims every comma-separated address and rejoins them
// without spaces. Empty entries are dropped.
func NormalizeRecipients(raw string) string {
	parts := strings.Split(raw, ",")
	addrs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			addrs = append(addrs, p)
		}
	}
	return strings.Join(addrs, ",")
}

// FlagPatch is a partial update of an email's flags. Only non-nil fields
// are sent.
type FlagPatch struct {
	Read     *bool `json:"read,omitempty"`
	Archived *bool `json:"archived,omitempty"`
}

// MarkRead returns the patch that flags an email as read
func MarkRead() FlagPatch {
	read := true
	return FlagPatch{Read: &read}
}

// SetArchived returns the patch that moves an email in or out of the archive
func SetArchived(archived bool) FlagPatch {
	return FlagPatch{Archived: &archived}
}
