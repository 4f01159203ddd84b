package models

// Mailbox is one of the backend's message collections
type Mailbox string

const (
	Inbox   Mailbox = "inbox"
	Sent    Mailbox = "sent"
	Archive Mailbox = "archive"
)

// Mailboxes lists every mailbox in navigation order
var Mailboxes = []Mailbox{Inbox, Sent, Archive}

// ParseMailbox returns the mailbox named by s
func ParseMailbox(s string) (Mailbox, bool) {
	switch Mailbox(s) {
	case Inbox, Sent, Archive:
		return Mailbox(s), true
	}
	return "", false
}

// ViewMode is the surface currently shown by a view controller
type ViewMode int

const (
	ViewUninitialized ViewMode = iota
	ViewInbox
	ViewSent
	ViewArchive
	ViewCompose
	ViewEmail
)

// String returns the mode name used in markup and logs
func (m ViewMode) String() string {
	switch m {
	case ViewInbox:
		return string(Inbox)
	case ViewSent:
		return string(Sent)
	case ViewArchive:
		return string(Archive)
	case ViewCompose:
		return "compose"
	case ViewEmail:
		return "email"
	default:
		return "uninitialized"
	}
}

// Mailbox returns the mailbox shown in this mode, if any
func (m ViewMode) Mailbox() (Mailbox, bool) {
	switch m {
	case ViewInbox:
		return Inbox, true
	case ViewSent:
		return Sent, true
	case ViewArchive:
		return Archive, true
	}
	return "", false
}

// ViewFor returns the mode that lists mb
func ViewFor(mb Mailbox) ViewMode {
	switch mb {
	case Inbox:
		return ViewInbox
	case Sent:
		return ViewSent
	case Archive:
		return ViewArchive
	}
	return ViewUninitialized
}
