package controller

import (
	"context"
	"strconv"
	"strings"

	"mailpane/models"
)

// Action names a UI control's behaviour. Controls carry it in data-action.
type Action string

const (
	ActionTab     Action = "tab"
	ActionCompose Action = "compose"
	ActionSubmit  Action = "submit"
	ActionOpen    Action = "open"
	ActionReply   Action = "reply"
	ActionArchive Action = "archive"
)

// Event is a delegated UI event: the action of the control that fired and
// the data it carried.
type Event struct {
	Action     Action
	Mailbox    string
	ID         int
	Recipients string
	Subject    string
	Body       string
}

// ParseID reads a data-id value. It returns 0 for anything that is not a
// positive integer.
func ParseID(s string) int {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// Dispatch routes an event to its transition. Unknown actions and opens
// without an id are ignored. A controller that has not started yet, such as
// one rebuilt after eviction, is brought to a defined view first: a submit
// lands on the compose form and everything else on the inbox.
func (c *Controller) Dispatch(ctx context.Context, ev Event) {
	if c.Mode() == models.ViewUninitialized {
		switch ev.Action {
		case ActionSubmit:
			c.Compose()
		case ActionOpen, ActionReply, ActionArchive:
			c.Start(ctx)
		}
	}

	switch ev.Action {
	case ActionTab:
		c.LoadMailbox(ctx, ev.Mailbox)
	case ActionCompose:
		c.Compose()
	case ActionSubmit:
		c.Submit(ctx, ev.Recipients, ev.Subject, ev.Body)
	case ActionOpen:
		if ev.ID > 0 {
			c.Open(ctx, ev.ID)
		}
	case ActionReply:
		c.Reply()
	case ActionArchive:
		c.Archive(ctx)
	default:
		c.log.Debug("ignoring unknown action %q", ev.Action)
	}

	c.Start(ctx)
}
