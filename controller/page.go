package controller

import "mailpane/models"

// Element ids of the page skeleton (templates/partials/app.html) and of the
// fragments rendered into it.
const (
	idApp               = "app"
	idEmailsView        = "emails-view"
	idComposeView       = "compose-view"
	idSingleEmailView   = "single-email-view"
	idEmailsContainer   = "emails-container"
	idComposeForm       = "compose-form"
	idComposeRecipients = "compose-recipients"
	idComposeSubject    = "compose-subject"
	idComposeBody       = "compose-body"
	idErrorMessage      = "error-message"
	idCompose           = "compose"
)

var (
	views         = []string{idEmailsView, idComposeView, idSingleEmailView}
	composeFields = []string{idComposeRecipients, idComposeSubject, idComposeBody}
)

const (
	classActive   = "btn-primary"
	classInactive = "btn-outline-primary"
)

// show makes id the only visible view. Caller holds mu.
func (c *Controller) show(id string) {
	for _, v := range views {
		c.check(c.page.SetFlag(v, "hidden", v != id))
	}
}

// syncNav highlights the nav button of the current mode and no other.
// The email view has no button, so it clears them all. Caller holds mu.
func (c *Controller) syncNav() {
	for _, mb := range models.Mailboxes {
		c.highlight(string(mb), c.mode == models.ViewFor(mb))
	}
	c.highlight(idCompose, c.mode == models.ViewCompose)
	c.check(c.page.SetAttr(idApp, "data-view", c.mode.String()))
}

func (c *Controller) highlight(id string, active bool) {
	if active {
		c.check(c.page.SwapClass(id, classInactive, classActive))
		return
	}
	c.check(c.page.SwapClass(id, classActive, classInactive))
}
