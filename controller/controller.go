// Package controller holds the per-session view state machine. A Controller
// owns the current view mode and the page model. It turns UI events into
// backend calls and re-renders.
package controller

import (
	"context"
	"html/template"
	"strings"
	"sync"

	"mailpane/models"
	"mailpane/utils"
	"mailpane/view"

	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// MailService is the backend surface the controller needs
type MailService interface {
	ListEmails(ctx context.Context, mailbox string) models.Result[[]models.Email]
	GetEmail(ctx context.Context, id int) models.Result[models.Email]
	CreateEmail(ctx context.Context, recipients, subject, body string) models.Result[string]
	SetEmailFlags(ctx context.Context, id int, patch models.FlagPatch) models.Done
}

// Controller is the view state machine of one browser session.
//
// The mutex guards mode, nav, detail and page. It is never held across a
// backend call. Every transition that replaces the visible view advances
// nav; a fetch that finishes after nav moved on is dropped, so a slow
// response cannot overwrite a newer view.
type Controller struct {
	mu       sync.Mutex
	svc      MailService
	renderer *view.Renderer
	loc      *i18n.Localizer
	page     *view.Document
	mode     models.ViewMode
	nav      uint64
	detail   *detailView
	notify   func(models.ViewMode)
	log      *utils.Logger
}

// detailView is the email on screen in ViewEmail and whether its reply and
// archive controls are live.
type detailView struct {
	email   models.Email
	actions bool
}

// Option configures a Controller
type Option func(*Controller)

// WithNotifier registers fn to run after every visible change. fn is called
// without the controller lock held.
func WithNotifier(fn func(models.ViewMode)) Option {
	return func(c *Controller) {
		c.notify = fn
	}
}

// WithLogger replaces the default logger
func WithLogger(l *utils.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// New builds a controller on a fresh page skeleton
func New(svc MailService, renderer *view.Renderer, loc *i18n.Localizer, opts ...Option) (*Controller, error) {
	markup, err := renderer.App(loc)
	if err != nil {
		return nil, err
	}
	page, err := view.ParseDocument(markup)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		svc:      svc,
		renderer: renderer,
		loc:      loc,
		page:     page,
		mode:     models.ViewUninitialized,
		log:      utils.Log.WithField("component", "view"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Mode returns the current view mode
func (c *Controller) Mode() models.ViewMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Markup renders the current page
func (c *Controller) Markup() (template.HTML, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page.Render()
}

// Inspect runs fn with the page model under the controller lock. fn must
// not keep the document.
func (c *Controller) Inspect(fn func(doc *view.Document)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.page)
}

// Start loads the inbox the first time a page is shown
func (c *Controller) Start(ctx context.Context) {
	if c.Mode() != models.ViewUninitialized {
		return
	}
	c.LoadMailbox(ctx, string(models.Inbox))
}

// LoadMailbox switches to a mailbox list. Unknown names, the mailbox already
// shown and a mailbox whose fetch is still running are ignored.
func (c *Controller) LoadMailbox(ctx context.Context, name string) {
	mb, ok := models.ParseMailbox(name)
	if !ok {
		return
	}
	target := models.ViewFor(mb)
	tab := string(mb)

	c.mu.Lock()
	if c.mode == target || c.page.HasFlag(tab, "disabled") {
		c.mu.Unlock()
		return
	}
	shell, err := c.renderer.MailboxPage(c.loc, mb)
	if err != nil {
		c.mu.Unlock()
		c.log.Error("rendering %s shell: %v", mb, err)
		return
	}
	c.mode = target
	c.detail = nil
	token := c.advance()
	c.check(c.page.SetInnerHTML(idEmailsView, shell))
	c.show(idEmailsView)
	c.syncNav()
	c.check(c.page.SetFlag(tab, "disabled", true))
	c.mu.Unlock()
	c.changed(target)

	res := c.svc.ListEmails(ctx, tab)

	c.mu.Lock()
	c.check(c.page.SetFlag(tab, "disabled", false))
	if token != c.nav {
		mode := c.mode
		c.mu.Unlock()
		c.log.Debug("dropping %s list from a superseded navigation", mb)
		c.changed(mode)
		return
	}
	c.check(c.page.SetInnerHTML(idEmailsContainer, c.listMarkup(res)))
	c.mu.Unlock()
	c.changed(target)
}

// listMarkup renders rows, or the message for an empty or failed list
func (c *Controller) listMarkup(res models.Result[[]models.Email]) template.HTML {
	if !res.OK() {
		return c.message("email_fetch_failed")
	}
	if len(res.Value) == 0 {
		return c.message("email_no_messages")
	}

	var sb strings.Builder
	for _, email := range res.Value {
		row, err := c.renderer.EmailRow(c.loc, email)
		if err != nil {
			c.log.WithField("id", email.ID).Error("rendering row: %v", err)
			continue
		}
		sb.WriteString(string(row))
	}
	return template.HTML(sb.String())
}

func (c *Controller) message(messageID string) template.HTML {
	msg, err := c.renderer.ListMessage(c.loc, messageID)
	if err != nil {
		c.log.Error("rendering %s: %v", messageID, err)
		return template.HTML(template.HTMLEscapeString(utils.T(c.loc, messageID)))
	}
	return msg
}

// Compose shows an empty compose form
func (c *Controller) Compose() {
	c.mu.Lock()
	c.composeLocked()
	c.mu.Unlock()
	c.changed(models.ViewCompose)
}

func (c *Controller) composeLocked() {
	c.mode = models.ViewCompose
	c.detail = nil
	c.advance()
	c.show(idComposeView)
	c.syncNav()
	for _, id := range composeFields {
		c.check(c.page.SetValue(id, ""))
	}
	c.page.Remove(idErrorMessage)
}

// Submit sends the compose form. A failure leaves the form in place with a
// single error banner; success shows the sent mailbox.
func (c *Controller) Submit(ctx context.Context, recipients, subject, body string) {
	c.mu.Lock()
	c.check(c.page.SetValue(idComposeRecipients, recipients))
	c.check(c.page.SetValue(idComposeSubject, subject))
	c.check(c.page.SetValue(idComposeBody, body))
	c.mu.Unlock()

	res := c.svc.CreateEmail(ctx, recipients, subject, body)
	if !res.OK() {
		c.mu.Lock()
		if !c.page.Has(idErrorMessage) {
			banner, err := c.renderer.ComposeError(c.loc)
			if err != nil {
				c.log.Error("rendering compose error: %v", err)
			} else {
				c.check(c.page.AppendHTML(idComposeForm, banner))
			}
		}
		mode := c.mode
		c.mu.Unlock()
		c.changed(mode)
		return
	}

	c.LoadMailbox(ctx, string(models.Sent))
}

// Open shows one email. Reply and archive are only offered when the email
// was opened from a mailbox other than sent; an unread email opened that
// way is marked read.
func (c *Controller) Open(ctx context.Context, id int) {
	// isSent is the view the email was clicked in. Any navigation during the
	// fetch changes the token and the result is dropped, so it cannot go stale.
	c.mu.Lock()
	isSent := c.mode == models.ViewSent
	token := c.nav
	c.mu.Unlock()

	res := c.svc.GetEmail(ctx, id)
	if !res.OK() {
		return
	}
	email := res.Value

	c.mu.Lock()
	if token != c.nav {
		c.mu.Unlock()
		c.log.WithField("id", id).Debug("dropping email from a superseded navigation")
		return
	}
	panel, err := c.renderer.EmailDetail(c.loc, email, isSent)
	if err != nil {
		c.mu.Unlock()
		c.log.WithField("id", id).Error("rendering email: %v", err)
		return
	}
	c.advance()
	c.mode = models.ViewEmail
	c.detail = &detailView{email: email, actions: !isSent}
	c.check(c.page.SetInnerHTML(idSingleEmailView, panel))
	c.show(idSingleEmailView)
	c.syncNav()
	c.mu.Unlock()
	c.changed(models.ViewEmail)

	if isSent || email.Read {
		return
	}
	if r := c.svc.SetEmailFlags(ctx, email.ID, models.MarkRead()); r.OK() {
		c.mu.Lock()
		if c.detail != nil && c.detail.email.ID == email.ID {
			c.detail.email.Read = true
		}
		c.mu.Unlock()
	}
}

// Archive toggles the archived flag of the open email and returns to the
// inbox on success. On failure the email stays on screen unchanged.
func (c *Controller) Archive(ctx context.Context) {
	c.mu.Lock()
	if c.mode != models.ViewEmail || c.detail == nil || !c.detail.actions {
		c.mu.Unlock()
		return
	}
	email := c.detail.email
	token := c.nav
	c.mu.Unlock()

	res := c.svc.SetEmailFlags(ctx, email.ID, models.SetArchived(!email.Archived))
	if !res.OK() {
		return
	}

	c.mu.Lock()
	stale := token != c.nav
	c.mu.Unlock()
	if stale {
		return
	}
	c.LoadMailbox(ctx, string(models.Inbox))
}

// Reply opens the compose form pre-filled with a reply to the open email
func (c *Controller) Reply() {
	c.mu.Lock()
	if c.mode != models.ViewEmail || c.detail == nil || !c.detail.actions {
		c.mu.Unlock()
		return
	}
	email := c.detail.email
	c.composeLocked()
	c.check(c.page.SetValue(idComposeRecipients, email.Sender))
	c.check(c.page.SetValue(idComposeSubject, ReplySubject(email.Subject)))
	c.check(c.page.SetValue(idComposeBody, QuoteBody(email)))
	c.mu.Unlock()
	c.changed(models.ViewCompose)
}

// advance starts a new navigation and returns its token. Caller holds mu.
func (c *Controller) advance() uint64 {
	c.nav++
	return c.nav
}

func (c *Controller) changed(mode models.ViewMode) {
	if c.notify != nil {
		c.notify(mode)
	}
}

// check logs page edits that failed. The skeleton always carries the ids
// the controller edits, so a failure means the templates are broken.
func (c *Controller) check(err error) {
	if err != nil {
		c.log.Error("page update: %v", err)
	}
}
