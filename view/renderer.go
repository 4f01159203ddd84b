package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"mailpane/models"
	"mailpane/templates"
	"mailpane/utils"

	"github.com/gofiber/fiber/v2"
	fiberhtml "github.com/gofiber/template/html/v2"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// Renderer turns data into markup. It holds no view state; the same
// Renderer serves every session and is also Fiber's view engine.
type Renderer struct {
	engine *fiberhtml.Engine
}

// NewRenderer loads the embedded templates
func NewRenderer() (*Renderer, error) {
	engine := fiberhtml.NewFileSystem(http.FS(templates.FS), ".html")

	engine.AddFunc("t", func(loc *i18n.Localizer, messageID string) string {
		return utils.T(loc, messageID)
	})

	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	return &Renderer{engine: engine}, nil
}

// Engine exposes the template engine for fiber.Config.Views
func (r *Renderer) Engine() fiber.Views {
	return r.engine
}

// App renders the empty page skeleton a view controller starts from
func (r *Renderer) App(loc *i18n.Localizer) (template.HTML, error) {
	return r.render("partials/app", fiber.Map{"Loc": loc})
}

// MailboxPage renders the titled container of a mailbox with the list
// area showing the loading placeholder.
func (r *Renderer) MailboxPage(loc *i18n.Localizer, mailbox models.Mailbox) (template.HTML, error) {
	return r.render("partials/mailbox", fiber.Map{
		"Loc":   loc,
		"Title": utils.T(loc, "nav_"+string(mailbox)),
	})
}

// EmailRow renders one list row. The row carries the email id in data-id.
func (r *Renderer) EmailRow(loc *i18n.Localizer, email models.Email) (template.HTML, error) {
	return r.render("partials/email-row", fiber.Map{
		"Loc":   loc,
		"Email": email,
	})
}

// EmailDetail renders a full email. Reply and archive controls are left out
// for sent mail.
func (r *Renderer) EmailDetail(loc *i18n.Localizer, email models.Email, isSent bool) (template.HTML, error) {
	return r.render("partials/email-detail", fiber.Map{
		"Loc":    loc,
		"Email":  email,
		"Body":   template.HTML(utils.SanitizeBody(email.Body)),
		"IsSent": isSent,
	})
}

// ListMessage renders a localized text placeholder for the list area
func (r *Renderer) ListMessage(loc *i18n.Localizer, messageID string) (template.HTML, error) {
	return r.render("partials/list-message", fiber.Map{
		"Text": utils.T(loc, messageID),
	})
}

// ComposeError renders the banner shown under the compose form
func (r *Renderer) ComposeError(loc *i18n.Localizer) (template.HTML, error) {
	return r.render("partials/compose-error", fiber.Map{"Loc": loc})
}

func (r *Renderer) render(name string, binding fiber.Map) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.engine.Render(&buf, name, binding); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}
