// handlers/web/mailbox.go
package web

import (
	"mailpane/config"
	"mailpane/controller"
	"mailpane/handlers/api"
	"mailpane/middleware"
	"mailpane/models"
	"mailpane/utils"
	"mailpane/view"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

const viewIDKey = "view_id"

// MailboxHandler serves the mail client page and its delegated events
type MailboxHandler struct {
	store    *session.Store
	config   *config.Config
	views    *controller.Registry
	svc      controller.MailService
	renderer *view.Renderer
	notify   *api.NotificationHandler
}

func NewMailboxHandler(store *session.Store, config *config.Config, views *controller.Registry, svc controller.MailService, renderer *view.Renderer, notify *api.NotificationHandler) *MailboxHandler {
	return &MailboxHandler{
		store:    store,
		config:   config,
		views:    views,
		svc:      svc,
		renderer: renderer,
		notify:   notify,
	}
}

// eventRequest is the body posted by the page's delegated listeners
type eventRequest struct {
	Action     string `json:"action" form:"action"`
	Mailbox    string `json:"mailbox" form:"mailbox"`
	ID         string `json:"id" form:"id"`
	Recipients string `json:"recipients" form:"recipients"`
	Subject    string `json:"subject" form:"subject"`
	Body       string `json:"body" form:"body"`
}

// HandleApp renders the full page. The first visit of a view session loads
// the inbox.
func (h *MailboxHandler) HandleApp(c *fiber.Ctx) error {
	ctrl, viewID, err := h.viewController(c)
	if err != nil {
		return err
	}

	ctrl.Start(c.UserContext())

	markup, err := ctrl.Markup()
	if err != nil {
		return utils.InternalServerError("Error rendering page", err)
	}

	token, err := api.IssuePushToken(viewID, h.config.Session.Secret, h.config.Session.Expiration())
	if err != nil {
		return utils.InternalServerError("Error issuing push token", err)
	}

	return c.Render("index", fiber.Map{
		"App":       markup,
		"CSRFToken": middleware.GenerateCSRFToken(c),
		"PushToken": token,
		"Lang":      c.Locals("lang"),
	})
}

// HandleFragment returns the current #app markup
func (h *MailboxHandler) HandleFragment(c *fiber.Ctx) error {
	ctrl, _, err := h.viewController(c)
	if err != nil {
		return err
	}
	ctrl.Start(c.UserContext())
	return sendFragment(c, ctrl)
}

// HandleEvent dispatches one delegated UI event. HTMX callers get the new
// #app markup; plain form posts are redirected back to the page.
func (h *MailboxHandler) HandleEvent(c *fiber.Ctx) error {
	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("Invalid request", err)
	}

	ctrl, viewID, err := h.viewController(c)
	if err != nil {
		return err
	}

	utils.Log.WithFields(map[string]interface{}{
		"view":   viewID,
		"action": req.Action,
	}).Debug("UI event")

	ctrl.Dispatch(c.UserContext(), controller.Event{
		Action:     controller.Action(req.Action),
		Mailbox:    req.Mailbox,
		ID:         controller.ParseID(req.ID),
		Recipients: req.Recipients,
		Subject:    req.Subject,
		Body:       req.Body,
	})

	if c.Get("HX-Request") == "" {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	return sendFragment(c, ctrl)
}

// viewController returns the caller's controller, creating the view session
// and the controller on first use. Controllers are kept per view session and
// language, so a language switch gets a page rendered in that language.
func (h *MailboxHandler) viewController(c *fiber.Ctx) (*controller.Controller, string, error) {
	sess, err := h.store.Get(c)
	if err != nil {
		return nil, "", utils.InternalServerError("Session error", err)
	}

	viewID, _ := sess.Get(viewIDKey).(string)
	if viewID == "" {
		viewID = uuid.New().String()
		sess.Set(viewIDKey, viewID)
		if err := sess.Save(); err != nil {
			return nil, "", utils.InternalServerError("Session error", err)
		}
	}

	localizer, _ := c.Locals("localizer").(*i18n.Localizer)
	lang, _ := c.Locals("lang").(string)
	ctrl, err := h.views.GetOrCreate(viewID+":"+lang, func() (*controller.Controller, error) {
		return controller.New(h.svc, h.renderer, localizer,
			controller.WithNotifier(func(mode models.ViewMode) {
				h.notify.NotifyRender(viewID, mode)
			}),
			controller.WithLogger(utils.Log.WithFields(map[string]interface{}{
				"component": "view",
				"view":      viewID,
				"lang":      lang,
			})),
		)
	})
	if err != nil {
		return nil, "", utils.InternalServerError("Error building view", err)
	}

	return ctrl, viewID, nil
}

func sendFragment(c *fiber.Ctx, ctrl *controller.Controller) error {
	markup, err := ctrl.Markup()
	if err != nil {
		return utils.InternalServerError("Error rendering page", err)
	}
	c.Type("html", "utf-8")
	return c.SendString(string(markup))
}
