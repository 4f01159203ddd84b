package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mailpane/config"
	"mailpane/controller"
	"mailpane/handlers/api"
	"mailpane/handlers/web"
	"mailpane/middleware"
	"mailpane/storage"
	"mailpane/utils"
	"mailpane/view"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/websocket/v2"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// deps are the long-lived collaborators the routes are wired to
type deps struct {
	config   *config.Config
	store    *session.Store
	svc      controller.MailService
	renderer *view.Renderer
	views    *controller.Registry
	notify   *api.NotificationHandler
}

// isAPIRequest reports whether the caller expects JSON or a fragment
// rather than a full page.
func isAPIRequest(c *fiber.Ctx) bool {
	if c == nil {
		return false
	}

	if c.Get("HX-Request") != "" {
		return true
	}

	path := c.Path()
	return len(path) >= 4 && path[:4] == "/api"
}

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		utils.Log.Warn("Failed to load config %s, using defaults: %v", *configPath, err)
		cfg = config.Default()
		if err := cfg.Validate(); err != nil {
			utils.Log.Error("Invalid default configuration: %v", err)
			os.Exit(1)
		}
	}
	utils.Log.SetLevel(utils.ParseLogLevel(cfg.Log.Level))
	if cfg.Session.SecretGenerated() {
		utils.Log.Warn("session.secret is not set; push tokens will not survive a restart")
	}

	utils.Log.Info("Initializing mailpane...")

	if err := utils.InitI18n(); err != nil {
		utils.Log.Error("Failed to initialize i18n: %v", err)
	}

	renderer, err := view.NewRenderer()
	if err != nil {
		utils.Log.Error("Failed to load templates: %v", err)
		os.Exit(1)
	}

	sessions, err := storage.NewSessionStorage(cfg.Session.DataDir)
	if err != nil {
		utils.Log.Error("Failed to initialize session storage: %v", err)
		os.Exit(1)
	}
	defer sessions.Close()
	go sweepSessions(sessions, time.Hour)

	store := session.New(session.Config{
		Storage:        sessions,
		Expiration:     cfg.Session.Expiration(),
		KeyLookup:      "cookie:mailpane_session",
		CookieSecure:   false, // Set to true in production with HTTPS
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})

	views := controller.NewRegistry(cfg.Session.ViewTTL())
	defer views.Stop()

	app := newApp(deps{
		config:   cfg,
		store:    store,
		svc:      api.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout()),
		renderer: renderer,
		views:    views,
		notify:   api.NewNotificationHandler(cfg.Session.Secret),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		utils.Log.Info("Shutting down...")
		if err := app.Shutdown(); err != nil {
			utils.Log.Error("Error during shutdown: %v", err)
		}
	}()

	utils.Log.Info("Starting server on port %d (backend %s)...", cfg.Server.Port, cfg.Backend.BaseURL)
	if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		utils.Log.Error("Error starting server: %v", err)
	}
}

func newApp(d deps) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:       d.renderer.Engine(),
		ViewsLayout: "layouts/main",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			if appErr, ok := err.(*utils.AppError); ok {
				code = appErr.Code
				utils.Log.Error("Application error: %v", appErr)
			} else if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			if isAPIRequest(c) {
				return c.Status(code).JSON(fiber.Map{
					"error": err.Error(),
				})
			}

			return c.Status(code).Render("error", fiber.Map{
				"Error": err.Error(),
				"Code":  code,
				"Lang":  c.Locals("lang"),
			})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())
	app.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		ReferrerPolicy:     "no-referrer",
		ContentSecurityPolicy: "default-src 'self'; " +
			"script-src 'self' 'unsafe-inline' https://unpkg.com; " +
			"style-src 'self' 'unsafe-inline' https://cdn.jsdelivr.net; " +
			"connect-src 'self' ws: wss:;",
	}))

	app.Use(middleware.LocaleMiddleware())
	app.Use(middleware.RateLimiter(d.config.RateLimit.Requests, d.config.RateLimit.Window()))

	mailboxHandler := web.NewMailboxHandler(d.store, d.config, d.views, d.svc, d.renderer, d.notify)
	i18nHandler := &api.I18nHandler{}

	app.Get("/", mailboxHandler.HandleApp)

	ui := app.Group("/ui", middleware.CSRFProtection())
	ui.Get("/app", mailboxHandler.HandleFragment)
	ui.Post("/event", mailboxHandler.HandleEvent)

	app.Get("/api/i18n/:lang", i18nHandler.GetTranslations)

	app.Use("/ws", d.notify.Upgrade)
	app.Get("/ws", websocket.New(d.notify.HandleWebSocket))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// 404 Handler for undefined routes
	app.Use(func(c *fiber.Ctx) error {
		localizer, _ := c.Locals("localizer").(*i18n.Localizer)

		if isAPIRequest(c) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": utils.T(localizer, "error_404"),
			})
		}
		return c.Status(fiber.StatusNotFound).Render("error", fiber.Map{
			"Error": utils.T(localizer, "error_404"),
			"Code":  fiber.StatusNotFound,
			"Lang":  c.Locals("lang"),
		})
	})

	return app
}

// sweepSessions drops expired sessions from disk
func sweepSessions(s *storage.SessionStorage, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for range ticker.C {
		if n, err := s.Sweep(); err != nil {
			utils.Log.Warn("Session sweep failed: %v", err)
		} else if n > 0 {
			utils.Log.Debug("Swept %d expired sessions", n)
		}
	}
}
