package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mailpane/utils"

	"github.com/gofiber/fiber/v2"
)

func TestNegotiateLanguage(t *testing.T) {
	utils.InitI18n()

	tests := []struct {
		name           string
		query, cookie  string
		acceptLanguage string
		want           string
	}{
		{"query wins", "ja", "en", "en", "ja"},
		{"cookie", "", "ja", "en-US", "ja"},
		{"unsupported explicit falls through", "fr", "", "ja,en;q=0.8", "ja"},
		{"header region", "", "", "ja-JP,en;q=0.5", "ja"},
		{"header english", "", "", "en-US,en;q=0.9", "en"},
		{"unsupported header", "", "", "fr-FR", "en"},
		{"nothing", "", "", "", "en"},
		{"garbage", "???", "", "", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NegotiateLanguage(tt.query, tt.cookie, tt.acceptLanguage); got != tt.want {
				t.Errorf("NegotiateLanguage(%q, %q, %q) = %q, want %q", tt.query, tt.cookie, tt.acceptLanguage, got, tt.want)
			}
		})
	}
}

func TestLocaleMiddleware(t *testing.T) {
	utils.InitI18n()
	app := fiber.New()
	app.Use(LocaleMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("lang").(string))
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept-Language", "ja")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ja" {
		t.Errorf("lang = %q", body)
	}
	if cookie := resp.Header.Get("Set-Cookie"); cookie != "" {
		t.Errorf("header language was persisted: %q", cookie)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/?lang=ja", nil))
	if err != nil {
		t.Fatal(err)
	}
	if cookie := resp.Header.Get("Set-Cookie"); !strings.Contains(cookie, "lang=ja") {
		t.Errorf("query language not persisted: %q", cookie)
	}

	req = httptest.NewRequest("GET", "/?lang=ja", nil)
	req.Header.Set("Cookie", "lang=ja")
	resp, _ = app.Test(req)
	if cookie := resp.Header.Get("Set-Cookie"); cookie != "" {
		t.Errorf("cookie reset although unchanged: %q", cookie)
	}
}

func newCSRFApp() *fiber.App {
	app := fiber.New()
	app.Get("/token", func(c *fiber.Ctx) error {
		return c.SendString(GenerateCSRFToken(c))
	})
	app.Post("/event", CSRFProtection(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestGenerateCSRFToken(t *testing.T) {
	app := newCSRFApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/token", nil))
	if err != nil {
		t.Fatal(err)
	}
	token, _ := io.ReadAll(resp.Body)
	if len(token) == 0 {
		t.Fatal("empty token")
	}
	cookie := resp.Header.Get("Set-Cookie")
	if !strings.Contains(cookie, "csrf_token="+string(token)) {
		t.Errorf("cookie %q does not carry the token", cookie)
	}

	// An existing cookie is reused.
	req := httptest.NewRequest("GET", "/token", nil)
	req.Header.Set("Cookie", "csrf_token=existing")
	resp, _ = app.Test(req)
	again, _ := io.ReadAll(resp.Body)
	if string(again) != "existing" {
		t.Errorf("token = %q, want existing", again)
	}
	if resp.Header.Get("Set-Cookie") != "" {
		t.Error("cookie reset although one was present")
	}
}

func TestCSRFProtection(t *testing.T) {
	app := newCSRFApp()

	tests := []struct {
		name   string
		cookie string
		header string
		form   string
		status int
	}{
		{"missing", "", "", "", fiber.StatusForbidden},
		{"cookie only", "abc", "", "", fiber.StatusForbidden},
		{"mismatch", "abc", "abd", "", fiber.StatusForbidden},
		{"header", "abc", "abc", "", fiber.StatusOK},
		{"form field", "abc", "", "csrf_token=abc&action=tab", fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/event", strings.NewReader(tt.form))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.cookie != "" {
				req.Header.Set("Cookie", "csrf_token="+tt.cookie)
			}
			if tt.header != "" {
				req.Header.Set("X-CSRF-Token", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	utils.InitI18n()
	app := fiber.New()
	app.Use(RateLimiter(2, time.Hour))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("request %d status = %d", i, resp.StatusCode)
		}
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Rate limit exceeded") {
		t.Errorf("body = %s", body)
	}
}
