package api

import (
	"mailpane/utils"

	"github.com/gofiber/fiber/v2"
)

// clientMessages are the strings the browser script may show on its own
var clientMessages = []string{
	"email_loading",
	"email_no_messages",
	"email_fetch_failed",
	"compose_error",
	"message_connection_error",
	"error_404",
	"error_500",
	"error_rate_limited",
}

// I18nHandler handles i18n-related requests
type I18nHandler struct{}

// GetTranslations returns translations for client-side script
func (h *I18nHandler) GetTranslations(c *fiber.Ctx) error {
	lang := c.Params("lang")
	if lang != "en" && lang != "ja" {
		lang = "en"
	}

	localizer := utils.GetLocalizer(lang)

	translations := make(map[string]string, len(clientMessages))
	for _, id := range clientMessages {
		translations[id] = utils.T(localizer, id)
	}

	return c.JSON(translations)
}
