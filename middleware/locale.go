package middleware

import (
	"mailpane/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/language"
)

var matcher = language.NewMatcher(utils.SupportedLanguages)

// LocaleMiddleware picks the user's language and stores it in c.Locals as
// "lang" and its localizer as "localizer". Sources, in order: ?lang, the
// lang cookie, Accept-Language. A ?lang choice is kept in the lang cookie so
// the page's later requests stay in that language.
func LocaleMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lang := NegotiateLanguage(c.Query("lang"), c.Cookies("lang"), c.Get(fiber.HeaderAcceptLanguage))

		if c.Query("lang") != "" && c.Cookies("lang") != lang {
			c.Cookie(&fiber.Cookie{
				Name:     "lang",
				Value:    lang,
				Path:     "/",
				MaxAge:   365 * 24 * 60 * 60,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}

		c.Locals("localizer", utils.GetLocalizer(lang))
		c.Locals("lang", lang)

		utils.Log.Debug("Locale detected: %s for path: %s", lang, c.Path())

		return c.Next()
	}
}

// NegotiateLanguage returns the base language of the first supported
// preference. Explicit choices (query, cookie) win over the header.
func NegotiateLanguage(query, cookie, acceptLanguage string) string {
	for _, explicit := range []string{query, cookie} {
		if explicit == "" {
			continue
		}
		if tag, err := language.Parse(explicit); err == nil {
			if _, _, conf := matcher.Match(tag); conf >= language.High {
				return baseOf(tag)
			}
		}
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.English.String()
	}
	tag, _, _ := matcher.Match(tags...)
	return baseOf(tag)
}

func baseOf(tag language.Tag) string {
	base, _ := tag.Base()
	switch base.String() {
	case "ja":
		return "ja"
	default:
		return "en"
	}
}
