package utils

import (
	"sync"

	"mailpane/locales"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

var (
	// Bundle is the global translation bundle
	Bundle *i18n.Bundle
	// Localizer is the default localizer
	Localizer *i18n.Localizer

	// SupportedLanguages lists the locales shipped in locales/, default first
	SupportedLanguages = []language.Tag{language.English, language.Japanese}

	i18nOnce sync.Once
	i18nErr  error
)

// InitI18n loads the embedded translation files. It is safe to call more than once.
func InitI18n() error {
	i18nOnce.Do(func() {
		Bundle = i18n.NewBundle(language.English)
		Bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

		for _, file := range []string{"active.en.toml", "active.ja.toml"} {
			if _, err := Bundle.LoadMessageFileFS(locales.FS, file); err != nil {
				Log.Warn("Failed to load locale %s: %v", file, err)
				i18nErr = err
			}
		}

		Localizer = i18n.NewLocalizer(Bundle, language.English.String())
		Log.Info("i18n system initialized")
	})
	return i18nErr
}

// GetLocalizer returns a localizer for the specified language
func GetLocalizer(lang string) *i18n.Localizer {
	if Bundle == nil {
		InitI18n()
	}
	if lang == "" {
		lang = language.English.String()
	}
	return i18n.NewLocalizer(Bundle, lang)
}

// T translates a message ID. The ID itself is returned when no translation exists.
func T(localizer *i18n.Localizer, messageID string) string {
	if localizer == nil {
		localizer = Localizer
	}
	if localizer == nil {
		return messageID
	}
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID: messageID,
	})
	if err != nil {
		Log.Debug("Translation error for '%s': %v", messageID, err)
		return messageID
	}
	return msg
}
