package adminform

import (
	"gopkg.in/leonelquinteros/gotext.v1"
)

// Load translations, eg: translations/zh_Hant_TW/LC_MESSAGES/admin.po
func configureText(c *Config) {
	if folder := c.String(ConfigTranslations); folder != "" {
		gotext.Configure(folder, c.String(ConfigLanguage), "admin")
	}
}

// untranslated text is formatted as is
func gettext(format string, a ...any) string {
	return gotext.Get(format, a...)
}
