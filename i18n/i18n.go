// Package i18n localizes tskit's own user-facing CLI strings.
//
// It wraps gotext with a T() helper; translations are embedded into the
// binary and loaded once at startup via Init(). When no catalog matches
// the user's locale, T() passes the original string through unchanged.
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// locales embeds the tool's own translation catalogs:
// locales/{lang}/LC_MESSAGES/tskit.po
//
//go:embed all:locales
var locales embed.FS

// domain is the gettext domain for tskit's own strings.
const domain = "tskit"

var locale *gotext.Locale

// Init loads the embedded catalog for the given language, auto-detecting
// from the environment when lang is empty. Call once before T().
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}
	locale = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	locale.AddDomain(domain)
	locale.SetDomain(domain)
}

// T translates one of tskit's own messages, falling back to the
// original string.
func T(msgid string) string {
	if locale == nil {
		return msgid
	}
	return locale.Get(msgid)
}

// detectLanguage follows the GNU gettext environment variable priority.
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		if idx := strings.IndexByte(val, '.'); idx >= 0 {
			val = val[:idx]
		}
		if val == "" || val == "C" || val == "POSIX" {
			continue
		}
		return val
	}
	return "en"
}
