// Package langmeta provides display metadata (native names, emoji
// flags) for the locale codes Qt catalogs are commonly translated to.
// Qt uses underscore locales (zh_CN); Resolve normalizes those before
// lookup and falls back to the base language.
package langmeta

import "strings"

// Meta describes language display metadata.
type Meta struct {
	Name string
	Flag string
}

// registry holds canonical metadata keyed by BCP-47 style codes.
// Underscore variants resolve through normalization in Resolve.
var registry = map[string]Meta{
	"ar":    {Name: "العربية", Flag: "🇸🇦"},
	"cs":    {Name: "Čeština", Flag: "🇨🇿"},
	"de":    {Name: "Deutsch", Flag: "🇩🇪"},
	"en":    {Name: "English", Flag: "🇺🇸"},
	"es":    {Name: "Español", Flag: "🇪🇸"},
	"fr":    {Name: "Français", Flag: "🇫🇷"},
	"it":    {Name: "Italiano", Flag: "🇮🇹"},
	"ja":    {Name: "日本語", Flag: "🇯🇵"},
	"ko":    {Name: "한국어", Flag: "🇰🇷"},
	"nl":    {Name: "Nederlands", Flag: "🇳🇱"},
	"pl":    {Name: "Polski", Flag: "🇵🇱"},
	"pt":    {Name: "Português", Flag: "🇵🇹"},
	"pt-BR": {Name: "Português (Brasil)", Flag: "🇧🇷"},
	"ru":    {Name: "Русский", Flag: "🇷🇺"},
	"th":    {Name: "ไทย", Flag: "🇹🇭"},
	"tr":    {Name: "Türkçe", Flag: "🇹🇷"},
	"uk":    {Name: "Українська", Flag: "🇺🇦"},
	"vi":    {Name: "Tiếng Việt", Flag: "🇻🇳"},
	"zh":    {Name: "中文", Flag: "🇨🇳"},
	"zh-CN": {Name: "简体中文", Flag: "🇨🇳"},
	"zh-HK": {Name: "香港繁體", Flag: "🇭🇰"},
	"zh-TW": {Name: "台灣繁體", Flag: "🇹🇼"},
}

// Normalize converts a locale code to canonical BCP-47 shape:
// underscores to hyphens, lowercase language, uppercase region
// (zh_cn → zh-CN).
func Normalize(lang string) string {
	s := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if s == "" {
		return ""
	}
	parts := strings.Split(s, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort metadata for a locale code, accepting Qt
// underscore forms and falling back to the base language. Unknown codes
// resolve to the code itself with no flag.
func Resolve(lang string) Meta {
	norm := Normalize(lang)
	if m, ok := registry[norm]; ok {
		return m
	}
	if base, _, ok := strings.Cut(norm, "-"); ok {
		if m, found := registry[base]; found {
			return m
		}
	}
	return Meta{Name: lang}
}

// NativeName returns the language's name in itself, or the code when
// unknown.
func NativeName(lang string) string {
	return Resolve(lang).Name
}

// Flag returns the emoji flag for a locale, or empty when unknown.
func Flag(lang string) string {
	return Resolve(lang).Flag
}
