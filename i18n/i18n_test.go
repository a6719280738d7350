package i18n

import "testing"

func TestTranslatesKnownLanguage(t *testing.T) {
	Init("zh_CN")
	if got := T("No untranslated entries"); got != "没有待翻译的条目" {
		t.Fatalf("T = %q", got)
	}
}

func TestFallsBackForUnknownLanguage(t *testing.T) {
	Init("fi")
	if got := T("No untranslated entries"); got != "No untranslated entries" {
		t.Fatalf("T = %q, want passthrough", got)
	}
}

func TestUnknownMessagePassesThrough(t *testing.T) {
	Init("zh_CN")
	if got := T("message that has no catalog entry"); got != "message that has no catalog entry" {
		t.Fatalf("T = %q", got)
	}
}

func TestDetectLanguagePriority(t *testing.T) {
	t.Setenv("LANGUAGE", "de:fr")
	t.Setenv("LC_ALL", "ru_RU.UTF-8")
	t.Setenv("LANG", "en_US.UTF-8")
	if got := detectLanguage(); got != "de" {
		t.Fatalf("detectLanguage = %q, want de", got)
	}

	t.Setenv("LANGUAGE", "")
	if got := detectLanguage(); got != "ru_RU" {
		t.Fatalf("detectLanguage = %q, want ru_RU", got)
	}

	t.Setenv("LC_ALL", "C")
	if got := detectLanguage(); got != "en_US" {
		t.Fatalf("detectLanguage = %q, want en_US", got)
	}
}
