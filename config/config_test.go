package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Base != "i18n/app" {
		t.Fatalf("base = %q", cfg.Base)
	}
	if len(cfg.Languages) != 3 || cfg.Languages[0] != "zh_CN" {
		t.Fatalf("languages = %v", cfg.Languages)
	}
	if cfg.SourceLang != "en" {
		t.Fatalf("source lang = %q", cfg.SourceLang)
	}
	if cfg.CommitRange != DefaultCommitRange {
		t.Fatalf("commit range = %q", cfg.CommitRange)
	}
	if cfg.Limits.MaxCommits != DefaultMaxCommits || cfg.Limits.MaxFileSize != DefaultMaxFileSize {
		t.Fatalf("limits = %+v", cfg.Limits)
	}
}

func TestLoadFile(t *testing.T) {
	dir := writeConfig(t, `
base: translations/desktop
languages: [de, fr, pt_BR]
source_lang: en_US
sources: ["*.cpp", "*.qml"]
commit_range: v1.0..HEAD
limits:
  max_commits: 50
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Base != "translations/desktop" {
		t.Fatalf("base = %q", cfg.Base)
	}
	if len(cfg.Languages) != 3 || cfg.Languages[2] != "pt_BR" {
		t.Fatalf("languages = %v", cfg.Languages)
	}
	if cfg.CommitRange != "v1.0..HEAD" {
		t.Fatalf("commit range = %q", cfg.CommitRange)
	}
	if cfg.Limits.MaxCommits != 50 {
		t.Fatalf("max commits = %d", cfg.Limits.MaxCommits)
	}
	// Unset limits fall back to defaults.
	if cfg.Limits.MaxTableRows != DefaultMaxTableRows {
		t.Fatalf("max table rows = %d", cfg.Limits.MaxTableRows)
	}
	if len(cfg.Sources) != 2 || cfg.Sources[1] != "*.qml" {
		t.Fatalf("sources = %v", cfg.Sources)
	}
}

func TestLoadRejectsBadConfig(t *testing.T) {
	cases := []string{
		"languages: [zh_CN]",               // no base
		"base: i18n/app\nlanguages: []",    // no languages
		"base: a\nlanguages: [not a tag!]", // invalid code
		"base: a\nlanguages: [de, de]",     // duplicate
		"base: a\nlanguages: [de\n  - broken yaml",
	}
	for _, content := range cases {
		dir := writeConfig(t, content)
		if _, err := Load(dir); err == nil {
			t.Fatalf("Load accepted bad config:\n%s", content)
		}
	}
}

func TestTSPath(t *testing.T) {
	dir := t.TempDir()
	cfg := Default(dir)

	got := cfg.TSPath("zh_CN")
	want := filepath.Join(dir, "i18n", "app_zh_CN.ts")
	if got != want {
		t.Fatalf("TSPath = %q, want %q", got, want)
	}
	if cfg.Root() != dir {
		t.Fatalf("Root = %q, want %q", cfg.Root(), dir)
	}
}

func TestValidateLang(t *testing.T) {
	valid := []string{"de", "zh_CN", "zh-TW", "pt_BR", "sr_Latn"}
	for _, lang := range valid {
		if err := ValidateLang(lang); err != nil {
			t.Fatalf("ValidateLang(%q) = %v", lang, err)
		}
	}

	invalid := []string{"", "not a tag!", "zz_##"}
	for _, lang := range invalid {
		if err := ValidateLang(lang); err == nil {
			t.Fatalf("ValidateLang(%q) accepted", lang)
		}
	}
}

func TestLoadErrorNamesFile(t *testing.T) {
	dir := writeConfig(t, "base: a\nlanguages: []")
	_, err := Load(dir)
	if err == nil {
		t.Fatal("Load accepted empty language list")
	}
	if !strings.Contains(err.Error(), FileName) {
		t.Fatalf("error does not name the config file: %v", err)
	}
}
