// Package config — .tskit.yaml configuration file support.
//
// The config names the catalog base path, the target languages and the
// bounds that keep extraction and transport parsing finite. When no
// .tskit.yaml exists, defaults are used; every command can override the
// relevant fields with flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// FileName is the config file name, looked up in the project root.
const FileName = ".tskit.yaml"

// Default bounds for history scanning and transport parsing.
const (
	DefaultMaxCommits   = 200
	DefaultMaxTableRows = 5000
	DefaultMaxCellLen   = 4096
	DefaultMaxFileSize  = 16 << 20
)

// DefaultCommitRange is scanned when no range is given.
const DefaultCommitRange = "HEAD~10..HEAD"

// defaultSources are the file patterns scanned for Qt translation calls.
var defaultSources = []string{"*.cpp", "*.h", "*.ui"}

// Limits bounds the expensive inputs: history depth, table size and
// catalog file size. Zero values fall back to the defaults on load.
type Limits struct {
	MaxCommits   int   `yaml:"max_commits,omitempty"`
	MaxTableRows int   `yaml:"max_table_rows,omitempty"`
	MaxCellLen   int   `yaml:"max_cell_len,omitempty"`
	MaxFileSize  int64 `yaml:"max_file_size,omitempty"`
}

// Config is the top-level .tskit.yaml structure.
type Config struct {
	// Base is the catalog path base relative to the project root:
	// "i18n/app" resolves to i18n/app_zh_CN.ts and siblings.
	Base string `yaml:"base"`
	// Languages are the target locale codes, one catalog each.
	Languages []string `yaml:"languages"`
	// SourceLang is the language the source strings are written in.
	SourceLang string `yaml:"source_lang,omitempty"`
	// Sources are glob patterns selecting files to scan in revision
	// history.
	Sources []string `yaml:"sources,omitempty"`
	// CommitRange is the default revision range for collection.
	CommitRange string `yaml:"commit_range,omitempty"`
	// Limits bounds scanning and parsing.
	Limits Limits `yaml:"limits,omitempty"`

	root string
}

// Default returns the built-in configuration rooted at dir.
func Default(dir string) *Config {
	c := &Config{
		Base:        "i18n/app",
		Languages:   []string{"zh_CN", "zh_HK", "zh_TW"},
		SourceLang:  "en",
		Sources:     append([]string(nil), defaultSources...),
		CommitRange: DefaultCommitRange,
		root:        dir,
	}
	c.applyDefaults()
	return c
}

// Load reads .tskit.yaml from the given directory. A missing file is not
// an error: the defaults are returned.
func Load(rootDir string) (*Config, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(rootDir), nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	c := &Config{root: rootDir}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.SourceLang == "" {
		c.SourceLang = "en"
	}
	if len(c.Sources) == 0 {
		c.Sources = append([]string(nil), defaultSources...)
	}
	if c.CommitRange == "" {
		c.CommitRange = DefaultCommitRange
	}
	if c.Limits.MaxCommits <= 0 {
		c.Limits.MaxCommits = DefaultMaxCommits
	}
	if c.Limits.MaxTableRows <= 0 {
		c.Limits.MaxTableRows = DefaultMaxTableRows
	}
	if c.Limits.MaxCellLen <= 0 {
		c.Limits.MaxCellLen = DefaultMaxCellLen
	}
	if c.Limits.MaxFileSize <= 0 {
		c.Limits.MaxFileSize = DefaultMaxFileSize
	}
}

// Validate checks the language list and base path.
func (c *Config) Validate() error {
	if c.Base == "" {
		return fmt.Errorf("base catalog path not set")
	}
	if len(c.Languages) == 0 {
		return fmt.Errorf("no target languages configured")
	}
	seen := make(map[string]bool, len(c.Languages))
	for _, lang := range c.Languages {
		if err := ValidateLang(lang); err != nil {
			return err
		}
		if seen[lang] {
			return fmt.Errorf("duplicate language %q", lang)
		}
		seen[lang] = true
	}
	return nil
}

// Root returns the directory the config was loaded from.
func (c *Config) Root() string { return c.root }

// TSPath resolves the catalog file path for a language:
// base "i18n/app" + "zh_CN" → <root>/i18n/app_zh_CN.ts.
func (c *Config) TSPath(lang string) string {
	return filepath.Join(c.root, c.Base+"_"+lang+".ts")
}

// ValidateLang checks that a locale code is a well-formed language tag.
// Qt catalogs use underscore locales (zh_CN); they are normalized to
// BCP-47 for validation only and kept underscore-form everywhere else.
func ValidateLang(lang string) error {
	if lang == "" {
		return fmt.Errorf("empty language code")
	}
	tag := strings.ReplaceAll(lang, "_", "-")
	if _, err := language.Parse(tag); err != nil {
		return fmt.Errorf("invalid language %q: %w", lang, err)
	}
	return nil
}
