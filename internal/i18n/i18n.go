// Package i18n loads the translation catalogs used to materialize
// notification text. Message keys are the English strings, so English needs
// no catalog file.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localesFS embed.FS

// Bundle is an immutable set of catalogs plus a matcher over the supported
// locales. It holds no "current locale"; callers always pass one.
type Bundle struct {
	base      language.Tag
	supported []language.Tag
	matcher   language.Matcher
	catalog   catalog.Catalog
}

// New builds a Bundle from the embedded catalogs. base must be one of
// locales; locales lists every locale content is produced for.
func New(base string, locales []string) (*Bundle, error) {
	return newBundle(localesFS, "locales", base, locales)
}

func newBundle(fsys fs.FS, dir, base string, locales []string) (*Bundle, error) {
	baseTag, err := language.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base locale %q: %w", base, err)
	}

	// base first so the matcher falls back to it
	supported := []language.Tag{baseTag}
	for _, l := range locales {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", l, err)
		}
		if tag != baseTag {
			supported = append(supported, tag)
		}
	}

	builder := catalog.NewBuilder(catalog.Fallback(baseTag))
	for _, tag := range supported {
		messages, err := readCatalog(fsys, dir, tag)
		if err != nil {
			return nil, err
		}
		for key, text := range messages {
			if err := builder.SetString(tag, key, text); err != nil {
				return nil, fmt.Errorf("catalog %s: key %q: %w", tag, key, err)
			}
		}
	}

	return &Bundle{
		base:      baseTag,
		supported: supported,
		matcher:   language.NewMatcher(supported),
		catalog:   builder,
	}, nil
}

func readCatalog(fsys fs.FS, dir string, tag language.Tag) (map[string]string, error) {
	data, err := fs.ReadFile(fsys, path.Join(dir, tag.String()+".yaml"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read catalog %s: %w", tag, err)
	}
	var messages map[string]string
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", tag, err)
	}
	return messages, nil
}

// Base returns the base locale.
func (b *Bundle) Base() string {
	return b.base.String()
}

// Supported returns the supported locales, base first.
func (b *Bundle) Supported() []string {
	out := make([]string, len(b.supported))
	for i, t := range b.supported {
		out[i] = t.String()
	}
	return out
}

// Match returns the supported locale closest to preferred, or the base
// locale when preferred is empty or unparsable.
func (b *Bundle) Match(preferred string) string {
	if preferred == "" {
		return b.Base()
	}
	tag, err := language.Parse(preferred)
	if err != nil {
		return b.Base()
	}
	_, idx, _ := b.matcher.Match(tag)
	return b.supported[idx].String()
}

// Locales returns the match for preferred followed by the base locale.
func (b *Bundle) Locales(preferred string) []string {
	matched := b.Match(preferred)
	if matched == b.Base() {
		return []string{matched}
	}
	return []string{matched, b.Base()}
}

// Printer returns a printer for locale. Unknown locales print in the base locale.
func (b *Bundle) Printer(locale string) *message.Printer {
	return message.NewPrinter(language.Make(b.Match(locale)), message.Catalog(b.catalog))
}
