// Package i18n renders localized user-facing error messages.
package i18n

import (
	"bytes"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/language"
)

// Code is a machine-readable error code. It mirrors errors.Code as a plain
// string so this package stays import-free of its caller.
type Code = string

// BaseLocale is the locale every lookup ends on.
const BaseLocale = "en-US"

// Catalog holds the parsed message templates of one locale.
type Catalog struct {
	locale    string
	raw       map[Code]string
	templates map[Code]*template.Template
}

var registry = struct {
	sync.RWMutex
	byLocale map[string]*Catalog
}{byLocale: map[string]*Catalog{BaseLocale: NewCatalog(BaseLocale, enUSMessages)}}

// NewCatalog parses messages once. A message that is not a valid template
// is kept and rendered verbatim.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	c := &Catalog{
		locale:    canonical(locale),
		raw:       make(map[Code]string, len(messages)),
		templates: make(map[Code]*template.Template, len(messages)),
	}
	for code, message := range messages {
		c.raw[code] = message
		if parsed, err := template.New(code).Option("missingkey=default").Parse(message); err == nil {
			c.templates[code] = parsed
		}
	}
	return c
}

// RegisterCatalog makes c available under its locale, replacing any catalog
// already registered there.
func RegisterCatalog(c *Catalog) {
	if c == nil || c.locale == "" {
		return
	}
	registry.Lock()
	registry.byLocale[c.locale] = c
	registry.Unlock()
}

// GetCatalog resolves locale to a registered catalog. The exact tag is
// tried first, then its base language, then BaseLocale.
func GetCatalog(locale string) *Catalog {
	registry.RLock()
	defer registry.RUnlock()
	for _, candidate := range fallbackChain(locale) {
		if c, ok := registry.byLocale[candidate]; ok {
			return c
		}
	}
	return registry.byLocale[BaseLocale]
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders code with metadata. A code missing from this catalog is
// taken from the base catalog; a code missing from both renders as itself.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	if _, ok := c.raw[code]; !ok && c.locale != BaseLocale {
		return GetCatalog(BaseLocale).Format(code, metadata)
	}
	raw, ok := c.raw[code]
	if !ok {
		return code
	}
	parsed, ok := c.templates[code]
	if !ok {
		return raw
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	var buf bytes.Buffer
	if err := parsed.Execute(&buf, metadata); err != nil {
		return raw
	}
	return buf.String()
}

// fallbackChain lists the registry keys to try for locale, most specific
// first.
func fallbackChain(locale string) []string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return []string{BaseLocale}
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return []string{locale, BaseLocale}
	}
	chain := []string{tag.String()}
	if base, confidence := tag.Base(); confidence != language.No && base.String() != tag.String() {
		chain = append(chain, base.String())
	}
	return append(chain, BaseLocale)
}

func canonical(locale string) string {
	locale = strings.TrimSpace(locale)
	if tag, err := language.Parse(locale); err == nil {
		return tag.String()
	}
	return locale
}
