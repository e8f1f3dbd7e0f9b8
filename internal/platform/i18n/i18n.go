package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	bundle        *i18n.Bundle
	loadOnce      sync.Once
	loadErr       error
	mu            sync.RWMutex
	defaultLocale = "en"
)

type ctxKey struct{}

func load() error {
	loadOnce.Do(func() {
		b := i18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("json", json.Unmarshal)

		entries, err := localeFS.ReadDir("locales")
		if err != nil {
			loadErr = fmt.Errorf("i18n: read locales dir: %w", err)
			return
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			data, err := localeFS.ReadFile("locales/" + e.Name())
			if err != nil {
				loadErr = fmt.Errorf("i18n: read %s: %w", e.Name(), err)
				return
			}
			if _, err := b.ParseMessageFileBytes(data, e.Name()); err != nil {
				loadErr = fmt.Errorf("i18n: parse %s: %w", e.Name(), err)
				return
			}
		}
		bundle = b
	})
	return loadErr
}

// Init loads the embedded locale files and sets the default locale.
func Init(defLocale string) error {
	if err := load(); err != nil {
		return err
	}
	if defLocale == "" {
		return nil
	}
	if !Supported(defLocale) {
		return fmt.Errorf("i18n: unsupported default locale %q", defLocale)
	}
	mu.Lock()
	defaultLocale = defLocale
	mu.Unlock()
	return nil
}

// Supported reports whether a locale file exists for the base language of locale.
func Supported(locale string) bool {
	if load() != nil {
		return false
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return false
	}
	base, _ := tag.Base()
	for _, t := range bundle.LanguageTags() {
		if b, _ := t.Base(); b == base {
			return true
		}
	}
	return false
}

// WithLocale returns a new context carrying the given locale string (e.g. "de", "en").
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ctxKey{}, locale)
}

// LocaleFromContext returns the locale stored on ctx or the configured default.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	mu.RLock()
	defer mu.RUnlock()
	return defaultLocale
}

// FromAcceptLanguage picks the first supported locale of an Accept-Language header.
func FromAcceptLanguage(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return ""
	}
	for _, tag := range tags {
		if Supported(tag.String()) {
			base, _ := tag.Base()
			return strings.ToLower(base.String())
		}
	}
	return ""
}

// T translates a message ID using the locale from the context. Unknown IDs
// come back unchanged.
func T(ctx context.Context, messageID string, templateData ...map[string]any) string {
	if load() != nil {
		return messageID
	}
	l := i18n.NewLocalizer(bundle, LocaleFromContext(ctx))

	cfg := &i18n.LocalizeConfig{MessageID: messageID}
	if len(templateData) > 0 && templateData[0] != nil {
		cfg.TemplateData = templateData[0]
	}

	msg, err := l.Localize(cfg)
	if err != nil {
		return messageID
	}
	return msg
}
