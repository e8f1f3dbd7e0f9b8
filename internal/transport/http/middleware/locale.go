package middleware

import (
	"net/http"

	"timebank/internal/platform/i18n"
)

// Locale picks the response language from ?lang= or Accept-Language.
func Locale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := ""
		if lang := r.URL.Query().Get("lang"); lang != "" && i18n.Supported(lang) {
			locale = lang
		} else {
			locale = i18n.FromAcceptLanguage(r.Header.Get("Accept-Language"))
		}
		if locale != "" {
			w.Header().Set("Content-Language", locale)
			r = r.WithContext(i18n.WithLocale(r.Context(), locale))
		}
		next.ServeHTTP(w, r)
	})
}
