// Package i18n negotiates the response language and translates the short user-facing strings
// the API returns, such as order status labels.
package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/bookshelf-ua/api/internal/platform/requestctx"
)

// Supported lists the languages with catalog entries. The first entry is the default.
var Supported = []language.Tag{language.English, language.Ukrainian}

var (
	matcher = language.NewMatcher(Supported)
	builder = catalog.NewBuilder(catalog.Fallback(language.English))
)

var ukrainian = map[string]string{
	"Canceled":                       "Скасовано",
	"Awaiting confirmation":          "Очікує підтвердження",
	"Ready for pickup":               "Готове до самовивозу",
	"Awaiting payment":               "Очікує оплати",
	"Paid, awaiting pickup/shipment": "Оплачено, очікує отримання/відправлення",
	"Partial payment made, awaiting pickup/shipment": "Внесено часткову оплату, очікує отримання/відправлення",
	"Tracking number created, awaiting shipment":     "Створено номер відстеження, очікує відправлення",
	"Completed":                 "Виконано",
	"Shipped":                   "Відправлено",
	"Shipped, awaiting balance": "Відправлено, очікує доплати",
	"Processing":                "В обробці",
}

func init() {
	for key, value := range ukrainian {
		if err := builder.SetString(language.Ukrainian, key, value); err != nil {
			panic(err)
		}
		if err := builder.SetString(language.English, key, key); err != nil {
			panic(err)
		}
	}
}

// Negotiate picks the best supported language for the given preferences, tried in order.
// Each preference may be an Accept-Language header or a single BCP 47 tag.
func Negotiate(preferences ...string) language.Tag {
	for _, pref := range preferences {
		pref = strings.TrimSpace(pref)
		if pref == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(pref)
		if err != nil || len(tags) == 0 {
			continue
		}
		tag, _, confidence := matcher.Match(tags...)
		if confidence == language.No {
			continue
		}
		base, _ := tag.Base()
		return language.Make(base.String())
	}
	return Supported[0]
}

// Translate returns the catalog entry for key in tag, or key itself when missing.
func Translate(tag language.Tag, key string) string {
	if tag == language.Und {
		tag = Supported[0]
	}
	return message.NewPrinter(tag, message.Catalog(builder)).Sprintf(key)
}

// Middleware stores the language negotiated from Accept-Language on the request context.
// Handlers may refine it with the authenticated user's locale.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag := Negotiate(r.Header.Get("Accept-Language"))
			w.Header().Set("Content-Language", tag.String())
			next.ServeHTTP(w, r.WithContext(requestctx.WithLanguage(r.Context(), tag)))
		})
	}
}
