package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/text/language"

	"github.com/bookshelf-ua/api/internal/platform/requestctx"
)

func TestNegotiate(t *testing.T) {
	cases := []struct {
		prefs []string
		want  language.Tag
	}{
		{prefs: nil, want: language.English},
		{prefs: []string{"uk-UA,uk;q=0.9,en;q=0.5"}, want: language.Ukrainian},
		{prefs: []string{"de-DE"}, want: language.English},
		{prefs: []string{"", "uk"}, want: language.Ukrainian},
		{prefs: []string{"en-GB"}, want: language.English},
	}
	for _, tc := range cases {
		if got := Negotiate(tc.prefs...); got != tc.want {
			t.Errorf("Negotiate(%v) = %s, want %s", tc.prefs, got, tc.want)
		}
	}
}

func TestTranslate(t *testing.T) {
	if got := Translate(language.Ukrainian, "Completed"); got != "Виконано" {
		t.Fatalf("unexpected uk translation %q", got)
	}
	if got := Translate(language.English, "Completed"); got != "Completed" {
		t.Fatalf("unexpected en translation %q", got)
	}
	if got := Translate(language.Und, "Shipped"); got != "Shipped" {
		t.Fatalf("expected default language for und, got %q", got)
	}
}

func TestCatalogCoversEveryKeyInBothLanguages(t *testing.T) {
	for key := range ukrainian {
		if Translate(language.Ukrainian, key) == key {
			t.Errorf("missing uk translation for %q", key)
		}
	}
}

func TestMiddlewareStoresLanguage(t *testing.T) {
	var got language.Tag
	handler := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestctx.Language(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "uk")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got != language.Ukrainian {
		t.Fatalf("expected uk, got %s", got)
	}
	if rec.Header().Get("Content-Language") != "uk" {
		t.Fatalf("expected Content-Language header, got %q", rec.Header().Get("Content-Language"))
	}
}
