// Package textutil cleans free-form text supplied by customers and staff.
package textutil

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var plainText = bluemonday.StrictPolicy()

// SanitizePlainText strips every HTML element, trims surrounding whitespace and truncates the
// result to maxRunes runes. A non-positive maxRunes disables truncation.
func SanitizePlainText(value string, maxRunes int) string {
	cleaned := html.UnescapeString(plainText.Sanitize(value))
	cleaned = strings.TrimSpace(cleaned)
	if maxRunes > 0 && utf8.RuneCountInString(cleaned) > maxRunes {
		runes := []rune(cleaned)
		cleaned = strings.TrimSpace(string(runes[:maxRunes]))
	}
	return cleaned
}

// NormalizeIDs trims ids and drops blanks and duplicates, keeping first occurrence order.
func NormalizeIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
