package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// EncodeToken serialises any JSON-compatible cursor into a URL-safe page token.
func EncodeToken(cursor any) (string, error) {
	data, err := json.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("pagination: encode token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeToken parses a token produced by EncodeToken into dest. Empty tokens leave dest untouched.
func DecodeToken(token string, dest any) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
	}
	if err := json.Unmarshal(decoded, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
	}
	return nil
}

type offsetCursor struct {
	Offset int `json:"o"`
}

// Paginate slices an in-memory result set using an offset token and returns the next token,
// which is empty once the final page is reached. pageSize is capped at DefaultMaxPageSize.
func Paginate[T any](items []T, pageSize int, token string) ([]T, string, error) {
	var cursor offsetCursor
	if err := DecodeToken(token, &cursor); err != nil {
		return nil, "", err
	}
	if cursor.Offset < 0 || cursor.Offset > len(items) {
		return nil, "", fmt.Errorf("%w: offset out of range", ErrInvalidPageToken)
	}
	switch {
	case pageSize <= 0:
		pageSize = DefaultPageSize
	case pageSize > DefaultMaxPageSize:
		pageSize = DefaultMaxPageSize
	}

	end := min(cursor.Offset+pageSize, len(items))
	page := make([]T, end-cursor.Offset)
	copy(page, items[cursor.Offset:end])

	if end == len(items) {
		return page, "", nil
	}
	next, err := EncodeToken(offsetCursor{Offset: end})
	if err != nil {
		return nil, "", err
	}
	return page, next, nil
}
