// Package pagination implements opaque keyset cursors for list endpoints.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var ErrInvalidToken = errors.New("invalid_page_token")

// Pagination is bound from the query string of list endpoints.
type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

// Limit clamps PageSize into [1, ceiling], using def when it is unset.
func (p Pagination) Limit(def, ceiling int) int {
	switch {
	case p.PageSize <= 0:
		return def
	case p.PageSize > ceiling:
		return ceiling
	default:
		return p.PageSize
	}
}

// Cursor points at the last row of a page ordered by (created_at, id) desc.
type Cursor struct {
	ID        string `json:"id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

func NewCursor(id string, createdAt time.Time) Cursor {
	return Cursor{ID: id, CreatedAt: createdAt.UTC().Format(time.RFC3339Nano)}
}

func (c Cursor) Time() (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, c.CreatedAt)
	if err != nil {
		return time.Time{}, ErrInvalidToken
	}
	return t, nil
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token"`
	HasMore       bool   `json:"has_more"`
}

func EncodeCursor(data Cursor) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// DecodeCursor returns nil for an empty token. Anything that is not a token
// produced by EncodeCursor yields ErrInvalidToken.
func DecodeCursor(token string) (*Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil || cursor.ID == "" {
		return nil, ErrInvalidToken
	}
	return &cursor, nil
}

// Page trims items fetched with limit+1 rows down to limit and reports
// whether another page exists, with the token that resumes after it.
func Page[T any](items []*T, limit int, cursorOf func(*T) Cursor) ([]*T, PageInfo) {
	if limit <= 0 || len(items) <= limit {
		return items, PageInfo{}
	}

	items = items[:limit]
	token, err := EncodeCursor(cursorOf(items[len(items)-1]))
	if err != nil {
		return items, PageInfo{}
	}
	return items, PageInfo{NextPageToken: token, HasMore: true}
}
