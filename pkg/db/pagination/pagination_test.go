package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID string
}

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 6, time.FixedZone("WIB", 7*3600))
	token, err := EncodeCursor(NewCursor("42", at))
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.Equal(t, "42", cursor.ID)

	got, err := cursor.Time()
	require.NoError(t, err)
	assert.True(t, got.Equal(at))
}

func TestDecodeCursor(t *testing.T) {
	cursor, err := DecodeCursor("  ")
	assert.NoError(t, err)
	assert.Nil(t, cursor)

	_, err = DecodeCursor("%%%")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// "not-json"
	_, err = DecodeCursor("bm90LWpzb24=")
	assert.ErrorIs(t, err, ErrInvalidToken)

	token, err := EncodeCursor(Cursor{CreatedAt: "2026-01-02T03:04:05Z"})
	require.NoError(t, err)
	_, err = DecodeCursor(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = Cursor{ID: "1", CreatedAt: "yesterday"}.Time()
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLimit(t *testing.T) {
	assert.Equal(t, 50, Pagination{}.Limit(50, 250))
	assert.Equal(t, 50, Pagination{PageSize: -3}.Limit(50, 250))
	assert.Equal(t, 10, Pagination{PageSize: 10}.Limit(50, 250))
	assert.Equal(t, 250, Pagination{PageSize: 1000}.Limit(50, 250))
}

func TestPage(t *testing.T) {
	cursorOf := func(i *item) Cursor { return Cursor{ID: i.ID} }

	items, info := Page([]*item{}, 2, cursorOf)
	assert.Empty(t, items)
	assert.False(t, info.HasMore)

	items, info = Page([]*item{{ID: "1"}, {ID: "2"}}, 2, cursorOf)
	assert.Len(t, items, 2)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)

	items, info = Page([]*item{{ID: "1"}, {ID: "2"}, {ID: "3"}}, 2, cursorOf)
	require.Len(t, items, 2)
	assert.True(t, info.HasMore)

	next, err := DecodeCursor(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, "2", next.ID)
}
