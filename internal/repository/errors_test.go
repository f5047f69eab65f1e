package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, notFound(sql.ErrNoRows, ErrHallNotFound), ErrHallNotFound)
	assert.ErrorIs(t, notFound(fmt.Errorf("scan: %w", sql.ErrNoRows), ErrNoticeNotFound), ErrNoticeNotFound)

	other := errors.New("connection reset")
	assert.Equal(t, other, notFound(other, ErrHallNotFound))
}

func TestNullStringRoundTrip(t *testing.T) {
	empty := ""
	text := "window seat"

	assert.False(t, nullString(nil).Valid)
	assert.False(t, nullString(&empty).Valid)
	assert.Equal(t, sql.NullString{String: text, Valid: true}, nullString(&text))

	assert.Nil(t, stringPtr(sql.NullString{}))
	assert.Equal(t, &text, stringPtr(sql.NullString{String: text, Valid: true}))
}
