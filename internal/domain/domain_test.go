package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_InitTimestamps(t *testing.T) {
	var r Record
	r.InitTimestamps()

	assert.False(t, r.CreatedAt.IsZero())
	assert.Equal(t, r.CreatedAt, r.UpdatedAt)
}

func TestAuthor_SetBorn(t *testing.T) {
	a := &Author{Name: "Robert Martin"}
	a.InitTimestamps()
	created := a.UpdatedAt

	time.Sleep(time.Millisecond)
	a.SetBorn(1952)

	require.NotNil(t, a.Born)
	assert.Equal(t, 1952, *a.Born)
	assert.True(t, a.UpdatedAt.After(created))
}

func TestBook_HasGenre(t *testing.T) {
	b := &Book{Genres: []string{"Refactoring", "Classic"}}

	assert.True(t, b.HasGenre("refactoring", strings.ToLower))
	assert.False(t, b.HasGenre("design", strings.ToLower))
}
