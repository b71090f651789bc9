package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCartID_ShapeAndValidity(t *testing.T) {
	id, err := NewCartID()
	require.NoError(t, err)
	assert.Len(t, string(id), 32)
	assert.True(t, id.Valid())
}

func TestNewCartID_Unique(t *testing.T) {
	seen := map[CartID]bool{}
	for i := 0; i < 1000; i++ {
		id, err := NewCartID()
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate cart id generated")
		seen[id] = true
	}
}

func TestCartID_Valid(t *testing.T) {
	assert.False(t, CartID("").Valid())
	assert.False(t, CartID("short").Valid())
	assert.False(t, CartID("ZZ00112233445566778899aabbccddee").Valid())
	assert.True(t, CartID("00112233445566778899aabbccddeeff").Valid())
}

func TestValidateNewItem(t *testing.T) {
	assert.ErrorIs(t, ValidateNewItem(0, "color:red", 1), ErrInvalidProductID)
	assert.ErrorIs(t, ValidateNewItem(5, "color:red", 0), ErrInvalidQuantity)
	assert.ErrorIs(t, ValidateNewItem(5, "color:red", -2), ErrInvalidQuantity)
	assert.NoError(t, ValidateNewItem(5, "color:red", 2))
}
