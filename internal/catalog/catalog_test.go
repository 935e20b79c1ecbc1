package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogShape(t *testing.T) {
	list := List()
	require.Len(t, list, 9)
	assert.Equal(t, 100, TotalWeight())

	seen := map[CategoryID]bool{}
	for _, c := range list {
		assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true
		assert.GreaterOrEqual(t, c.Weight, 1)
		assert.LessOrEqual(t, c.Weight, 100)
		assert.NotEmpty(t, c.Name)
		assert.NotEmpty(t, c.Description)
	}
}

func TestListIsStableAndCopied(t *testing.T) {
	first := List()
	first[0].Weight = 99

	second := List()
	assert.Equal(t, 15, second[0].Weight)
	assert.Equal(t, IDs()[0], second[0].ID)
	assert.Equal(t, Mobile, IDs()[len(IDs())-1])
}

func TestGetAndPosition(t *testing.T) {
	c, ok := Get(Navigation)
	require.True(t, ok)
	assert.Equal(t, "Navigation Clarity", c.Name)
	assert.Equal(t, 1, Position(Navigation))

	_, ok = Get("nope")
	assert.False(t, ok)
	assert.False(t, Valid("nope"))
	assert.Equal(t, -1, Position("nope"))
}
