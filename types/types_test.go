package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	// Sets are created empty.
	s := MakeSet[int](10)
	assert.Len(t, s, 0)

	// Check inserting and recovery.
	s.Insert(3, 7)
	assert.Len(t, s, 2)
	assert.True(t, s.Has(3))
	assert.True(t, s.Has(7))
	assert.False(t, s.Has(5))

	s2 := SetWith(5, 7)
	assert.Len(t, s2, 2)
	assert.True(t, s2.Has(5))
	assert.False(t, s2.Has(3))

	// Inserting an existing key is a no-op.
	s.Insert(7)
	assert.Len(t, s, 2)
}

func TestSortedKeys(t *testing.T) {
	// Duplicates collapse and keys come back ascending: this is how reduced axes are canonicalized.
	s := SetWith(2, 0, 2, -1, 1)
	assert.Equal(t, []int{-1, 0, 1, 2}, SortedKeys(s))
	assert.Empty(t, SortedKeys(MakeSet[int]()))
}
