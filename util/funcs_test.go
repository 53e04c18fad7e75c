package util

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConcatIter(t *testing.T) {
	got := slices.Collect(ConcatIter(SingleIter(1), slices.Values([]int{2, 3})))
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestMapIter(t *testing.T) {
	doubled := MapIter(slices.Values([]int{1, 2}), func(i int) int { return i * 2 })
	assert.Equal(t, []int{2, 4}, slices.Collect(doubled))
}

func TestSetFromSeq(t *testing.T) {
	s := SetFromSeq(slices.Values([]string{"a", "b", "a"}), 3)
	assert.Equal(t, 2, s.Size())
	assert.True(t, s.Contains("a"))
}

func TestPair(t *testing.T) {
	p := NewPair("k", 1)
	assert.Equal(t, "k", p.Fst)
	assert.Equal(t, 1, p.Snd)
}
