package room

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordSchedulerPartitionsVocabulary(t *testing.T) {
	const size = 11
	s := newWordScheduler(rand.New(rand.NewPCG(1, 1)), size)

	_, ok := s.currentWord()
	assert.False(t, ok)

	for drawn := 1; drawn <= size; drawn++ {
		index, ok := s.drawNext()
		require.True(t, ok)
		current, ok := s.currentWord()
		require.True(t, ok)
		assert.Equal(t, index, current)
		assert.False(t, s.answered)

		all := slices.Clone(s.pool)
		for _, d := range s.drawn {
			all = append(all, d.index)
		}
		slices.Sort(all)
		require.Len(t, s.drawn, drawn)
		require.Equal(t, size-drawn, s.remaining())
		for i, v := range all {
			require.Equal(t, i, v, "pool and drawn words must partition the vocabulary")
		}
	}

	_, ok = s.drawNext()
	assert.False(t, ok)
	assert.Len(t, s.drawn, size)
}

func TestWordSchedulerClaimOnce(t *testing.T) {
	s := newWordScheduler(rand.New(rand.NewPCG(2, 2)), 3)
	assert.False(t, s.claim("ann"), "nothing drawn yet")

	s.drawNext()
	assert.True(t, s.claim("ann"))
	assert.False(t, s.claim("bob"))
	assert.Equal(t, "ann", s.drawn[0].answeredBy)

	s.drawNext()
	assert.True(t, s.claim("bob"))
	assert.Equal(t, "bob", s.drawn[1].answeredBy)
}
