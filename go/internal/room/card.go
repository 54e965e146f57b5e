package room

import "math/rand/v2"

// GenerateCard samples min(cardSize, vocabularySize) distinct indices from
// [0, vocabularySize) uniformly without replacement. Different cards may share
// indices; a single card never repeats one.
func GenerateCard(rng *rand.Rand, vocabularySize, cardSize int) []int {
	n := min(cardSize, vocabularySize)
	if n <= 0 {
		return []int{}
	}

	indices := make([]int, vocabularySize)
	for i := range indices {
		indices[i] = i
	}
	// Partial Fisher-Yates: only the first n positions need to be settled.
	for i := 0; i < n; i++ {
		j := i + rng.IntN(vocabularySize-i)
		indices[i], indices[j] = indices[j], indices[i]
	}

	card := make([]int, n)
	copy(card, indices[:n])
	return card
}
