package room

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		guess Guess
		score int
		want  Outcome
	}{
		{
			name:  "first correct answer earns bonus",
			guess: Guess{CardEntry: 3, CurrentWord: 3, FirstAnswer: true},
			score: 0,
			want:  Outcome{Kind: OutcomeCorrect, Delta: 15, Score: 15, Bonus: true, Mark: true},
		},
		{
			name:  "later correct answer earns base points",
			guess: Guess{CardEntry: 3, CurrentWord: 3},
			score: 20,
			want:  Outcome{Kind: OutcomeCorrect, Delta: 10, Score: 30, Mark: true},
		},
		{
			name:  "incorrect answer costs points",
			guess: Guess{CardEntry: 2, CurrentWord: 3, FirstAnswer: true},
			score: 12,
			want:  Outcome{Kind: OutcomeIncorrect, Delta: -5, Score: 7},
		},
		{
			name:  "incorrect answer floors at zero",
			guess: Guess{CardEntry: 2, CurrentWord: 3},
			score: 3,
			want:  Outcome{Kind: OutcomeIncorrect, Delta: -3, Score: 0},
		},
		{
			name:  "incorrect answer at zero stays zero",
			guess: Guess{CardEntry: 2, CurrentWord: 3},
			score: 0,
			want:  Outcome{Kind: OutcomeIncorrect, Delta: 0, Score: 0},
		},
		{
			name:  "already marked cell is ignored",
			guess: Guess{CardEntry: 3, CurrentWord: 3, AlreadyMarked: true, FirstAnswer: true},
			score: 15,
			want:  Outcome{Kind: OutcomeIgnored, Score: 15},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.guess, tt.score))
		})
	}
}

func TestEvaluateNeverNegative(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	score := 0
	for range 500 {
		g := Guess{CardEntry: rng.IntN(4), CurrentWord: rng.IntN(4), FirstAnswer: rng.IntN(2) == 0}
		score = Evaluate(g, score).Score
		require.GreaterOrEqual(t, score, 0)
	}
}

func TestFiftyFifty(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))
	card := []int{4, 7, 1, 9, 2}
	marked := map[int]bool{3: true}

	for range 50 {
		cells, err := FiftyFifty(rng, card, marked, 1, 1)
		require.NoError(t, err)
		require.Len(t, cells, 2)
		assert.NotEqual(t, cells[0], cells[1])
		for _, pos := range cells {
			assert.NotEqual(t, 2, pos, "correct cell offered for removal")
			assert.NotEqual(t, 3, pos, "marked cell offered for removal")
		}
	}
}

func TestFiftyFiftyFewCandidates(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))

	cells, err := FiftyFifty(rng, []int{5, 6}, nil, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, cells)

	cells, err = FiftyFifty(rng, []int{5, 6}, map[int]bool{1: true}, 5, 1)
	require.NoError(t, err)
	assert.Empty(t, cells)
}

func TestFiftyFiftyWithoutCharges(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 14))
	cells, err := FiftyFifty(rng, []int{1, 2, 3}, nil, 1, 0)
	require.ErrorIs(t, err, ErrPowerUpUnavailable)
	assert.Nil(t, cells)
}
