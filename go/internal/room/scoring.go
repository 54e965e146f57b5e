package room

import "math/rand/v2"

const (
	CorrectAward     = 10
	FirstAnswerBonus = 5
	IncorrectPenalty = 5
)

// OutcomeKind classifies the result of a guess.
type OutcomeKind int

const (
	// OutcomeIgnored means the cell was already solved; nothing changes.
	OutcomeIgnored OutcomeKind = iota
	OutcomeCorrect
	OutcomeIncorrect
)

// Guess is everything the scoring rules look at for one cell click.
type Guess struct {
	CardEntry     int
	CurrentWord   int
	AlreadyMarked bool
	FirstAnswer   bool
}

// Outcome is the effect of a guess on a player.
type Outcome struct {
	Kind  OutcomeKind
	Delta int
	Score int
	Bonus bool
	Mark  bool
}

// Evaluate applies the scoring rules to a guess for a player currently at score.
// The resulting score is never negative.
func Evaluate(g Guess, score int) Outcome {
	if g.AlreadyMarked {
		return Outcome{Kind: OutcomeIgnored, Score: score}
	}

	if g.CardEntry == g.CurrentWord {
		delta := CorrectAward
		if g.FirstAnswer {
			delta += FirstAnswerBonus
		}
		return Outcome{
			Kind:  OutcomeCorrect,
			Delta: delta,
			Score: score + delta,
			Bonus: g.FirstAnswer,
			Mark:  true,
		}
	}

	next := max(0, score-IncorrectPenalty)
	return Outcome{Kind: OutcomeIncorrect, Delta: next - score, Score: next}
}

// FiftyFifty picks up to two card positions that are neither the correct cell
// nor already marked. It fails with ErrPowerUpUnavailable when no charge is left,
// in which case the caller must not change any state.
func FiftyFifty(rng *rand.Rand, card []int, marked map[int]bool, currentWord, charges int) ([]int, error) {
	if charges < 1 {
		return nil, ErrPowerUpUnavailable
	}

	candidates := make([]int, 0, len(card))
	for pos, entry := range card {
		if entry == currentWord || marked[pos] {
			continue
		}
		candidates = append(candidates, pos)
	}

	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	return candidates[:min(2, len(candidates))], nil
}
