package brackets

import (
	"math/bits"

	"github.com/Dosada05/robot-tournaments/models"
)

// Pair is one future match: A is the first slot, B the second.
type Pair struct {
	A int64
	B int64
}

// PairEntrants pairs ids in order: (0,1), (2,3), ... With an odd count the last id has no
// opponent and is returned in unpaired.
func PairEntrants(ids []int64) (pairs []Pair, unpaired []int64) {
	pairs = make([]Pair, 0, len(ids)/2)
	for i := 0; i+1 < len(ids); i += 2 {
		pairs = append(pairs, Pair{A: ids[i], B: ids[i+1]})
	}
	if len(ids)%2 == 1 {
		unpaired = []int64{ids[len(ids)-1]}
	}
	return pairs, unpaired
}

// RoundsNeeded is the number of rounds a bracket of n entrants takes to produce a champion.
func RoundsNeeded(n int) int {
	if n < 2 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

type Round struct {
	Number  int            `json:"round_number"`
	Matches []models.Match `json:"matches"`
	Pending int            `json:"pending"`
}

// GroupByRound splits matches ordered by (round, id) into rounds.
func GroupByRound(matches []models.Match) []Round {
	rounds := make([]Round, 0)
	for _, m := range matches {
		if len(rounds) == 0 || rounds[len(rounds)-1].Number != m.RoundNumber {
			rounds = append(rounds, Round{Number: m.RoundNumber, Matches: make([]models.Match, 0)})
		}
		current := &rounds[len(rounds)-1]
		current.Matches = append(current.Matches, m)
		if m.Status == models.MatchStatusPending {
			current.Pending++
		}
	}
	return rounds
}
