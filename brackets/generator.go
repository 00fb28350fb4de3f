package brackets

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Shuffler permutes n elements in place through swap. Implementations must be safe for
// concurrent use.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// SeededShuffler is a Fisher-Yates shuffler over a PCG source. The same seed always
// produces the same permutation.
type SeededShuffler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSeededShuffler(seed uint64) *SeededShuffler {
	return &SeededShuffler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func NewTimeSeededShuffler() *SeededShuffler {
	return NewSeededShuffler(uint64(time.Now().UnixNano()))
}

func (s *SeededShuffler) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(n, swap)
}

// ShuffleEntrants returns a shuffled copy of ids; the input slice is left untouched.
func ShuffleEntrants(s Shuffler, ids []int64) []int64 {
	shuffled := make([]int64, len(ids))
	copy(shuffled, ids)
	if s != nil {
		s.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
	}
	return shuffled
}
