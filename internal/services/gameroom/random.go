package gameroom

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Rand é a fonte de aleatoriedade da sala. Timers e handlers a usam de goroutines
// diferentes, por isso o acesso é serializado.
type Rand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewRand(seed uint64) *Rand {
	return &Rand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func newTimeSeededRand() *Rand {
	return NewRand(uint64(time.Now().UnixNano()))
}

// IntN satisfaz card.Source.
func (r *Rand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.IntN(n)
}

// Between sorteia uma duração uniforme em [min, max].
func (r *Rand) Between(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return min + time.Duration(r.r.Int64N(int64(max-min)+1))
}
