package dqn

import (
	"github.com/zeu5/royale-rl/types"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// DefaultMemorySize is the replay capacity
const DefaultMemorySize = 10000

// ReplayMemory is a bounded FIFO of transitions, the oldest entry is evicted
// when a new one does not fit
type ReplayMemory struct {
	buf   []types.Transition
	start int
	size  int
}

func NewReplayMemory(capacity int) *ReplayMemory {
	if capacity <= 0 {
		capacity = DefaultMemorySize
	}
	return &ReplayMemory{
		buf: make([]types.Transition, capacity),
	}
}

// Append stores a copy of the transition
func (r *ReplayMemory) Append(t types.Transition) {
	t = t.Copy()
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = t
		r.size++
		return
	}
	r.buf[r.start] = t
	r.start = (r.start + 1) % len(r.buf)
}

func (r *ReplayMemory) Len() int {
	return r.size
}

func (r *ReplayMemory) Cap() int {
	return len(r.buf)
}

// At returns the i-th stored transition, 0 being the oldest
func (r *ReplayMemory) At(i int) (types.Transition, bool) {
	if i < 0 || i >= r.size {
		return types.Transition{}, false
	}
	return r.buf[(r.start+i)%len(r.buf)], true
}

// Sample draws n distinct transitions uniformly. Panics if n > Len().
func (r *ReplayMemory) Sample(n int, src rand.Source) []types.Transition {
	idxs := make([]int, n)
	sampleuv.WithoutReplacement(idxs, r.size, src)
	out := make([]types.Transition, n)
	for i, idx := range idxs {
		out[i], _ = r.At(idx)
	}
	return out
}
