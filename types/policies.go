package types

import (
	"time"

	"golang.org/x/exp/rand"
)

// Policy chooses actions and learns from the transitions it is given
type Policy interface {
	Act(Observation, []string) int
	Remember(Transition) error
	// Replay samples a batch from memory and updates the value function
	Replay(int)
	// SyncTarget refreshes the lagged target estimator
	SyncTarget()
	Epsilon() float64
}

// RandomPolicy picks uniformly among the actions and never learns
type RandomPolicy struct {
	numActions int
	rand       *rand.Rand
}

var _ Policy = &RandomPolicy{}

func NewRandomPolicy(numActions int) *RandomPolicy {
	return &RandomPolicy{
		numActions: numActions,
		rand:       rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}
}

func (r *RandomPolicy) Act(_ Observation, _ []string) int {
	return r.rand.Intn(r.numActions)
}

func (r *RandomPolicy) Remember(_ Transition) error { return nil }

func (r *RandomPolicy) Replay(_ int) {}

func (r *RandomPolicy) SyncTarget() {}

func (r *RandomPolicy) Epsilon() float64 { return 1 }
