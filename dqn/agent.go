package dqn

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zeu5/royale-rl/types"
	"golang.org/x/exp/rand"
)

// ErrCardOutOfRange is returned when a transition names a card outside the card list
var ErrCardOutOfRange = errors.New("card index out of range")

// DefaultCards is used when no card list is configured
var DefaultCards = []string{"card0", "card1", "card2", "card3"}

type Config struct {
	StateSize  int
	Cards      []string
	GridWidth  int
	GridHeight int

	Hidden       int
	LearningRate float64
	Gamma        float64
	Epsilon      float64
	EpsilonMin   float64
	EpsilonDecay float64
	MemorySize   int

	// relative model file names resolve under ModelDir
	ModelDir string
	// seeds exploration and replay sampling, zero seeds from the clock.
	// Weight initialisation draws from the network library.
	Seed uint64
}

func DefaultConfig(stateSize int) Config {
	return Config{
		StateSize:    stateSize,
		Cards:        DefaultCards,
		GridWidth:    18,
		GridHeight:   28,
		Hidden:       64,
		LearningRate: 0.001,
		Gamma:        0.95,
		Epsilon:      1.0,
		EpsilonMin:   0.01,
		EpsilonDecay: 0.997,
		MemorySize:   DefaultMemorySize,
		ModelDir:     "models",
	}
}

// ActionSize is cards x grid cells plus the no-op
func (c Config) ActionSize() int {
	return len(c.Cards)*c.GridWidth*c.GridHeight + 1
}

// Agent is a DQN learner with a counter-memory bias on action selection
type Agent struct {
	config   Config
	model    ValueNetwork
	target   ValueNetwork
	memory   *ReplayMemory
	counters *CounterTable
	epsilon  float64
	src      rand.Source
	rand     *rand.Rand
	log      logrus.FieldLogger
}

var _ types.Policy = &Agent{}

func NewAgent(config Config, log logrus.FieldLogger) *Agent {
	if len(config.Cards) == 0 {
		config.Cards = DefaultCards
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewSource(seed)
	a := &Agent{
		config:   config,
		model:    NewMLP(config.StateSize, config.Hidden, config.ActionSize(), config.LearningRate),
		target:   NewMLP(config.StateSize, config.Hidden, config.ActionSize(), config.LearningRate),
		memory:   NewReplayMemory(config.MemorySize),
		counters: NewCounterTable(len(config.Cards)),
		epsilon:  config.Epsilon,
		src:      src,
		rand:     rand.New(src),
		log:      log,
	}
	a.SyncTarget()
	return a
}

func (a *Agent) Config() Config {
	return a.config
}

func (a *Agent) Epsilon() float64 {
	return a.epsilon
}

// SetEpsilon overrides the exploration rate, evaluation runs use the floor
func (a *Agent) SetEpsilon(epsilon float64) {
	a.epsilon = epsilon
}

func (a *Agent) Memory() *ReplayMemory {
	return a.memory
}

func (a *Agent) Counters() *CounterTable {
	return a.counters
}

// Act is epsilon-greedy over the online network. When one of the enemy types
// has a counter entry, the card is replaced by the best counter card and
// the location is drawn at random.
func (a *Agent) Act(state types.Observation, enemyTypes []string) int {
	var action int
	if a.rand.Float64() < a.epsilon {
		action = a.rand.Intn(a.config.ActionSize())
	} else {
		action = argmax(a.model.Forward(state))
	}

	if len(enemyTypes) == 0 {
		return action
	}
	card, score, ok := a.counters.Best(enemyTypes)
	if !ok {
		return action
	}
	gx := a.rand.Intn(a.config.GridWidth)
	gy := a.rand.Intn(a.config.GridHeight)
	a.log.WithFields(logrus.Fields{
		"card":  a.config.Cards[card],
		"score": score,
	}).Debug("counter override")
	return card*a.config.GridWidth*a.config.GridHeight + gx*a.config.GridHeight + gy
}

// Remember stores the transition and credits the counter table on positive rewards
func (a *Agent) Remember(t types.Transition) error {
	if t.HasCard() && (t.CardIndex < 0 || t.CardIndex >= len(a.config.Cards)) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrCardOutOfRange, t.CardIndex, len(a.config.Cards))
	}
	a.memory.Append(t)
	if len(t.EnemyTypes) > 0 && t.HasCard() && t.Reward > 0 {
		a.counters.Record(t.EnemyTypes, t.CardIndex, t.Reward)
	}
	return nil
}

// Replay samples batchSize transitions and takes one gradient step per
// transition, in sample order, against targets from the target network
func (a *Agent) Replay(batchSize int) {
	if batchSize <= 0 || a.memory.Len() < batchSize {
		return
	}
	loss := 0.0
	for _, t := range a.memory.Sample(batchSize, a.src) {
		target := t.Reward
		if !t.Done {
			target += a.config.Gamma * maxValue(a.target.Forward(t.NextState))
		}
		loss += a.model.Train(t.State, t.Action, target)
	}

	if a.epsilon > a.config.EpsilonMin {
		a.epsilon = math.Max(a.epsilon*a.config.EpsilonDecay, a.config.EpsilonMin)
	}
	a.log.WithFields(logrus.Fields{
		"loss":    loss / float64(batchSize),
		"epsilon": a.epsilon,
	}).Trace("replay")
}

// SyncTarget copies the online parameters into the target network
func (a *Agent) SyncTarget() {
	if err := a.target.CopyFrom(a.model); err != nil {
		// both networks are built by NewAgent with the same shape
		panic(err)
	}
}

// Value returns the online estimates for the state
func (a *Agent) Value(state types.Observation) []float64 {
	return a.model.Forward(state)
}

// TargetValue returns the target network estimates for the state
func (a *Agent) TargetValue(state types.Observation) []float64 {
	return a.target.Forward(state)
}
