package types

import "strings"

// Observation is the fixed-length numeric encoding of the board
// that the policy consumes
type Observation []float64

func (o Observation) Copy() Observation {
	if o == nil {
		return nil
	}
	c := make(Observation, len(o))
	copy(c, o)
	return c
}

// NoCard marks a transition in which no card was played
const NoCard = -1

// Transition is one recorded (state, action, reward, next state, done) tuple.
// EnemyTypes and CardIndex are optional, they feed the counter-memory.
type Transition struct {
	State      Observation `json:"state"`
	Action     int         `json:"action"`
	Reward     float64     `json:"reward"`
	NextState  Observation `json:"next_state"`
	Done       bool        `json:"done"`
	EnemyTypes []string    `json:"enemy_types,omitempty"`
	CardIndex  int         `json:"card_index"`
}

// Copy returns a deep copy so that the caller can keep mutating its buffers
func (t Transition) Copy() Transition {
	c := t
	c.State = t.State.Copy()
	c.NextState = t.NextState.Copy()
	if t.EnemyTypes != nil {
		c.EnemyTypes = append([]string(nil), t.EnemyTypes...)
	}
	return c
}

func (t Transition) HasCard() bool {
	return t.CardIndex != NoCard
}

// Outcome of a match as reported by the end-of-match watcher
type Outcome int32

const (
	OutcomeNone Outcome = iota
	OutcomeVictory
	OutcomeDefeat
)

// ParseOutcome maps the tag reported by the device into an outcome.
// An empty tag means the match is still running; anything that is not
// a victory is treated as a defeat.
func ParseOutcome(tag string) Outcome {
	tag = strings.ToLower(strings.TrimSpace(tag))
	switch tag {
	case "":
		return OutcomeNone
	case "victory":
		return OutcomeVictory
	default:
		return OutcomeDefeat
	}
}

func (o Outcome) String() string {
	switch o {
	case OutcomeVictory:
		return "victory"
	case OutcomeDefeat:
		return "defeat"
	default:
		return "none"
	}
}
