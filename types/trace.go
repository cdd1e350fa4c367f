package types

// Trace of an episode as the sequence of executed transitions
type Trace struct {
	Session     string       `json:"session"`
	Episode     int          `json:"episode"`
	Transitions []Transition `json:"transitions"`
	Rewards     []float64    `json:"rewards"`
}

func NewTrace(session string, episode int) *Trace {
	return &Trace{
		Session:     session,
		Episode:     episode,
		Transitions: make([]Transition, 0),
		Rewards:     make([]float64, 0),
	}
}

func (t *Trace) Append(transition Transition) {
	t.Transitions = append(t.Transitions, transition)
	t.Rewards = append(t.Rewards, transition.Reward)
}

func (t *Trace) Len() int {
	return len(t.Transitions)
}

func (t *Trace) Get(i int) (Transition, bool) {
	if i < 0 || i >= len(t.Transitions) {
		return Transition{}, false
	}
	return t.Transitions[i], true
}

func (t *Trace) Last() (Transition, bool) {
	return t.Get(len(t.Transitions) - 1)
}

// TotalReward sums the rewards of the trace
func (t *Trace) TotalReward() float64 {
	total := 0.0
	for _, r := range t.Rewards {
		total += r
	}
	return total
}
