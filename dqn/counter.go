package dqn

import (
	"fmt"
	"math"
)

// CounterTable accumulates, per opponent unit type, the positive rewards
// obtained by each card. Scores never decay.
type CounterTable struct {
	numCards int
	scores   map[string][]float64
}

func NewCounterTable(numCards int) *CounterTable {
	return &CounterTable{
		numCards: numCards,
		scores:   make(map[string][]float64),
	}
}

// Record adds reward to card for every unit type, only when the reward is positive
func (c *CounterTable) Record(unitTypes []string, card int, reward float64) {
	if reward <= 0 {
		return
	}
	for _, t := range unitTypes {
		scores, ok := c.scores[t]
		if !ok {
			scores = make([]float64, c.numCards)
			c.scores[t] = scores
		}
		scores[card] += reward
	}
}

func (c *CounterTable) Score(unitType string, card int) float64 {
	scores, ok := c.scores[unitType]
	if !ok || card < 0 || card >= len(scores) {
		return 0
	}
	return scores[card]
}

func (c *CounterTable) Len() int {
	return len(c.scores)
}

// Best picks, among the known unit types, the card with the highest score.
// Ties keep the first type and the lowest card.
func (c *CounterTable) Best(unitTypes []string) (card int, score float64, ok bool) {
	score = math.Inf(-1)
	card = -1
	for _, t := range unitTypes {
		scores, known := c.scores[t]
		if !known {
			continue
		}
		top := argmax(scores)
		if scores[top] > score {
			score = scores[top]
			card = top
		}
	}
	return card, score, card != -1
}

// Snapshot returns a copy of the table
func (c *CounterTable) Snapshot() map[string][]float64 {
	out := make(map[string][]float64, len(c.scores))
	for t, scores := range c.scores {
		out[t] = append([]float64(nil), scores...)
	}
	return out
}

// Restore merges a snapshot into the table by adding its scores
func (c *CounterTable) Restore(snapshot map[string][]float64) error {
	for t, scores := range snapshot {
		if len(scores) != c.numCards {
			return fmt.Errorf("counter scores for %q have %d cards, expected %d", t, len(scores), c.numCards)
		}
	}
	for t, scores := range snapshot {
		cur, ok := c.scores[t]
		if !ok {
			cur = make([]float64, c.numCards)
			c.scores[t] = cur
		}
		for i, s := range scores {
			cur[i] += s
		}
	}
	return nil
}
