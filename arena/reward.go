package arena

import (
	"math"
)

const (
	towerDestroyedBonus = 10.0
	occupancyWeight     = 2.0
	efficiencyWeight    = 2.0
)

// RewardBreakdown keeps the additive terms apart for logging
type RewardBreakdown struct {
	Presence         float64
	Occupancy        float64
	TowerDestroyed   float64
	LaneBalance      float64
	ElixirEfficiency float64
}

func (b RewardBreakdown) Total() float64 {
	return b.Presence + b.Occupancy + b.TowerDestroyed + b.LaneBalance + b.ElixirEfficiency
}

// RewardSynthesizer derives the per-tick reward. It remembers the previous
// elixir, enemy presence and enemy princess tower count of the episode;
// Reset clears that memory.
type RewardSynthesizer struct {
	towers *TowerRegions
	width  int
	height int

	prevElixir        float64
	prevEnemyPresence float64
	hasPrev           bool

	prevTowers    int
	hasPrevTowers bool
}

func NewRewardSynthesizer(towers *TowerRegions, width, height int) *RewardSynthesizer {
	return &RewardSynthesizer{
		towers: towers,
		width:  width,
		height: height,
	}
}

// Reset forgets everything, the next call behaves as the first one
func (r *RewardSynthesizer) Reset() {
	r.hasPrev = false
	r.prevElixir = 0
	r.prevEnemyPresence = 0
	r.hasPrevTowers = false
	r.prevTowers = 0
}

// SetTowerBaseline sets the princess tower count the next call compares against
func (r *RewardSynthesizer) SetTowerBaseline(count int) {
	r.prevTowers = count
	r.hasPrevTowers = true
}

// Compute returns the reward terms for the frame and memorises the frame's
// elixir, presence and tower count for the next call
func (r *RewardSynthesizer) Compute(frame *Frame) RewardBreakdown {
	var b RewardBreakdown
	obs := frame.Observation
	elixir := obs[0] * 10
	enemies := EnemyPositions(obs)

	presence := 0.0
	left, right := 0.0, 0.0
	for _, e := range enemies {
		presence += e[1]
		if e[0] < 0.5 {
			left += e[1]
		} else {
			right += e[1]
		}
	}
	b.Presence = -presence

	for _, name := range EnemyTowers {
		priority := float64(TowerPriority(name))
		for _, e := range enemies {
			if e[0] == 0 && e[1] == 0 {
				continue
			}
			px := int(e[0] * float64(r.width))
			py := int(e[1] * float64(r.height))
			if r.towers.In(px, py, name) {
				b.Occupancy += occupancyWeight * priority
			}
		}
	}

	if r.hasPrevTowers && frame.EnemyPrincessTowers < r.prevTowers {
		b.TowerDestroyed = towerDestroyedBonus
	}
	r.prevTowers = frame.EnemyPrincessTowers
	r.hasPrevTowers = true

	b.LaneBalance = 1.0 / (1.0 + math.Abs(left-right))

	if r.hasPrev {
		spent := r.prevElixir - elixir
		reduced := r.prevEnemyPresence - presence
		if spent > 0 && reduced > 0 {
			b.ElixirEfficiency = efficiencyWeight * math.Min(spent, reduced)
		}
	}
	r.prevElixir = elixir
	r.prevEnemyPresence = presence
	r.hasPrev = true

	return b
}
