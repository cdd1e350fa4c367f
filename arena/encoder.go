package arena

import (
	"github.com/zeu5/royale-rl/types"
)

const (
	MaxAllies  = 10
	MaxEnemies = 10

	// offsets of the blocks inside the observation
	allyOffset  = 1
	enemyOffset = allyOffset + 2*MaxAllies
	towerOffset = enemyOffset + 2*MaxEnemies

	// ObservationSize is elixir + unit coordinates + six tower coordinates
	ObservationSize = towerOffset + 2*6
)

// Frame is one encoded perception of the board
type Frame struct {
	Observation types.Observation
	Elixir      int
	// number of enemy princess towers still detected
	EnemyPrincessTowers int
	// opponent unit types, deduplicated in detection order
	EnemyTypes []string
}

// State is the view of the frame handed to the policy
func (f *Frame) State() *types.State {
	return &types.State{
		Observation: f.Observation,
		EnemyTypes:  f.EnemyTypes,
	}
}

// Encoder turns detections into the fixed-length observation
type Encoder struct {
	towers *TowerRegions
	width  float64
	height float64
}

func NewEncoder(towers *TowerRegions, width, height int) *Encoder {
	return &Encoder{
		towers: towers,
		width:  float64(width),
		height: float64(height),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (e *Encoder) normalize(x, y float64) (float64, float64) {
	return clamp01(x / e.width), clamp01(y / e.height)
}

// Encode builds the observation. Units beyond the slot capacity are dropped,
// unused slots stay (0, 0).
func (e *Encoder) Encode(elixir int, detections []Detection) *Frame {
	obs := make(types.Observation, ObservationSize)
	obs[0] = float64(elixir) / 10.0

	frame := &Frame{
		Observation: obs,
		Elixir:      elixir,
		EnemyTypes:  make([]string, 0),
	}
	seen := make(map[string]bool)

	allies, enemies := 0, 0
	for _, d := range detections {
		switch d.Kind {
		case KindAllyUnit:
			if allies < MaxAllies {
				obs[allyOffset+2*allies], obs[allyOffset+2*allies+1] = e.normalize(d.X, d.Y)
				allies++
			}
		case KindEnemyUnit:
			if enemies < MaxEnemies {
				obs[enemyOffset+2*enemies], obs[enemyOffset+2*enemies+1] = e.normalize(d.X, d.Y)
				enemies++
			}
			if t := d.UnitType(); t != "" && !seen[t] {
				seen[t] = true
				frame.EnemyTypes = append(frame.EnemyTypes, t)
			}
		case KindEnemyPrincessTower:
			frame.EnemyPrincessTowers++
		}
	}

	for i, name := range TowerNames {
		r, _ := e.towers.Get(name)
		obs[towerOffset+2*i], obs[towerOffset+2*i+1] = e.normalize(float64(r.X), float64(r.Y))
	}
	return frame
}

// EnemyPositions returns the normalised enemy slots of an observation,
// padding slots included
func EnemyPositions(obs types.Observation) [][2]float64 {
	positions := make([][2]float64, MaxEnemies)
	for i := 0; i < MaxEnemies; i++ {
		positions[i] = [2]float64{obs[enemyOffset+2*i], obs[enemyOffset+2*i+1]}
	}
	return positions
}

// AllyPositions returns the normalised ally slots of an observation
func AllyPositions(obs types.Observation) [][2]float64 {
	positions := make([][2]float64, MaxAllies)
	for i := 0; i < MaxAllies; i++ {
		positions[i] = [2]float64{obs[allyOffset+2*i], obs[allyOffset+2*i+1]}
	}
	return positions
}
