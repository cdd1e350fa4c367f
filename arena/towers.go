package arena

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrTowerConfig is returned when the tower region file is missing or incomplete
var ErrTowerConfig = errors.New("invalid tower region configuration")

const (
	EnemyLeftPrincess  = "enemy_left_princess"
	EnemyRightPrincess = "enemy_right_princess"
	EnemyKing          = "enemy_king"
	AllyLeftPrincess   = "ally_left_princess"
	AllyRightPrincess  = "ally_right_princess"
	AllyKing           = "ally_king"
)

// TowerNames in the order they are encoded in the observation
var TowerNames = []string{
	EnemyLeftPrincess,
	EnemyRightPrincess,
	EnemyKing,
	AllyLeftPrincess,
	AllyRightPrincess,
	AllyKing,
}

// EnemyTowers are the regions checked for occupancy when computing the reward
var EnemyTowers = []string{EnemyLeftPrincess, EnemyRightPrincess, EnemyKing}

var towerPriority = map[string]int{
	EnemyKing:          3,
	EnemyLeftPrincess:  2,
	EnemyRightPrincess: 2,
}

// TowerPriority weight of a tower, 1 for towers without an explicit weight
func TowerPriority(name string) int {
	if p, ok := towerPriority[name]; ok {
		return p
	}
	return 1
}

// Region is a rectangle in playfield pixel space
type Region struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Contains is inclusive on all edges
func (r Region) Contains(x, y int) bool {
	return r.X <= x && x <= r.X+r.W && r.Y <= y && y <= r.Y+r.H
}

// TowerRegions is the read-only registry of the six tower rectangles
type TowerRegions struct {
	regions map[string]Region
}

// NewTowerRegions validates that all six towers are present
func NewTowerRegions(regions map[string]Region) (*TowerRegions, error) {
	t := &TowerRegions{regions: make(map[string]Region, len(TowerNames))}
	for _, name := range TowerNames {
		r, ok := regions[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing tower %q", ErrTowerConfig, name)
		}
		t.regions[name] = r
	}
	return t, nil
}

// LoadTowerRegions reads a JSON object mapping tower names to [x, y, w, h]
func LoadTowerRegions(path string) (*TowerRegions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: towers file not found at %s: %s", ErrTowerConfig, path, err)
	}
	raw := make(map[string][]int)
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: error parsing %s: %s", ErrTowerConfig, path, err)
	}
	regions := make(map[string]Region, len(raw))
	for name, v := range raw {
		if len(v) != 4 {
			return nil, fmt.Errorf("%w: tower %q needs [x, y, w, h], got %v", ErrTowerConfig, name, v)
		}
		regions[name] = Region{X: v[0], Y: v[1], W: v[2], H: v[3]}
	}
	return NewTowerRegions(regions)
}

// Get returns the region of the named tower
func (t *TowerRegions) Get(name string) (Region, bool) {
	r, ok := t.regions[name]
	return r, ok
}

// In reports whether the pixel lies inside the named tower's region
func (t *TowerRegions) In(x, y int, name string) bool {
	r, ok := t.regions[name]
	if !ok {
		return false
	}
	return r.Contains(x, y)
}
