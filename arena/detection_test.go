package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := map[string]Kind{
		"ally knight":          KindAllyUnit,
		" Enemy Giant ":        KindEnemyUnit,
		"enemy princess tower": KindEnemyPrincessTower,
		"Enemy King Tower":     KindEnemyKingTower,
		"ally princess tower":  KindAllyPrincessTower,
		"ally king tower":      KindAllyKingTower,
		"elixir collector":     KindOther,
		"":                     KindOther,
	}
	for label, kind := range cases {
		assert.Equal(t, kind, Classify(label), label)
	}
	assert.True(t, KindEnemyPrincessTower.IsTower())
	assert.False(t, KindEnemyUnit.IsTower())
}

func TestUnitType(t *testing.T) {
	assert.Equal(t, "giant", NewDetection("enemy giant", 0, 0).UnitType())
	assert.Equal(t, "hog rider", NewDetection("Enemy_Hog Rider", 0, 0).UnitType())
	assert.Equal(t, "knight", NewDetection("ally knight", 0, 0).UnitType())
}
