package arena

import "strings"

// Kind is the closed classification of a detection label
type Kind int

const (
	KindOther Kind = iota
	KindAllyUnit
	KindEnemyUnit
	KindAllyKingTower
	KindAllyPrincessTower
	KindEnemyKingTower
	KindEnemyPrincessTower
)

var towerKinds = map[string]Kind{
	"ally king tower":      KindAllyKingTower,
	"ally princess tower":  KindAllyPrincessTower,
	"enemy king tower":     KindEnemyKingTower,
	"enemy princess tower": KindEnemyPrincessTower,
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Classify maps a detector class label to its Kind
func Classify(label string) Kind {
	l := normalizeLabel(label)
	if k, ok := towerKinds[l]; ok {
		return k
	}
	switch {
	case strings.HasPrefix(l, "ally"):
		return KindAllyUnit
	case strings.HasPrefix(l, "enemy"):
		return KindEnemyUnit
	}
	return KindOther
}

func (k Kind) IsTower() bool {
	return k >= KindAllyKingTower
}

// Detection is a classified object in playfield pixel space
type Detection struct {
	Label string
	Kind  Kind
	X     float64
	Y     float64
}

// NewDetection classifies the label once, at the perception boundary
func NewDetection(label string, x, y float64) Detection {
	return Detection{
		Label: label,
		Kind:  Classify(label),
		X:     x,
		Y:     y,
	}
}

// UnitType is the label without its side prefix ("enemy giant" -> "giant")
func (d Detection) UnitType() string {
	l := normalizeLabel(d.Label)
	for _, prefix := range []string{"enemy", "ally"} {
		if strings.HasPrefix(l, prefix) {
			l = strings.TrimLeft(strings.TrimPrefix(l, prefix), " _-")
			break
		}
	}
	return l
}
