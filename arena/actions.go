package arena

import (
	"errors"
	"fmt"
)

// ErrActionOutOfRange is returned for an action index outside the action space
var ErrActionOutOfRange = errors.New("action index out of range")

// NoOpCard is the card slot of the no-op action
const NoOpCard = -1

// Action is a card slot played at a fractional grid position
type Action struct {
	Card int
	X    float64
	Y    float64
}

func (a Action) IsNoOp() bool {
	return a.Card == NoOpCard
}

// ActionSpace enumerates card x grid cells in card, x, y order plus a
// trailing no-op. It is immutable once built.
type ActionSpace struct {
	numCards   int
	gridWidth  int
	gridHeight int
	actions    []Action
}

func NewActionSpace(numCards, gridWidth, gridHeight int) *ActionSpace {
	actions := make([]Action, 0, numCards*gridWidth*gridHeight+1)
	for card := 0; card < numCards; card++ {
		for x := 0; x < gridWidth; x++ {
			for y := 0; y < gridHeight; y++ {
				actions = append(actions, Action{
					Card: card,
					X:    fraction(x, gridWidth),
					Y:    fraction(y, gridHeight),
				})
			}
		}
	}
	actions = append(actions, Action{Card: NoOpCard})
	return &ActionSpace{
		numCards:   numCards,
		gridWidth:  gridWidth,
		gridHeight: gridHeight,
		actions:    actions,
	}
}

func fraction(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) / float64(n-1)
}

func (s *ActionSpace) Len() int {
	return len(s.actions)
}

// NoOp is the index of the no-op action, always the last one
func (s *ActionSpace) NoOp() int {
	return len(s.actions) - 1
}

func (s *ActionSpace) Decode(index int) (Action, error) {
	if index < 0 || index >= len(s.actions) {
		return Action{}, fmt.Errorf("%w: %d not in [0, %d)", ErrActionOutOfRange, index, len(s.actions))
	}
	return s.actions[index], nil
}

// Encode is the inverse of Decode for card actions given by grid cell
func (s *ActionSpace) Encode(card, gridX, gridY int) (int, error) {
	if card == NoOpCard {
		return s.NoOp(), nil
	}
	if card < 0 || card >= s.numCards || gridX < 0 || gridX >= s.gridWidth || gridY < 0 || gridY >= s.gridHeight {
		return 0, fmt.Errorf("%w: card %d at (%d, %d)", ErrActionOutOfRange, card, gridX, gridY)
	}
	return ActionIndex(card, gridX, gridY, s.gridWidth, s.gridHeight), nil
}

// Cell returns the grid cell of a card action
func (s *ActionSpace) Cell(index int) (card, gridX, gridY int, err error) {
	if _, err := s.Decode(index); err != nil {
		return 0, 0, 0, err
	}
	if index == s.NoOp() {
		return NoOpCard, 0, 0, nil
	}
	cells := s.gridWidth * s.gridHeight
	card = index / cells
	rest := index % cells
	return card, rest / s.gridHeight, rest % s.gridHeight, nil
}

// ActionIndex is the index of card at grid cell (gridX, gridY)
func ActionIndex(card, gridX, gridY, gridWidth, gridHeight int) int {
	return card*gridWidth*gridHeight + gridX*gridHeight + gridY
}
