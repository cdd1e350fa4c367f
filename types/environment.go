package types

import "context"

// Environment is a single match played through the device.
// Reset is called at the start of each episode and Close at its end.
type Environment interface {
	Reset(context.Context) (*State, error)
	Step(context.Context, int) (*StepResult, error)
	// NumActions is the size of the discrete action space
	NumActions() int
	Close()
}

// State observed by the policy
type State struct {
	Observation Observation
	// opponent unit types currently on the field, in detection order
	EnemyTypes []string
}

// StepResult is what the environment returns after a decision tick
type StepResult struct {
	Next   *State
	Reward float64
	Done   bool
	// Skipped is set when the tick was not executed (hand could not be read),
	// such a tick does not consume a step
	Skipped bool
	// Card is the hand slot that was played, NoCard otherwise
	Card    int
	Outcome Outcome
	// Action is the index that was executed, the no-op when the chosen
	// card could not be played or the match was already over
	Action int
}
