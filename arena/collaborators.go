package arena

import "context"

// UnknownCard is the label of a hand slot the classifier could not read
const UnknownCard = "Unknown"

// Perception reads the board through the external detection service
type Perception interface {
	// Detect captures the playfield and returns the classified detections
	Detect(context.Context) ([]Detection, error)
	// Elixir currently available
	Elixir(context.Context) (int, error)
	// Hand classifies each card slot, UnknownCard for unreadable slots
	Hand(context.Context) ([]string, error)
}

// Actuator drives the device. Coordinates are playfield pixels.
type Actuator interface {
	Playfield() (width, height int)
	PlayCard(ctx context.Context, slot, x, y int) error
	// Deselect moves the pointer to a neutral spot and clicks
	Deselect(context.Context) error
	// MatchOver is the coarse in-progress check
	MatchOver(context.Context) (bool, error)
	// GameEnd returns the end of match tag or "" while the match runs
	GameEnd(context.Context) (string, error)
}
