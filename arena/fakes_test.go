package arena

import (
	"context"
	"errors"
	"sync"
)

const (
	testWidth  = 1000
	testHeight = 1000
)

func testRegions() map[string]Region {
	return map[string]Region{
		EnemyLeftPrincess:  {X: 100, Y: 200, W: 100, H: 100},
		EnemyRightPrincess: {X: 800, Y: 200, W: 100, H: 100},
		EnemyKing:          {X: 450, Y: 50, W: 100, H: 100},
		AllyLeftPrincess:   {X: 100, Y: 700, W: 100, H: 100},
		AllyRightPrincess:  {X: 800, Y: 700, W: 100, H: 100},
		AllyKing:           {X: 450, Y: 850, W: 100, H: 100},
	}
}

func testTowers() *TowerRegions {
	t, err := NewTowerRegions(testRegions())
	if err != nil {
		panic(err)
	}
	return t
}

func princessTowers(n int) []Detection {
	out := make([]Detection, n)
	for i := range out {
		out[i] = NewDetection("enemy princess tower", 150, 250)
	}
	return out
}

type fakePerception struct {
	mu         sync.Mutex
	elixir     int
	detections []Detection
	hand       []string
	handErr    error
	elixirErr  error
}

func (f *fakePerception) set(elixir int, detections []Detection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.elixir = elixir
	f.detections = detections
}

func (f *fakePerception) Detect(_ context.Context) ([]Detection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Detection(nil), f.detections...), nil
}

func (f *fakePerception) Elixir(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.elixir, f.elixirErr
}

func (f *fakePerception) Hand(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handErr != nil {
		return nil, f.handErr
	}
	return append([]string(nil), f.hand...), nil
}

type play struct {
	slot, x, y int
}

type fakeActuator struct {
	mu        sync.Mutex
	plays     []play
	deselects int
	matchOver bool
	gameEnd   string
	// number of GameEnd calls that fail before answering
	failures int
	polls    int
}

func (f *fakeActuator) Playfield() (int, int) {
	return testWidth, testHeight
}

func (f *fakeActuator) PlayCard(_ context.Context, slot, x, y int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays = append(f.plays, play{slot, x, y})
	return nil
}

func (f *fakeActuator) Deselect(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deselects++
	return nil
}

func (f *fakeActuator) MatchOver(_ context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.matchOver, nil
}

func (f *fakeActuator) GameEnd(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.failures > 0 {
		f.failures--
		return "", errors.New("capture failed")
	}
	return f.gameEnd, nil
}

func (f *fakeActuator) setGameEnd(tag string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gameEnd = tag
}

func (f *fakeActuator) numPlays() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.plays)
}

func (f *fakeActuator) numPolls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}
