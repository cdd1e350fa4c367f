package inference

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/royale-rl/arena"
)

type fakeFrames struct {
	cards  [][]byte
	elixir int
}

func (f *fakeFrames) Capture(context.Context) ([]byte, error) { return []byte("field"), nil }

func (f *fakeFrames) CaptureCards(context.Context) ([][]byte, error) { return f.cards, nil }

func (f *fakeFrames) Elixir(context.Context) (int, error) { return f.elixir, nil }

type fakeWorkflows struct {
	byImage map[string][]Prediction
	fail    map[string]bool
	calls   []string
}

func (f *fakeWorkflows) RunWorkflow(_ context.Context, workspace, workflow string, image []byte) ([]Prediction, error) {
	f.calls = append(f.calls, workspace+"/"+workflow)
	if f.fail[string(image)] {
		return nil, errors.New("boom")
	}
	return f.byImage[string(image)], nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestPerceptionDetect(t *testing.T) {
	wf := &fakeWorkflows{byImage: map[string][]Prediction{
		"field": {
			{Class: "enemy_knight", X: 100, Y: 200},
			{Class: "", X: 1, Y: 1},
			{Class: "ally king tower", X: 500, Y: 900},
		},
	}}
	p := NewPerception(wf, &fakeFrames{}, "troops", "cards", quietLogger())

	dets, err := p.Detect(context.Background())
	require.NoError(t, err)
	require.Len(t, dets, 2)
	assert.Equal(t, arena.KindEnemyUnit, dets[0].Kind)
	assert.Equal(t, 100.0, dets[0].X)
	assert.Equal(t, arena.KindAllyKingTower, dets[1].Kind)
	assert.Equal(t, []string{"troops/" + TroopWorkflow}, wf.calls)
}

func TestPerceptionHand(t *testing.T) {
	wf := &fakeWorkflows{
		byImage: map[string][]Prediction{
			"s0": {{Class: "Knight"}, {Class: "Archers"}},
			"s2": {{Class: "Fireball"}},
		},
		fail: map[string]bool{"s3": true},
	}
	frames := &fakeFrames{cards: [][]byte{[]byte("s0"), []byte("s1"), []byte("s2"), []byte("s3")}}
	p := NewPerception(wf, frames, "troops", "cards", quietLogger())

	hand, err := p.Hand(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Knight", arena.UnknownCard, "Fireball", arena.UnknownCard}, hand)
	assert.Len(t, wf.calls, 4)
	assert.Equal(t, "cards/"+CardWorkflow, wf.calls[0])
}

func TestPerceptionElixir(t *testing.T) {
	p := NewPerception(&fakeWorkflows{}, &fakeFrames{elixir: 7}, "t", "c", quietLogger())
	e, err := p.Elixir(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, e)
}
