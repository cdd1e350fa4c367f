package types

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedEnv replays a fixed list of step results per episode.
// A zero Action in the script echoes the requested action.
type scriptedEnv struct {
	episodes [][]StepResult
	episode  int
	step     int
	resets   int
	closes   int
	resetErr error
}

func (e *scriptedEnv) Reset(context.Context) (*State, error) {
	if e.resetErr != nil {
		return nil, e.resetErr
	}
	e.resets += 1
	e.step = 0
	return &State{Observation: Observation{0}, EnemyTypes: []string{"knight"}}, nil
}

func (e *scriptedEnv) Step(_ context.Context, action int) (*StepResult, error) {
	script := e.episodes[e.episode%len(e.episodes)]
	if e.step >= len(script) {
		return nil, errors.New("script exhausted")
	}
	r := script[e.step]
	e.step += 1
	if r.Next == nil {
		r.Next = &State{Observation: Observation{float64(e.step)}}
	}
	if r.Action == 0 {
		r.Action = action
	}
	return &r, nil
}

func (e *scriptedEnv) NumActions() int { return 3 }

func (e *scriptedEnv) Close() {
	e.closes += 1
	e.episode += 1
}

type recordingPolicy struct {
	remembered []Transition
	replays    int
	syncs      int
}

func (p *recordingPolicy) Act(Observation, []string) int { return 1 }

func (p *recordingPolicy) Remember(t Transition) error {
	p.remembered = append(p.remembered, t)
	return nil
}

func (p *recordingPolicy) Replay(int) { p.replays += 1 }

func (p *recordingPolicy) SyncTarget() { p.syncs += 1 }

func (p *recordingPolicy) Epsilon() float64 { return 0.5 }

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestAgentRunsEpisodes(t *testing.T) {
	env := &scriptedEnv{episodes: [][]StepResult{{
		{Reward: 1, Card: 0},
		{Reward: 2, Card: NoCard},
		{Reward: 100, Card: 1, Done: true, Outcome: OutcomeVictory},
	}}}
	policy := &recordingPolicy{}
	var observed []*EpisodeContext
	steps := 0

	agent := NewAgent(&AgentConfig{
		Session:         "s",
		Episodes:        2,
		Horizon:         10,
		BatchSize:       4,
		TargetSyncEvery: 2,
		Learn:           true,
		Policy:          policy,
		Environment:     env,
		Observers: []EpisodeObserver{EpisodeObserverFunc(func(e *EpisodeContext) error {
			observed = append(observed, e)
			return nil
		})},
		OnStep: func(*EpisodeContext, Transition) { steps += 1 },
		Log:    quietLog(),
	})
	require.NoError(t, agent.Run(context.Background()))

	require.Len(t, observed, 2)
	for i, e := range observed {
		assert.Equal(t, i, e.Episode)
		assert.Equal(t, 3, e.Steps)
		assert.Equal(t, 103.0, e.TotalReward)
		assert.Equal(t, OutcomeVictory, e.Outcome)
		assert.Equal(t, 0.5, e.Epsilon)
		assert.False(t, e.HorizonEnd)
		assert.Equal(t, 3, e.Trace.Len())
	}
	assert.Equal(t, 6, steps)
	assert.Len(t, policy.remembered, 6)
	assert.Equal(t, 6, policy.replays)
	assert.Equal(t, 1, policy.syncs)
	assert.Equal(t, 2, env.resets)
	assert.Equal(t, 2, env.closes)

	first := policy.remembered[0]
	assert.Equal(t, Observation{0}, first.State)
	assert.Equal(t, Observation{1}, first.NextState)
	assert.Equal(t, []string{"knight"}, first.EnemyTypes)
	assert.Equal(t, 0, first.CardIndex)
	assert.True(t, policy.remembered[2].Done)
}

func TestAgentStoresExecutedAction(t *testing.T) {
	env := &scriptedEnv{episodes: [][]StepResult{{
		{Reward: 1, Card: 0},
		{Reward: 0, Card: NoCard, Action: 2},
		{Reward: -100, Card: NoCard, Action: 2, Done: true, Outcome: OutcomeDefeat},
	}}}
	policy := &recordingPolicy{}
	var traced []Transition

	agent := NewAgent(&AgentConfig{
		Episodes:    1,
		Horizon:     5,
		Learn:       true,
		Policy:      policy,
		Environment: env,
		OnStep:      func(_ *EpisodeContext, t Transition) { traced = append(traced, t) },
		Log:         quietLog(),
	})
	require.NoError(t, agent.Run(context.Background()))

	require.Len(t, policy.remembered, 3)
	assert.Equal(t, 1, policy.remembered[0].Action)
	assert.Equal(t, 2, policy.remembered[1].Action)
	assert.Equal(t, 2, policy.remembered[2].Action)
	assert.Equal(t, policy.remembered, traced)
}

func TestAgentRandomPolicy(t *testing.T) {
	script := make([]StepResult, 60)
	for i := range script {
		script[i] = StepResult{Reward: 1, Card: NoCard}
	}
	env := &scriptedEnv{episodes: [][]StepResult{script}}
	seen := make(map[int]int)
	var observed *EpisodeContext

	agent := NewAgent(&AgentConfig{
		Episodes:        1,
		Horizon:         len(script),
		BatchSize:       8,
		TargetSyncEvery: 1,
		Learn:           true,
		Policy:          NewRandomPolicy(env.NumActions()),
		Environment:     env,
		Observers: []EpisodeObserver{EpisodeObserverFunc(func(e *EpisodeContext) error {
			observed = e
			return nil
		})},
		OnStep: func(_ *EpisodeContext, t Transition) { seen[t.Action] += 1 },
		Log:    quietLog(),
	})
	require.NoError(t, agent.Run(context.Background()))

	require.NotNil(t, observed)
	assert.Equal(t, len(script), observed.Steps)
	assert.Equal(t, 1.0, observed.Epsilon)
	assert.Len(t, seen, env.NumActions())
	for action := range seen {
		assert.GreaterOrEqual(t, action, 0)
		assert.Less(t, action, env.NumActions())
	}
}

func TestAgentSkippedTicks(t *testing.T) {
	env := &scriptedEnv{episodes: [][]StepResult{{
		{Skipped: true, Card: NoCard},
		{Reward: 1, Card: 0},
		{Skipped: true, Card: NoCard},
		{Reward: 1, Card: 0},
	}}}
	policy := &recordingPolicy{}
	var observed *EpisodeContext

	agent := NewAgent(&AgentConfig{
		Episodes:    1,
		Horizon:     2,
		MaxSkipped:  3,
		Learn:       true,
		Policy:      policy,
		Environment: env,
		Observers: []EpisodeObserver{EpisodeObserverFunc(func(e *EpisodeContext) error {
			observed = e
			return nil
		})},
		Log: quietLog(),
	})
	require.NoError(t, agent.Run(context.Background()))

	require.NotNil(t, observed)
	assert.Equal(t, 2, observed.Steps)
	assert.Equal(t, 2, observed.Skipped)
	assert.True(t, observed.HorizonEnd)
	assert.Len(t, policy.remembered, 2)
}

func TestAgentSkipCap(t *testing.T) {
	env := &scriptedEnv{episodes: [][]StepResult{{
		{Skipped: true, Card: NoCard},
		{Skipped: true, Card: NoCard},
		{Skipped: true, Card: NoCard},
	}}}
	var observed *EpisodeContext

	agent := NewAgent(&AgentConfig{
		Episodes:    1,
		Horizon:     5,
		MaxSkipped:  2,
		Learn:       true,
		Policy:      &recordingPolicy{},
		Environment: env,
		Observers: []EpisodeObserver{EpisodeObserverFunc(func(e *EpisodeContext) error {
			observed = e
			return nil
		})},
		Log: quietLog(),
	})
	require.NoError(t, agent.Run(context.Background()))

	assert.Equal(t, 0, observed.Steps)
	assert.Equal(t, 2, observed.Skipped)
	assert.True(t, observed.HorizonEnd)
	assert.NoError(t, observed.Err)
}

func TestAgentWithoutLearning(t *testing.T) {
	env := &scriptedEnv{episodes: [][]StepResult{{
		{Reward: 5, Card: 0, Done: true, Outcome: OutcomeDefeat},
	}}}
	policy := &recordingPolicy{}

	agent := NewAgent(&AgentConfig{
		Episodes:        3,
		Horizon:         5,
		TargetSyncEvery: 1,
		Learn:           false,
		Policy:          policy,
		Environment:     env,
		Log:             quietLog(),
	})
	require.NoError(t, agent.Run(context.Background()))

	assert.Empty(t, policy.remembered)
	assert.Equal(t, 0, policy.replays)
	assert.Equal(t, 0, policy.syncs)
}

func TestAgentEpisodeErrors(t *testing.T) {
	env := &scriptedEnv{resetErr: errors.New("device offline")}
	var errs []error

	agent := NewAgent(&AgentConfig{
		Episodes:    2,
		Horizon:     5,
		Policy:      &recordingPolicy{},
		Environment: env,
		Observers: []EpisodeObserver{EpisodeObserverFunc(func(e *EpisodeContext) error {
			errs = append(errs, e.Err)
			return nil
		})},
		Log: quietLog(),
	})
	require.NoError(t, agent.Run(context.Background()))
	require.Len(t, errs, 2)
	assert.EqualError(t, errs[0], "device offline")
	assert.Equal(t, 0, env.closes)
}

func TestAgentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agent := NewAgent(&AgentConfig{
		Episodes:    1,
		Horizon:     5,
		Policy:      &recordingPolicy{},
		Environment: &scriptedEnv{},
		Log:         quietLog(),
	})
	assert.ErrorIs(t, agent.Run(ctx), context.Canceled)
}
