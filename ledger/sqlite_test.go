package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/royale-rl/types"
)

func openMemory(t *testing.T) *Ledger {
	l, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordAndEpisodes(t *testing.T) {
	l := openMemory(t)
	ctx := context.Background()

	require.NoError(t, l.Record(ctx, Entry{Session: "s1", Episode: 1, Steps: 4, TotalReward: -3, Outcome: types.OutcomeDefeat, Duration: 2 * time.Second}))
	require.NoError(t, l.Record(ctx, Entry{Session: "s1", Episode: 0, Steps: 10, Skipped: 2, TotalReward: 120.5, Outcome: types.OutcomeVictory, Epsilon: 0.9}))
	require.NoError(t, l.Record(ctx, Entry{Session: "s2", Episode: 0, Steps: 1}))

	eps, err := l.Episodes(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, eps, 2)
	assert.Equal(t, 0, eps[0].Episode)
	assert.Equal(t, 10, eps[0].Steps)
	assert.Equal(t, 2, eps[0].Skipped)
	assert.Equal(t, 120.5, eps[0].TotalReward)
	assert.Equal(t, types.OutcomeVictory, eps[0].Outcome)
	assert.Equal(t, 0.9, eps[0].Epsilon)
	assert.Equal(t, 2*time.Second, eps[1].Duration)
	assert.False(t, eps[1].RecordedAt.IsZero())

	none, err := l.Episodes(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecordReplacesEpisode(t *testing.T) {
	l := openMemory(t)
	ctx := context.Background()

	require.NoError(t, l.Record(ctx, Entry{Session: "s", Episode: 0, TotalReward: 1}))
	require.NoError(t, l.Record(ctx, Entry{Session: "s", Episode: 0, TotalReward: 7}))

	eps, err := l.Episodes(ctx, "s")
	require.NoError(t, err)
	require.Len(t, eps, 1)
	assert.Equal(t, 7.0, eps[0].TotalReward)
}

func TestSessions(t *testing.T) {
	l := openMemory(t)
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, l.Record(ctx, Entry{Session: "old", Episode: 0, TotalReward: 10, Outcome: types.OutcomeVictory, RecordedAt: base}))
	require.NoError(t, l.Record(ctx, Entry{Session: "old", Episode: 1, TotalReward: 20, Outcome: types.OutcomeDefeat, RecordedAt: base.Add(time.Second)}))
	require.NoError(t, l.Record(ctx, Entry{Session: "new", Episode: 0, TotalReward: 5, RecordedAt: base.Add(time.Minute)}))

	sessions, err := l.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "new", sessions[0].ID)
	assert.Equal(t, "old", sessions[1].ID)
	assert.Equal(t, 2, sessions[1].Episodes)
	assert.Equal(t, 1, sessions[1].Victories)
	assert.Equal(t, 1, sessions[1].Defeats)
	assert.InDelta(t, 15.0, sessions[1].MeanReward, 1e-9)
	assert.Equal(t, 0, sessions[0].Victories)
}

func TestObserveEpisode(t *testing.T) {
	l := openMemory(t)

	eCtx := types.NewEpisodeContext(context.Background(), "sess", 3, 0)
	eCtx.Steps = 5
	eCtx.TotalReward = 42
	eCtx.Outcome = types.OutcomeVictory
	eCtx.Err = errors.New("device gone")
	require.NoError(t, l.ObserveEpisode(eCtx))

	eps, err := l.Episodes(context.Background(), "sess")
	require.NoError(t, err)
	require.Len(t, eps, 1)
	assert.Equal(t, 3, eps[0].Episode)
	assert.Equal(t, 42.0, eps[0].TotalReward)
	assert.Equal(t, "device gone", eps[0].Err)
}

func TestOpenCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Close())
	assert.FileExists(t, path)
}

func TestOpenEmptyPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}
