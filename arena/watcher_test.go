package arena

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/royale-rl/types"
)

func TestWatcherRecordsOutcome(t *testing.T) {
	act := &fakeActuator{}
	w := NewWatcher(act, 5*time.Millisecond, logrus.StandardLogger())
	w.Start(context.Background())
	defer w.Stop()

	assert.Equal(t, types.OutcomeNone, w.Outcome())
	act.setGameEnd("defeat")
	require.Eventually(t, func() bool {
		return w.Outcome() == types.OutcomeDefeat
	}, time.Second, 5*time.Millisecond)

	// the watcher stops polling once the outcome is known
	polls := act.numPolls()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, polls, act.numPolls())
}

func TestWatcherKeepsPollingOnErrors(t *testing.T) {
	act := &fakeActuator{failures: 3, gameEnd: "victory"}
	w := NewWatcher(act, 5*time.Millisecond, logrus.StandardLogger())
	w.Start(context.Background())
	defer w.Stop()

	require.Eventually(t, func() bool {
		return w.Outcome() == types.OutcomeVictory
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 4, act.numPolls())
}

func TestWatcherStopJoins(t *testing.T) {
	act := &fakeActuator{}
	w := NewWatcher(act, time.Hour, logrus.StandardLogger())
	w.Start(context.Background())

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.Equal(t, types.OutcomeNone, w.Outcome())
}
