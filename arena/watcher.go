package arena

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zeu5/royale-rl/types"
)

// DefaultPollInterval between two end of match checks
const DefaultPollInterval = 500 * time.Millisecond

// Watcher polls for the end of the match in the background.
// The outcome is written once by the watcher goroutine and read by the step loop.
type Watcher struct {
	actuator Actuator
	interval time.Duration
	log      logrus.FieldLogger

	outcome atomic.Int32
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewWatcher(actuator Actuator, interval time.Duration, log logrus.FieldLogger) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{
		actuator: actuator,
		interval: interval,
		log:      log,
		cancel:   func() {},
	}
}

// Start launches the polling goroutine, it stops when ctx is done or on Stop
func (w *Watcher) Start(ctx context.Context) {
	wCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(wCtx)
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		tag, err := w.actuator.GameEnd(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.WithError(err).Warn("end of match poll failed")
		} else if outcome := types.ParseOutcome(tag); outcome != types.OutcomeNone {
			w.outcome.Store(int32(outcome))
			w.log.WithField("outcome", outcome.String()).Info("match ended")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Outcome recorded so far, OutcomeNone while the match runs
func (w *Watcher) Outcome() types.Outcome {
	return types.Outcome(w.outcome.Load())
}

// Stop cancels the watcher and waits for it to exit
func (w *Watcher) Stop() {
	w.cancel()
	if w.done != nil {
		<-w.done
	}
}
