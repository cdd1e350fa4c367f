package types

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// EpisodeObserver is notified at the end of every episode, on the training goroutine
type EpisodeObserver interface {
	ObserveEpisode(*EpisodeContext) error
}

// EpisodeObserverFunc adapts a function to an EpisodeObserver
type EpisodeObserverFunc func(*EpisodeContext) error

func (f EpisodeObserverFunc) ObserveEpisode(e *EpisodeContext) error {
	return f(e)
}

type AgentConfig struct {
	Session  string
	Episodes int
	// Horizon bounds the number of executed steps per episode
	Horizon int
	// MaxSkipped bounds the skipped ticks per episode, defaults to Horizon
	MaxSkipped int
	// replay batch size, replay runs after every stored transition
	BatchSize int
	// refresh the target estimator every TargetSyncEvery episodes
	TargetSyncEvery int
	// Learn disables remember/replay when false (evaluation runs)
	Learn          bool
	EpisodeTimeout time.Duration

	Policy      Policy
	Environment Environment
	Observers   []EpisodeObserver
	// OnStep is invoked after every executed step
	OnStep func(*EpisodeContext, Transition)
	Log    logrus.FieldLogger
}

// RL Agent configured with the corresponding
// policy and environment
type Agent struct {
	config      *AgentConfig
	policy      Policy
	environment Environment
	log         logrus.FieldLogger
}

// Instantiates a new Agent
func NewAgent(config *AgentConfig) *Agent {
	log := config.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	if config.MaxSkipped <= 0 {
		config.MaxSkipped = config.Horizon
	}
	return &Agent{
		config:      config,
		policy:      config.Policy,
		environment: config.Environment,
		log:         log,
	}
}

// Run the agent for the specified number of episodes.
// Returns the context error if the run was interrupted.
func (a *Agent) Run(ctx context.Context) error {
	for i := 0; i < a.config.Episodes; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		eCtx := NewEpisodeContext(ctx, a.config.Session, i, a.config.EpisodeTimeout)
		a.runEpisode(eCtx)

		if a.config.Learn && a.config.TargetSyncEvery > 0 && (i+1)%a.config.TargetSyncEvery == 0 {
			a.policy.SyncTarget()
		}
		eCtx.Epsilon = a.policy.Epsilon()

		log := a.log.WithFields(logrus.Fields{
			"episode": i,
			"steps":   eCtx.Steps,
			"skipped": eCtx.Skipped,
			"reward":  eCtx.TotalReward,
			"outcome": eCtx.Outcome.String(),
			"epsilon": eCtx.Epsilon,
		})
		if eCtx.Err != nil {
			log.WithError(eCtx.Err).Error("episode failed")
			log.Debug(eCtx.Report.StringTimeline())
		} else if eCtx.TimedOut {
			log.Warn("episode timed out")
		} else {
			log.Info("episode finished")
		}

		for _, o := range a.config.Observers {
			if err := o.ObserveEpisode(eCtx); err != nil {
				log.WithError(err).Warn("episode observer failed")
			}
		}
	}
	return nil
}

// run a single episode, the result is stored in the episode context
func (a *Agent) runEpisode(eCtx *EpisodeContext) {
	defer eCtx.finish()

	state, err := a.environment.Reset(eCtx.Context)
	if err != nil {
		eCtx.Err = err
		return
	}
	defer a.environment.Close()

	for eCtx.Steps < a.config.Horizon {
		if eCtx.Context.Err() != nil {
			return
		}
		eCtx.Report.setEpisodeStep(eCtx.Steps)

		action := a.policy.Act(state.Observation, state.EnemyTypes)
		start := time.Now()
		res, err := a.environment.Step(eCtx.Context, action)
		eCtx.Report.AddTimeEntry(time.Since(start), "step_latency")
		if err != nil {
			eCtx.Err = err
			return
		}
		if res.Skipped {
			eCtx.Skipped += 1
			state = res.Next
			if eCtx.Skipped >= a.config.MaxSkipped {
				eCtx.HorizonEnd = true
				return
			}
			continue
		}

		t := Transition{
			State:      state.Observation,
			Action:     res.Action,
			Reward:     res.Reward,
			NextState:  res.Next.Observation,
			Done:       res.Done,
			EnemyTypes: state.EnemyTypes,
			CardIndex:  res.Card,
		}
		if a.config.Learn {
			if err := a.policy.Remember(t); err != nil {
				eCtx.Err = err
				return
			}
			a.policy.Replay(a.config.BatchSize)
		}

		eCtx.Trace.Append(t)
		eCtx.Report.AddFloatEntry(res.Reward, "reward")
		eCtx.TotalReward += res.Reward
		eCtx.Steps += 1
		if a.config.OnStep != nil {
			a.config.OnStep(eCtx, t)
		}

		state = res.Next
		if res.Done {
			eCtx.Outcome = res.Outcome
			return
		}
	}
	eCtx.HorizonEnd = true
}
