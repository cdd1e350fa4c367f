package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/zeu5/royale-rl/arena"
	"github.com/zeu5/royale-rl/config"
	"github.com/zeu5/royale-rl/device"
	"github.com/zeu5/royale-rl/dqn"
	"github.com/zeu5/royale-rl/inference"
	"github.com/zeu5/royale-rl/ledger"
	"github.com/zeu5/royale-rl/monitor"
	"github.com/zeu5/royale-rl/store"
	"github.com/zeu5/royale-rl/types"
	"github.com/zeu5/royale-rl/util"
)

// sessionOptions are the per-command knobs of a run
type sessionOptions struct {
	Learn          bool
	Cards          []string
	ModelFile      string
	ModelDir       string
	Resume         bool
	BatchSize      int
	SyncEvery      int
	EpisodeTimeout time.Duration
	MonitorAddr    string
	PlotWindow     int
	Seed           uint64
	// Random replaces the agent with a uniform policy, evaluation only
	Random bool
}

// session owns every collaborator of a run and releases them on close
type session struct {
	id      string
	opts    sessionOptions
	log     *logrus.Entry
	cfg     *config.Config
	env     *arena.Environment
	agent   *dqn.Agent
	ledger  *ledger.Ledger
	store   *store.CounterStore
	monitor *monitor.Server
	rewards []float64
}

func newSession(ctx context.Context, opts sessionOptions) (*session, error) {
	id := uuid.NewString()
	log := logrus.WithField("session", id)

	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	towers, err := arena.LoadTowerRegions(cfg.TowerRegionsPath)
	if err != nil {
		return nil, err
	}
	bridge, err := device.NewBridge(ctx, cfg.DeviceURL, 10*time.Second)
	if err != nil {
		return nil, err
	}
	perception := inference.NewPerception(
		inference.NewClient(cfg.InferenceURL, cfg.APIKey, 30*time.Second),
		bridge,
		cfg.TroopWorkspace,
		cfg.CardWorkspace,
		log.WithField("component", "perception"),
	)

	agentConfig := dqn.DefaultConfig(arena.ObservationSize)
	if len(opts.Cards) > 0 {
		agentConfig.Cards = opts.Cards
	}
	if opts.ModelDir != "" {
		agentConfig.ModelDir = opts.ModelDir
	}
	agentConfig.Seed = opts.Seed

	envConfig := arena.DefaultEnvironmentConfig()
	envConfig.NumCards = len(agentConfig.Cards)
	envConfig.GridWidth = agentConfig.GridWidth
	envConfig.GridHeight = agentConfig.GridHeight
	env := arena.NewEnvironment(envConfig, towers, perception, bridge, log.WithField("component", "environment"))

	agent := dqn.NewAgent(agentConfig, log.WithField("component", "agent"))
	if (opts.Resume || !opts.Learn) && !opts.Random {
		if err := agent.Load(opts.ModelFile); err != nil {
			if opts.Learn {
				log.WithError(err).Warn("starting from fresh weights")
			} else {
				return nil, err
			}
		} else {
			agent.SyncTarget()
		}
	}
	if !opts.Learn {
		agent.SetEpsilon(agentConfig.EpsilonMin)
	}

	s := &session{
		id:    id,
		opts:  opts,
		log:   log,
		cfg:   cfg,
		env:   env,
		agent: agent,
	}

	if cfg.RedisAddr != "" {
		s.store = store.NewCounterStore(cfg.RedisAddr, "")
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := s.store.Ping(pctx)
		cancel()
		if err != nil {
			s.close()
			return nil, fmt.Errorf("redis at %s unreachable: %w", cfg.RedisAddr, err)
		}
		snapshot, err := s.store.Load(ctx)
		if err == nil {
			err = agent.Counters().Restore(snapshot)
		}
		if err != nil {
			log.WithError(err).Warn("counter memory not restored")
		} else {
			log.WithField("types", agent.Counters().Len()).Info("restored counter memory")
		}
	}
	if cfg.LedgerPath != "" {
		s.ledger, err = ledger.Open(cfg.LedgerPath)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("failed to open ledger: %w", err)
		}
	}
	if opts.MonitorAddr != "" {
		s.monitor = monitor.NewServer(ctx, opts.MonitorAddr, id,
			func() map[string][]float64 { return agent.Counters().Snapshot() },
			agent.Epsilon,
		)
		s.monitor.Start()
		log.WithField("addr", opts.MonitorAddr).Info("serving status")
	}
	return s, nil
}

func (s *session) close() {
	if s.ledger != nil {
		s.ledger.Close()
	}
	if s.store != nil {
		s.store.Close()
	}
}

// run drives the agent loop and writes the session artifacts to saveFile
func (s *session) run(ctx context.Context) error {
	if err := os.MkdirAll(saveFile, os.ModePerm); err != nil {
		return err
	}
	tracesPath := path.Join(saveFile, fmt.Sprintf("traces_%s.jsonl", s.id))
	if err := util.WriteToFile(path.Join(saveFile, fmt.Sprintf("config_%s.txt", s.id)), s.printable()...); err != nil {
		return err
	}

	status := types.NewStatusOutput()
	printer := types.NewTerminalPrinter(ctx, status, time.Second)
	printer.Start()
	defer printer.Stop()

	observers := []types.EpisodeObserver{
		types.EpisodeObserverFunc(func(e *types.EpisodeContext) error {
			s.rewards = append(s.rewards, e.TotalReward)
			bs, err := json.Marshal(e.Trace)
			if err != nil {
				return err
			}
			return util.AppendToFile(tracesPath, string(bs))
		}),
	}
	if s.opts.Learn {
		observers = append(observers, types.EpisodeObserverFunc(func(e *types.EpisodeContext) error {
			return s.agent.Save(s.opts.ModelFile)
		}))
	}
	if s.store != nil && s.opts.Learn {
		observers = append(observers, types.EpisodeObserverFunc(func(e *types.EpisodeContext) error {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return s.store.Save(sctx, s.agent.Counters().Snapshot())
		}))
	}
	if s.ledger != nil {
		observers = append(observers, s.ledger)
	}
	if s.monitor != nil {
		observers = append(observers, s.monitor)
	}

	policy := s.policy()
	agentConfig := &types.AgentConfig{
		Session:         s.id,
		Episodes:        episodes,
		Horizon:         horizon,
		BatchSize:       s.opts.BatchSize,
		TargetSyncEvery: s.opts.SyncEvery,
		Learn:           s.opts.Learn,
		EpisodeTimeout:  s.opts.EpisodeTimeout,
		Policy:          policy,
		Environment:     s.env,
		Observers:       observers,
		OnStep: func(e *types.EpisodeContext, t types.Transition) {
			status.Set(fmt.Sprintf(
				"Episode: %d/%d, Step: %d/%d, Reward: %.2f, Total: %.2f, Epsilon: %.3f",
				e.Episode+1, episodes, e.Steps, horizon, t.Reward, e.TotalReward, policy.Epsilon(),
			))
			if s.monitor != nil {
				s.monitor.Update(e, t)
			}
		},
		Log: s.log,
	}

	s.log.WithFields(logrus.Fields{
		"episodes": episodes,
		"horizon":  horizon,
		"learn":    s.opts.Learn,
		"random":   s.opts.Random,
		"actions":  s.env.NumActions(),
	}).Info("starting session")
	err := types.NewAgent(agentConfig).Run(ctx)

	if len(s.rewards) > 0 {
		name := "Train"
		if s.opts.Random {
			name = "Random"
		} else if !s.opts.Learn {
			name = "Play"
		}
		if perr := types.PlotRewards(saveFile, fmt.Sprintf("rewards_%s.png", s.id), []string{name}, [][]float64{s.rewards}, s.opts.PlotWindow); perr != nil {
			s.log.WithError(perr).Warn("failed to plot rewards")
		}
	}
	return err
}

// policy is the agent, or the uniform baseline on play --random
func (s *session) policy() types.Policy {
	if s.opts.Random && !s.opts.Learn {
		return types.NewRandomPolicy(s.env.NumActions())
	}
	return s.agent
}

// printable lists the run parameters, written next to the traces
func (s *session) printable() []string {
	c := s.agent.Config()
	return []string{
		fmt.Sprintf("Session: %s", s.id),
		fmt.Sprintf("Episodes: %d", episodes),
		fmt.Sprintf("Horizon: %d", horizon),
		fmt.Sprintf("Learn: %t", s.opts.Learn),
		fmt.Sprintf("Random: %t", s.opts.Random),
		fmt.Sprintf("Cards: %v", c.Cards),
		fmt.Sprintf("Grid: %dx%d", c.GridWidth, c.GridHeight),
		fmt.Sprintf("Actions: %d", s.env.NumActions()),
		fmt.Sprintf("Gamma: %.3f, LR: %g, Hidden: %d", c.Gamma, c.LearningRate, c.Hidden),
		fmt.Sprintf("Epsilon: %.3f (min %.3f, decay %.3f)", s.agent.Epsilon(), c.EpsilonMin, c.EpsilonDecay),
		fmt.Sprintf("Batch size: %d, Target sync every: %d", s.opts.BatchSize, s.opts.SyncEvery),
		fmt.Sprintf("Model: %s", s.agent.ModelPath(s.opts.ModelFile)),
		fmt.Sprintf("Device: %s, Inference: %s", s.cfg.DeviceURL, s.cfg.InferenceURL),
	}
}
