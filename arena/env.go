package arena

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zeu5/royale-rl/types"
)

// SpellCards are checked for wasted casts
var SpellCards = []string{"Fireball", "Zap", "Arrows", "Tornado", "Rocket", "Lightning", "Freeze"}

// CounterCards is the reference table of usual answers to enemy troops
var CounterCards = map[string]string{
	"giant":         "Mini P.E.K.K.A",
	"hog rider":     "Cannon",
	"balloon":       "Arrows",
	"skeleton army": "Zap",
	"minions":       "Arrows",
	"goblin gang":   "Zap",
	"prince":        "Mini P.E.K.K.A",
	"pekka":         "Inferno Tower",
	"baby dragon":   "Wizard",
}

type EnvironmentConfig struct {
	NumCards   int
	GridWidth  int
	GridHeight int

	PollInterval time.Duration
	// wait after playing a card before observing again
	SettleDelay time.Duration

	SpellRadius   float64
	SpellPenalty  float64
	TowerBonus    float64
	TerminalBonus float64
	Spells        []string
}

func DefaultEnvironmentConfig() EnvironmentConfig {
	return EnvironmentConfig{
		NumCards:      4,
		GridWidth:     18,
		GridHeight:    28,
		PollInterval:  DefaultPollInterval,
		SettleDelay:   500 * time.Millisecond,
		SpellRadius:   100,
		SpellPenalty:  -5,
		TowerBonus:    20,
		TerminalBonus: 100,
		Spells:        SpellCards,
	}
}

// Environment is the per-match step machine: Active until the match over
// is detected, Terminal once the watcher reports the outcome
type Environment struct {
	config     EnvironmentConfig
	perception Perception
	actuator   Actuator
	width      int
	height     int

	encoder *Encoder
	reward  *RewardSynthesizer
	actions *ActionSpace
	spells  map[string]bool
	watcher *Watcher
	log     logrus.FieldLogger

	matchOver     bool
	prevTowers    int
	hasPrevTowers bool
	hand          []string
}

var _ types.Environment = &Environment{}

func NewEnvironment(config EnvironmentConfig, towers *TowerRegions, perception Perception, actuator Actuator, log logrus.FieldLogger) *Environment {
	if log == nil {
		log = logrus.StandardLogger()
	}
	width, height := actuator.Playfield()
	spells := make(map[string]bool, len(config.Spells))
	for _, s := range config.Spells {
		spells[s] = true
	}
	return &Environment{
		config:     config,
		perception: perception,
		actuator:   actuator,
		width:      width,
		height:     height,
		encoder:    NewEncoder(towers, width, height),
		reward:     NewRewardSynthesizer(towers, width, height),
		actions:    NewActionSpace(config.NumCards, config.GridWidth, config.GridHeight),
		spells:     spells,
		log:        log,
	}
}

func (e *Environment) NumActions() int {
	return e.actions.Len()
}

func (e *Environment) Actions() *ActionSpace {
	return e.actions
}

// Observe captures and encodes the current board.
// Missing elixir or detections fail the call.
func (e *Environment) Observe(ctx context.Context) (*Frame, error) {
	elixir, err := e.perception.Elixir(ctx)
	if err != nil {
		return nil, fmt.Errorf("error reading elixir: %w", err)
	}
	detections, err := e.perception.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("error detecting units: %w", err)
	}
	return e.encoder.Encode(elixir, detections), nil
}

// Reset starts a new match episode
func (e *Environment) Reset(ctx context.Context) (*types.State, error) {
	e.stopWatcher()
	e.matchOver = false
	e.hand = nil
	e.watcher = NewWatcher(e.actuator, e.config.PollInterval, e.log)
	e.watcher.Start(ctx)

	frame, err := e.Observe(ctx)
	if err != nil {
		e.stopWatcher()
		return nil, err
	}
	e.prevTowers = frame.EnemyPrincessTowers
	e.hasPrevTowers = true
	e.reward.Reset()
	e.reward.SetTowerBaseline(frame.EnemyPrincessTowers)
	return frame.State(), nil
}

// Close stops the end of match watcher
func (e *Environment) Close() {
	e.stopWatcher()
}

func (e *Environment) stopWatcher() {
	if e.watcher != nil {
		e.watcher.Stop()
		e.watcher = nil
	}
}

func (e *Environment) outcome() types.Outcome {
	if e.watcher == nil {
		return types.OutcomeNone
	}
	return e.watcher.Outcome()
}

// Step executes one decision tick
func (e *Environment) Step(ctx context.Context, action int) (*types.StepResult, error) {
	if _, err := e.actions.Decode(action); err != nil {
		return nil, err
	}

	if !e.matchOver {
		over, err := e.actuator.MatchOver(ctx)
		if err != nil {
			e.log.WithError(err).Warn("match over check failed")
		} else if over {
			e.matchOver = true
		}
	}
	if e.matchOver {
		action = e.actions.NoOp()
	}

	if outcome := e.outcome(); outcome != types.OutcomeNone {
		return e.terminal(ctx, outcome)
	}

	e.hand = e.readHand(ctx)
	if allUnknown(e.hand) {
		if err := e.actuator.Deselect(ctx); err != nil {
			return nil, fmt.Errorf("error deselecting: %w", err)
		}
		frame, err := e.Observe(ctx)
		if err != nil {
			return nil, err
		}
		return &types.StepResult{
			Next:    frame.State(),
			Reward:  0,
			Skipped: true,
			Card:    types.NoCard,
			Action:  e.actions.NoOp(),
		}, nil
	}

	// index was validated above
	a, _ := e.actions.Decode(action)
	played := types.NoCard
	executed := e.actions.NoOp()
	spellPenalty := 0.0

	if !a.IsNoOp() && a.Card < len(e.hand) {
		card := e.hand[a.Card]
		x := int(a.X * float64(e.width))
		y := int(a.Y * float64(e.height))
		if err := e.actuator.PlayCard(ctx, a.Card, x, y); err != nil {
			return nil, fmt.Errorf("error playing %s at (%d, %d): %w", card, x, y, err)
		}
		played = a.Card
		executed = action
		if err := sleep(ctx, e.config.SettleDelay); err != nil {
			return nil, err
		}

		if e.spells[card] {
			frame, err := e.Observe(ctx)
			if err != nil {
				return nil, err
			}
			if !e.enemyNear(frame, x, y) {
				spellPenalty = e.config.SpellPenalty
				e.log.WithField("card", card).Debug("spell cast with no enemy in range")
			}
		}
	}

	frame, err := e.Observe(ctx)
	if err != nil {
		return nil, err
	}

	towerBonus := 0.0
	if e.hasPrevTowers && frame.EnemyPrincessTowers < e.prevTowers {
		towerBonus = e.config.TowerBonus
	}
	e.prevTowers = frame.EnemyPrincessTowers
	e.hasPrevTowers = true

	breakdown := e.reward.Compute(frame)
	reward := breakdown.Total() + spellPenalty + towerBonus
	e.log.WithFields(logrus.Fields{
		"presence":   breakdown.Presence,
		"occupancy":  breakdown.Occupancy,
		"destroyed":  breakdown.TowerDestroyed,
		"lane":       breakdown.LaneBalance,
		"efficiency": breakdown.ElixirEfficiency,
		"spell":      spellPenalty,
		"tower":      towerBonus,
	}).Debug("step reward")

	return &types.StepResult{
		Next:   frame.State(),
		Reward: reward,
		Done:   false,
		Card:   played,
		Action: executed,
	}, nil
}

// terminal returns the final transition without acting
func (e *Environment) terminal(ctx context.Context, outcome types.Outcome) (*types.StepResult, error) {
	frame, err := e.Observe(ctx)
	if err != nil {
		return nil, err
	}
	reward := e.reward.Compute(frame).Total()
	if outcome == types.OutcomeVictory {
		reward += e.config.TerminalBonus
	} else {
		reward -= e.config.TerminalBonus
	}
	return &types.StepResult{
		Next:    frame.State(),
		Reward:  reward,
		Done:    true,
		Card:    types.NoCard,
		Outcome: outcome,
		Action:  e.actions.NoOp(),
	}, nil
}

// readHand downgrades detection errors to an empty hand
func (e *Environment) readHand(ctx context.Context) []string {
	hand, err := e.perception.Hand(ctx)
	if err != nil {
		e.log.WithError(err).Warn("error detecting cards in hand")
		return []string{}
	}
	return hand
}

func allUnknown(hand []string) bool {
	for _, c := range hand {
		if c != UnknownCard {
			return false
		}
	}
	return true
}

// enemyNear reports whether a live enemy is within the spell radius of (x, y)
func (e *Environment) enemyNear(frame *Frame, x, y int) bool {
	for _, p := range EnemyPositions(frame.Observation) {
		if p[0] == 0 && p[1] == 0 {
			continue
		}
		ex := float64(int(p[0] * float64(e.width)))
		ey := float64(int(p[1] * float64(e.height)))
		if math.Hypot(ex-float64(x), ey-float64(y)) < e.config.SpellRadius {
			return true
		}
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
