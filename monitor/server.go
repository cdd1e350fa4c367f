// Package monitor serves the live status of a training session over http
package monitor

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zeu5/royale-rl/types"
)

// Status is the view served on /status
type Status struct {
	Session      string    `json:"session"`
	Episode      int       `json:"episode"`
	Step         int       `json:"step"`
	LastReward   float64   `json:"last_reward"`
	EpisodeTotal float64   `json:"episode_reward"`
	Epsilon      float64   `json:"epsilon"`
	Completed    int       `json:"episodes_completed"`
	Victories    int       `json:"victories"`
	Defeats      int       `json:"defeats"`
	LastOutcome  string    `json:"last_outcome"`
	Rewards      []float64 `json:"episode_rewards"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CounterSource returns a copy of the counter table. It is only called
// on the training goroutine.
type CounterSource func() map[string][]float64

type Server struct {
	ctx      context.Context
	server   *http.Server
	handler  http.Handler
	counters CounterSource
	epsilon  func() float64

	lock            *sync.Mutex
	status          Status
	counterSnapshot map[string][]float64
}

var _ types.EpisodeObserver = &Server{}

func NewServer(ctx context.Context, addr, session string, counters CounterSource, epsilon func() float64) *Server {
	s := &Server{
		ctx:             ctx,
		counters:        counters,
		epsilon:         epsilon,
		lock:            new(sync.Mutex),
		status:          Status{Session: session, Rewards: make([]float64, 0)},
		counterSnapshot: make(map[string][]float64),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/healthz", healthHandler)
	r.GET("/status", s.handleStatus)
	r.GET("/counters", s.handleCounters)
	s.handler = r
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (s *Server) handleStatus(c *gin.Context) {
	s.lock.Lock()
	status := s.status
	status.Rewards = append([]float64(nil), s.status.Rewards...)
	s.lock.Unlock()

	c.JSON(http.StatusOK, status)
}

func (s *Server) handleCounters(c *gin.Context) {
	s.lock.Lock()
	out := make(map[string][]float64, len(s.counterSnapshot))
	for k, v := range s.counterSnapshot {
		out[k] = v
	}
	s.lock.Unlock()

	c.JSON(http.StatusOK, gin.H{"counters": out})
}

// Handler exposes the routes without starting a listener
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Start() {
	go func() {
		s.server.ListenAndServe()
	}()

	go func() {
		<-s.ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.server.Shutdown(ctx)
	}()
}

// Update records an executed step
func (s *Server) Update(eCtx *types.EpisodeContext, t types.Transition) {
	var eps float64
	if s.epsilon != nil {
		eps = s.epsilon()
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.status.Episode = eCtx.Episode
	s.status.Step = eCtx.Steps
	s.status.LastReward = t.Reward
	s.status.EpisodeTotal = eCtx.TotalReward
	s.status.Epsilon = eps
	s.status.UpdatedAt = time.Now()
}

// ObserveEpisode folds the finished episode into the totals and takes a
// fresh copy of the counter table
func (s *Server) ObserveEpisode(eCtx *types.EpisodeContext) error {
	var snapshot map[string][]float64
	if s.counters != nil {
		snapshot = s.counters()
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.status.Episode = eCtx.Episode
	s.status.Step = eCtx.Steps
	s.status.EpisodeTotal = eCtx.TotalReward
	s.status.Epsilon = eCtx.Epsilon
	s.status.Completed += 1
	switch eCtx.Outcome {
	case types.OutcomeVictory:
		s.status.Victories += 1
	case types.OutcomeDefeat:
		s.status.Defeats += 1
	}
	s.status.LastOutcome = eCtx.Outcome.String()
	s.status.Rewards = append(s.status.Rewards, eCtx.TotalReward)
	s.status.UpdatedAt = time.Now()
	if snapshot != nil {
		s.counterSnapshot = snapshot
	}
	return nil
}
