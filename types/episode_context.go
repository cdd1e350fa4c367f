package types

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// EpisodeContext carries what an episode needs and what it produces
type EpisodeContext struct {
	Context context.Context
	Cancel  context.CancelFunc // cancel function to stop the episode

	Session string
	Episode int

	Trace  *Trace
	Report *EpisodeReport

	// outcome of the run
	Steps       int // executed decision ticks
	Skipped     int // ticks skipped because the hand could not be read
	TotalReward float64
	Outcome     Outcome
	Epsilon     float64

	Err        error
	TimedOut   bool
	HorizonEnd bool

	StartTime   time.Time
	RunDuration time.Duration
}

// NewEpisodeContext bounds the episode by timeout, a zero timeout means no bound
func NewEpisodeContext(ctx context.Context, session string, episode int, timeout time.Duration) *EpisodeContext {
	var eCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		eCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		eCtx, cancel = context.WithCancel(ctx)
	}

	return &EpisodeContext{
		Context:   eCtx,
		Cancel:    cancel,
		Session:   session,
		Episode:   episode,
		Trace:     NewTrace(session, episode),
		Report:    NewEpisodeReport(episode),
		StartTime: time.Now(),
	}
}

// finish records the duration and whether the episode ended on its timeout
func (e *EpisodeContext) finish() {
	e.RunDuration = time.Since(e.StartTime)
	if e.Context.Err() == context.DeadlineExceeded {
		e.TimedOut = true
	}
	e.Cancel()
}

// EPISODE REPORT

// Report of an episode, a timeline of step-level values
type EpisodeReport struct {
	EpisodeNumber int
	episodeStep   int

	nextIndex int       // next available index for an entry
	startTime time.Time // start time to compute timestamp of an entry

	lock *sync.Mutex

	Timeline    []*EpisodeReportEntry
	FloatValues map[string][]*EpisodeReportEntry
	TimeValues  map[string][]*EpisodeReportEntry
}

func NewEpisodeReport(episodeNumber int) *EpisodeReport {
	return &EpisodeReport{
		EpisodeNumber: episodeNumber,
		startTime:     time.Now(),
		lock:          &sync.Mutex{},
		Timeline:      make([]*EpisodeReportEntry, 0),
		FloatValues:   make(map[string][]*EpisodeReportEntry),
		TimeValues:    make(map[string][]*EpisodeReportEntry),
	}
}

func (e *EpisodeReport) setEpisodeStep(step int) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.episodeStep = step
}

func (e *EpisodeReport) add(values map[string][]*EpisodeReportEntry, value interface{}, entryType string) {
	e.lock.Lock()
	defer e.lock.Unlock()

	entry := &EpisodeReportEntry{
		Index:       e.nextIndex,
		Timestamp:   time.Since(e.startTime),
		EpisodeStep: e.episodeStep,
		EntryType:   entryType,
		Value:       value,
	}
	e.nextIndex += 1
	e.Timeline = append(e.Timeline, entry)
	values[entryType] = append(values[entryType], entry)
}

// add a new float entry (rewards, epsilon) to the report
func (e *EpisodeReport) AddFloatEntry(value float64, entryType string) {
	e.add(e.FloatValues, value, entryType)
}

// add a new time.Duration entry (latencies) to the report
func (e *EpisodeReport) AddTimeEntry(value time.Duration, entryType string) {
	e.add(e.TimeValues, value, entryType)
}

// Len returns the number of entries recorded so far
func (e *EpisodeReport) Len() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return len(e.Timeline)
}

// return a string representation of the report timeline
func (e *EpisodeReport) StringTimeline() string {
	e.lock.Lock()
	defer e.lock.Unlock()
	result := fmt.Sprintf("Length: %d\n", len(e.Timeline))
	for _, entry := range e.Timeline {
		result = fmt.Sprintf("%s%s\n", result, entry.String())
	}
	return result
}

// ENTRY

type EpisodeReportEntry struct {
	Index     int           // managed by the report
	Timestamp time.Duration // managed by the report

	EpisodeStep int
	EntryType   string
	Value       interface{}
}

func (en *EpisodeReportEntry) String() string {
	switch v := en.Value.(type) {
	case time.Duration:
		return fmt.Sprintf("[ %6d | %5d | %3d ] %20s : %12s", en.Index, en.Timestamp.Milliseconds(), en.EpisodeStep, en.EntryType, v.String())
	case float64:
		return fmt.Sprintf("[ %6d | %5d | %3d ] %20s : %10.3f", en.Index, en.Timestamp.Milliseconds(), en.EpisodeStep, en.EntryType, v)
	default:
		return "wrong entry type"
	}
}
