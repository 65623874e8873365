package keepgoing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mistakeknot/interscout/internal/logger"
	"github.com/mistakeknot/interscout/internal/metrics"
)

// State is the coordinator's view of the flag after one read.
type State int

const (
	Active State = iota
	Stopped
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "stopped"
}

// TickResult is the outcome of one flag read.
type TickResult struct {
	State   State
	Content string
	Reason  string
}

// Action runs once per active tick.
type Action func(ctx context.Context) error

// RunSummary describes how a Run loop ended.
type RunSummary struct {
	RunID   string `json:"run_id"`
	Ticks   int    `json:"ticks"`
	Actions int    `json:"actions"`
	Reason  string `json:"reason"`
}

// Coordinator polls a flag Store and decides whether to keep acting.
type Coordinator struct {
	store  Store
	logger logger.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

type Option func(*Coordinator)

// WithSleep replaces the wait between ticks. Tests use it to drive the loop
// without real time passing.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Coordinator) {
		c.sleep = fn
	}
}

func NewCoordinator(store Store, log logger.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  store,
		logger: log,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tick reads the flag once. A missing flag is created as True and counts as
// active. Any other failure stops.
func (c *Coordinator) Tick() TickResult {
	result := c.tick()
	metrics.FlagTicks.WithLabelValues(result.State.String()).Inc()
	return result
}

func (c *Coordinator) tick() TickResult {
	content, err := c.store.Read()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Error("flag read failed", map[string]interface{}{"error": err.Error()})
			return TickResult{State: Stopped, Reason: fmt.Sprintf("read flag: %v", err)}
		}

		if werr := c.store.Write(ValueTrue); werr != nil {
			c.logger.Error("flag initialization failed", map[string]interface{}{"error": werr.Error()})
			return TickResult{State: Stopped, Reason: fmt.Sprintf("initialize flag: %v", werr)}
		}
		c.logger.Info("flag missing, initialized to True", nil)
		return TickResult{State: Active, Content: ValueTrue, Reason: "initialized"}
	}

	trimmed := strings.TrimSpace(content)
	if IsActive(trimmed) {
		return TickResult{State: Active, Content: trimmed}
	}
	return TickResult{State: Stopped, Content: trimmed, Reason: fmt.Sprintf("flag reads %q", trimmed)}
}

// Poll yields one TickResult per interval. The sequence ends after the first
// Stopped result, when the consumer stops ranging, or when ctx is done.
func (c *Coordinator) Poll(ctx context.Context, interval time.Duration) iter.Seq[TickResult] {
	return func(yield func(TickResult) bool) {
		for {
			if ctx.Err() != nil {
				return
			}
			result := c.Tick()
			if !yield(result) || result.State == Stopped {
				return
			}
			if err := c.sleep(ctx, interval); err != nil {
				return
			}
		}
	}
}

// Run invokes action on every active tick until the flag stops, the action
// fails, or ctx is done. The first action runs before the second read.
func (c *Coordinator) Run(ctx context.Context, interval time.Duration, action Action) RunSummary {
	summary := RunSummary{RunID: uuid.NewString()}
	log := c.logger.WithFields(map[string]interface{}{"run_id": summary.RunID})
	log.Info("keep-going loop started", map[string]interface{}{"interval": interval.String()})

	for result := range c.Poll(ctx, interval) {
		summary.Ticks++
		if result.State == Stopped {
			summary.Reason = result.Reason
			break
		}

		start := time.Now()
		err := action(ctx)
		metrics.ActionDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			log.Error("action failed", map[string]interface{}{"error": err.Error(), "tick": summary.Ticks})
			summary.Reason = fmt.Sprintf("action failed: %v", err)
			break
		}
		summary.Actions++
		log.Debug("action completed", map[string]interface{}{"tick": summary.Ticks, "flag": result.Content})
	}

	if summary.Reason == "" && ctx.Err() != nil {
		summary.Reason = ctx.Err().Error()
	}
	log.Info("keep-going loop stopped", map[string]interface{}{
		"ticks":   summary.Ticks,
		"actions": summary.Actions,
		"reason":  summary.Reason,
	})
	return summary
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
