// Package pacing spaces out page actions so a run looks like a human
// working through profiles rather than a tight loop. All waits are
// context-aware and return early on cancellation.
package pacing

import (
	"context"
	"math/rand"
	"time"

	"github.com/jonesrussell/linkreach/internal/config"
	"github.com/jonesrussell/linkreach/internal/logger"
)

// Controller produces randomized delays between actions and targets,
// plus an extended pause every N targets.
type Controller struct {
	actionMin time.Duration
	actionMax time.Duration
	targetMin time.Duration
	targetMax time.Duration
	pauseMin  time.Duration
	pauseMax  time.Duration
	everyN    int
	logger    logger.Interface

	// rand is swappable for deterministic tests.
	rand *rand.Rand
}

// NewController creates a pacing controller from outreach config.
func NewController(cfg *config.OutreachConfig, log logger.Interface) *Controller {
	return &Controller{
		actionMin: cfg.ActionDelayMin,
		actionMax: cfg.ActionDelayMax,
		targetMin: cfg.TargetDelayMin,
		targetMax: cfg.TargetDelayMax,
		pauseMin:  cfg.LongPauseMin,
		pauseMax:  cfg.LongPauseMax,
		everyN:    cfg.LongPauseEveryN,
		logger:    log,
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// duration picks a uniform random duration in [min, max].
func (c *Controller) duration(minD, maxD time.Duration) time.Duration {
	if maxD <= minD {
		return minD
	}
	return minD + time.Duration(c.rand.Int63n(int64(maxD-minD)+1))
}

// sleep waits for d or until ctx is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
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

// ActionDelay waits the short randomized interval between fine-grained
// page actions.
func (c *Controller) ActionDelay(ctx context.Context) error {
	return sleep(ctx, c.duration(c.actionMin, c.actionMax))
}

// TargetDelay waits the randomized interval between consecutive targets.
func (c *Controller) TargetDelay(ctx context.Context) error {
	d := c.duration(c.targetMin, c.targetMax)
	c.logger.Debug("Waiting before next target", "delay", d)
	return sleep(ctx, d)
}

// ShouldTakeLongPause reports whether an extended pause is due after the
// given number of processed targets. A non-positive interval disables
// long pauses entirely.
func (c *Controller) ShouldTakeLongPause(processed int) bool {
	if c.everyN <= 0 {
		return false
	}
	return processed > 0 && processed%c.everyN == 0
}

// LongPause waits the extended randomized interval taken every N targets.
func (c *Controller) LongPause(ctx context.Context) error {
	d := c.duration(c.pauseMin, c.pauseMax)
	c.logger.Info("Taking extended pause", "duration", d)
	return sleep(ctx, d)
}
