package scene

import (
	"context"
	"time"
)

// FrameScheduler paces rendering. NextFrame blocks until the next frame
// boundary or until ctx is done.
type FrameScheduler interface {
	NextFrame(ctx context.Context) error
}

// Immediate is a FrameScheduler whose frames begin at once.
type Immediate struct{}

// NextFrame returns ctx.Err() without waiting.
func (Immediate) NextFrame(ctx context.Context) error {
	return ctx.Err()
}

// Ticker is a FrameScheduler with a fixed frame rate.
type Ticker struct {
	t *time.Ticker
}

// NewTicker returns a scheduler ticking fps times per second. fps below 1
// is treated as 1.
func NewTicker(fps int) *Ticker {
	fps = max(fps, 1)
	return &Ticker{t: time.NewTicker(time.Second / time.Duration(fps))}
}

// NextFrame waits for the next tick.
func (t *Ticker) NextFrame(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.t.C:
		return nil
	}
}

// Stop releases the ticker.
func (t *Ticker) Stop() {
	t.t.Stop()
}
