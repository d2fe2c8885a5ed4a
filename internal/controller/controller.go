// Package controller runs the control loop: while unpaired it drives
// discovery and pairing, and once paired it streams a fresh control frame
// every tick. One iteration per tick, single logical thread; the BLE stack's
// callbacks land in the session, which serializes them.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/chaz8081/carctl/internal/car"
	"github.com/chaz8081/carctl/internal/input"
)

// session is the slice of car.Session the loop needs; narrowed for tests.
type session interface {
	State() car.State
	Discover(ctx context.Context, window time.Duration) (string, error)
	Pair(ctx context.Context) error
	WriteFrame(frame []byte) error
}

// Options are the loop's fixed timing constants.
type Options struct {
	ScanWindow    time.Duration // discovery window while unpaired
	FrameInterval time.Duration // inter-frame delay while paired
}

// DefaultOptions matches the firmware timing: 3 s scan windows, 100 ms
// between frames.
func DefaultOptions() Options {
	return Options{
		ScanWindow:    3 * time.Second,
		FrameInterval: 100 * time.Millisecond,
	}
}

// Controller ties the session, the frame codec and an input source into the
// tick loop.
type Controller struct {
	session session
	codec   car.Codec
	source  input.Source
	opts    Options
}

// New creates a controller. Zero opts fields fall back to defaults.
func New(s session, codec car.Codec, source input.Source, opts Options) *Controller {
	if opts.ScanWindow <= 0 {
		opts.ScanWindow = DefaultOptions().ScanWindow
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultOptions().FrameInterval
	}
	return &Controller{session: s, codec: codec, source: source, opts: opts}
}

// Run loops until ctx is cancelled. There is no give-up condition: discovery
// misses and failed pairing attempts just start the next cycle.
func (c *Controller) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if c.session.State() != car.StatePaired {
			c.scanCycle(ctx)
			continue
		}

		frame, err := c.codec.Encode(c.source.Snapshot())
		if err != nil {
			// Encoding is pure; a failure here is a programming error, but
			// the loop carries on per the no-give-up policy.
			slog.Error("[controller] encode failed", "err", err)
		} else if err := c.session.WriteFrame(frame); err != nil && !errors.Is(err, car.ErrNotPaired) {
			slog.Warn("[controller] frame write failed", "err", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.opts.FrameInterval):
		}
	}
}

// scanCycle runs one discovery pass and, when a target was latched, one
// pairing attempt.
func (c *Controller) scanCycle(ctx context.Context) {
	addr, err := c.session.Discover(ctx, c.opts.ScanWindow)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("[controller] scan failed", "err", err)
		}
		return
	}
	if addr == "" {
		return // discovery miss, next cycle rescans
	}
	if err := c.session.Pair(ctx); err != nil && ctx.Err() == nil {
		slog.Warn("[controller] pairing failed", "err", err)
	}
}
