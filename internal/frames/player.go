package frames

import (
	"context"
	"time"

	"github.com/verte-zerg/formcoach/internal/model"
	"github.com/verte-zerg/formcoach/internal/timeutil"
)

// DefaultInterval is the pacing between two submitted frames.
const DefaultInterval = 100 * time.Millisecond

// Source yields frames in order until it is exhausted.
type Source interface {
	Next() (model.Frame, bool)
}

// SliceSource replays an in-memory recording.
type SliceSource struct {
	frames []model.Frame
	pos    int
}

// NewSliceSource wraps a recording.
func NewSliceSource(frames []model.Frame) *SliceSource {
	return &SliceSource{frames: frames}
}

// Next returns the next frame.
func (s *SliceSource) Next() (model.Frame, bool) {
	if s.pos >= len(s.frames) {
		return model.Frame{}, false
	}
	frame := s.frames[s.pos]
	s.pos++
	return frame, true
}

// Len returns the total number of frames.
func (s *SliceSource) Len() int {
	return len(s.frames)
}

// Player submits frames to a handler on a fixed interval. The handler runs
// synchronously, so at most one frame is in flight. Landmark filtering is
// left to the consumer.
type Player struct {
	clock    timeutil.Clock
	interval time.Duration
}

// NewPlayer returns a player. A non-positive interval uses DefaultInterval.
func NewPlayer(clock timeutil.Clock, interval time.Duration) *Player {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Player{clock: clock, interval: interval}
}

// Play drains src into fn. It returns nil once the source is exhausted, or
// the context error if cancelled between frames. The wait for the next frame
// starts when the current one is submitted.
func (p *Player) Play(ctx context.Context, src Source, fn func(model.Frame)) error {
	frame, ok := src.Next()
	for ok {
		if err := ctx.Err(); err != nil {
			return err
		}
		next := p.clock.After(p.interval)
		fn(frame)
		frame, ok = src.Next()
		if !ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-next:
		}
	}
	return nil
}
