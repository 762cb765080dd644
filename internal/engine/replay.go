package engine

import (
	"time"

	"github.com/verte-zerg/formcoach/internal/frames"
	"github.com/verte-zerg/formcoach/internal/model"
	"github.com/verte-zerg/formcoach/internal/stats"
	"github.com/verte-zerg/formcoach/internal/timeutil"
)

// replayEpoch anchors replayed frames so that feedback timestamps equal
// frame offsets in milliseconds.
var replayEpoch = time.UnixMilli(0).UTC()

// Replay runs a recording through a fresh engine on a mock clock that
// follows the frame offsets, inside one workout spanning the recording.
// Frames whose offset does not advance are spaced by interval.
func Replay(recording []model.Frame, ex model.Exercise, coachID string, interval time.Duration, opts ...Option) stats.Run {
	if interval <= 0 {
		interval = frames.DefaultInterval
	}
	clock := timeutil.NewMockClock(replayEpoch)
	e := New(ex, coachID, append(append([]Option(nil), opts...), WithClock(clock))...)
	run := stats.Run{Exercise: e.State().Exercise, Coach: e.Coach()}

	var offset int64
	for i, frame := range recording {
		switch {
		case i == 0:
			offset = frame.OffsetMs
		case frame.OffsetMs > offset:
			offset = frame.OffsetMs
		default:
			offset += interval.Milliseconds()
		}
		clock.Set(replayEpoch.Add(time.Duration(offset) * time.Millisecond))
		if i == 0 {
			e.Start()
		}
		out := e.ProcessNow(frame)
		run.Observe(offset, out.Classified, out.State)
		if out.Emitted {
			run.AddEvent(out.Feedback)
		}
	}
	if len(recording) == 0 {
		e.Start()
	}
	if s, ok := e.Stop(); ok {
		run.Session = s
	}
	return run
}
