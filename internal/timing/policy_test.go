package timing

import (
	"testing"
	"time"

	"github.com/verte-zerg/formcoach/internal/model"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func inPosition(ex model.Exercise, at time.Duration) Input {
	return Input{
		Exercise:   ex,
		Coach:      "gym-mom",
		Now:        t0.Add(at),
		HasResult:  true,
		InPosition: true,
		Feedback:   model.FormFeedback{Category: model.Good, Exercise: ex, Score: 100},
	}
}

func TestBaselineCadence(t *testing.T) {
	p := DefaultPolicy()
	s := NewState()

	if _, ok := p.Decide(s, inPosition(model.Squat, 0)); !ok {
		t.Fatalf("expected first in-position frame to be accepted")
	}
	if _, ok := p.Decide(s, inPosition(model.Squat, 2999*time.Millisecond)); ok {
		t.Fatalf("expected frame inside cooldown to be suppressed")
	}
	if _, ok := p.Decide(s, inPosition(model.Squat, 3000*time.Millisecond)); !ok {
		t.Fatalf("expected frame at cooldown boundary to be accepted")
	}
	if !s.LastFeedbackAt.Equal(t0.Add(3 * time.Second)) {
		t.Fatalf("unexpected lastFeedbackAt %v", s.LastFeedbackAt)
	}
}

func TestBaselineRequiresPosition(t *testing.T) {
	p := DefaultPolicy()
	s := NewState()

	in := inPosition(model.Squat, 0)
	in.InPosition = false
	if _, ok := p.Decide(s, in); ok {
		t.Fatalf("expected out-of-position frame to be suppressed")
	}
	in.HasResult = false
	in.InPosition = true
	if _, ok := p.Decide(s, in); ok {
		t.Fatalf("expected frame without result to be suppressed")
	}
	if !s.LastFeedbackAt.IsZero() {
		t.Fatalf("suppressed frames must not touch the cooldown")
	}
}

func TestCustomCooldown(t *testing.T) {
	p := Policy{Cooldown: 500 * time.Millisecond}
	s := NewState()
	accepted := 0
	for ms := 0; ms < 2000; ms += 100 {
		if _, ok := p.Decide(s, inPosition(model.Plank, time.Duration(ms)*time.Millisecond)); ok {
			accepted++
		}
	}
	if accepted != 4 {
		t.Fatalf("expected 4 accepted events, got %d", accepted)
	}
}

func lungeInput(at time.Duration, inPos bool) Input {
	return Input{
		Exercise:   model.Lunge,
		Coach:      "soft-girl",
		Now:        t0.Add(at),
		HasResult:  true,
		InPosition: inPos,
	}
}

func TestTimelineFiresOncePerMark(t *testing.T) {
	p := DefaultPolicy()
	s := NewState()
	s.SetActive(true, t0)

	fb, ok := p.Decide(s, lungeInput(3100*time.Millisecond, false))
	if !ok {
		t.Fatalf("expected mark 3 to fire at 3.1s")
	}
	if !fb.Scripted || fb.Exercise != model.Lunge || fb.Category != model.Good {
		t.Fatalf("unexpected scripted feedback %+v", fb)
	}
	if fb.Timestamp != t0.Add(3100*time.Millisecond).UnixMilli() {
		t.Fatalf("unexpected timestamp %d", fb.Timestamp)
	}
	if _, ok := p.Decide(s, lungeInput(3400*time.Millisecond, true)); ok {
		t.Fatalf("mark 3 must not refire at 3.4s")
	}
}

func TestTimelineSkipsBaseline(t *testing.T) {
	p := DefaultPolicy()
	s := NewState()
	s.SetActive(true, t0)
	if _, ok := p.Decide(s, lungeInput(5*time.Second, true)); ok {
		t.Fatalf("baseline must be skipped while the timeline is active")
	}
}

func TestTimelineFullRunInOrder(t *testing.T) {
	p := DefaultPolicy()
	s := NewState()
	s.SetActive(true, t0)

	var fired []int
	for ms := 0; ms <= 30000; ms += 250 {
		fb, ok := p.Decide(s, lungeInput(time.Duration(ms)*time.Millisecond, ms%2 == 0))
		if ok {
			fired = append(fired, int((fb.Timestamp-t0.UnixMilli())/1000))
		}
	}
	want := []int{3, 8, 15, 22}
	if len(fired) != len(want) {
		t.Fatalf("expected %v, got %v", want, fired)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, fired)
		}
	}
}

func TestTimelineStrictMissesSkippedSecond(t *testing.T) {
	p := DefaultPolicy()
	s := NewState()
	s.SetActive(true, t0)
	if _, ok := p.Decide(s, lungeInput(2900*time.Millisecond, true)); ok {
		t.Fatalf("nothing due at 2.9s")
	}
	if _, ok := p.Decide(s, lungeInput(4200*time.Millisecond, true)); ok {
		t.Fatalf("strict timeline must not fire a skipped second")
	}
}

func TestTimelineCatchUpKeepsOrder(t *testing.T) {
	scripts := DefaultScripts()
	scripts[0].CatchUp = true
	p := Policy{Cooldown: DefaultCooldown, Scripts: scripts}
	s := NewState()
	s.SetActive(true, t0)

	var seconds []int
	for _, at := range []time.Duration{9 * time.Second, 9500 * time.Millisecond, 30 * time.Second, 31 * time.Second, 32 * time.Second} {
		if fb, ok := p.Decide(s, lungeInput(at, false)); ok {
			seconds = append(seconds, scoreSecond(t, scripts[0], fb))
		}
	}
	want := []int{3, 8, 15, 22}
	if len(seconds) != len(want) {
		t.Fatalf("expected %v, got %v", want, seconds)
	}
	for i := range want {
		if seconds[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, seconds)
		}
	}
}

func scoreSecond(t *testing.T, s Script, fb model.FormFeedback) int {
	t.Helper()
	for _, m := range s.Marks {
		if m.Message == fb.Message {
			return m.AtSecond
		}
	}
	t.Fatalf("feedback %q matches no mark", fb.Message)
	return -1
}

func TestTimelineInactiveFallsBackToBaseline(t *testing.T) {
	p := DefaultPolicy()
	s := NewState()
	if _, ok := p.Decide(s, lungeInput(3100*time.Millisecond, true)); !ok {
		t.Fatalf("expected baseline acceptance while the workout is inactive")
	}
}

func TestTransitionsResetState(t *testing.T) {
	p := DefaultPolicy()
	s := NewState()
	s.SetActive(true, t0)
	if _, ok := p.Decide(s, lungeInput(3*time.Second, false)); !ok {
		t.Fatalf("expected mark 3")
	}

	s.SetActive(false, t0.Add(4*time.Second))
	if !s.WorkoutStartedAt.IsZero() || len(s.Fired) != 0 {
		t.Fatalf("stop must clear the run: %+v", s)
	}

	restart := t0.Add(10 * time.Second)
	s.SetActive(true, restart)
	if !s.WorkoutStartedAt.Equal(restart) {
		t.Fatalf("start must stamp the run start")
	}
	if _, ok := p.Decide(s, lungeInput(13*time.Second, false)); !ok {
		t.Fatalf("mark 3 must fire again in a new run")
	}

	// repeated start is not a transition
	s.SetActive(true, t0.Add(20*time.Second))
	if !s.WorkoutStartedAt.Equal(restart) || len(s.Fired) != 1 {
		t.Fatalf("repeated start must not reset the run")
	}
}

func TestRestartOnSelectionChange(t *testing.T) {
	p := DefaultPolicy()
	s := NewState()
	if _, ok := p.Decide(s, inPosition(model.Squat, 0)); !ok {
		t.Fatalf("expected acceptance")
	}
	s.Restart(t0.Add(time.Second))
	if _, ok := p.Decide(s, inPosition(model.PushUp, 1500*time.Millisecond)); !ok {
		t.Fatalf("restart must clear the cooldown")
	}

	s.SetActive(true, t0)
	s.Restart(t0.Add(5 * time.Second))
	if !s.WorkoutStartedAt.Equal(t0.Add(5 * time.Second)) {
		t.Fatalf("restart during a workout must restart the timeline")
	}
}
