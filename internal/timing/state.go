package timing

import "time"

// State is the per-session timing memory. The zero value is not usable;
// call NewState.
type State struct {
	LastFeedbackAt   time.Time
	WorkoutStartedAt time.Time
	Fired            map[int]struct{}
	active           bool
}

// NewState returns an inactive state.
func NewState() *State {
	return &State{Fired: make(map[int]struct{})}
}

// Active reports whether the workout is running.
func (s *State) Active() bool {
	return s.active
}

// SetActive records a workout transition. Starting stamps the run start;
// stopping clears it. Both transitions forget the fired marks. Repeating
// the current value is a no-op.
func (s *State) SetActive(active bool, now time.Time) {
	if active == s.active {
		return
	}
	s.active = active
	s.Fired = make(map[int]struct{})
	if active {
		s.WorkoutStartedAt = now
	} else {
		s.WorkoutStartedAt = time.Time{}
	}
}

// Restart forgets the cooldown and fired marks after an exercise or coach
// change. A running timeline starts over from now.
func (s *State) Restart(now time.Time) {
	s.LastFeedbackAt = time.Time{}
	s.Fired = make(map[int]struct{})
	if s.active {
		s.WorkoutStartedAt = now
	}
}

func (s *State) fired(second int) bool {
	_, ok := s.Fired[second]
	return ok
}
