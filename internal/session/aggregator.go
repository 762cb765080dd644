// Package session accumulates workout statistics from accepted feedback.
package session

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/formcoach/internal/model"
)

// Aggregator owns the current workout session. It is not safe for
// concurrent use; the engine serializes access.
type Aggregator struct {
	current *model.WorkoutSession
	newID   func() string
}

// NewAggregator returns an aggregator with no session.
func NewAggregator() *Aggregator {
	return &Aggregator{newID: uuid.NewString}
}

// Start opens a session if none is open and returns true when one was
// created. A stopped session is replaced by a fresh one.
func (a *Aggregator) Start(ex model.Exercise, coachID string, now time.Time) bool {
	if a.Open() {
		return false
	}
	a.current = &model.WorkoutSession{
		ID:        a.newID(),
		StartTime: now,
		Exercise:  ex,
		CoachID:   coachID,
	}
	return true
}

// Open reports whether a session is running or paused.
func (a *Aggregator) Open() bool {
	return a.current != nil && !a.current.Ended()
}

// Pause marks the open session paused.
func (a *Aggregator) Pause() bool {
	if !a.Open() || a.current.Paused {
		return false
	}
	a.current.Paused = true
	return true
}

// Resume clears the paused flag.
func (a *Aggregator) Resume() bool {
	if !a.Open() || !a.current.Paused {
		return false
	}
	a.current.Paused = false
	return true
}

// Paused reports whether the open session is paused.
func (a *Aggregator) Paused() bool {
	return a.Open() && a.current.Paused
}

// Stop freezes the end time once.
func (a *Aggregator) Stop(now time.Time) bool {
	if !a.Open() {
		return false
	}
	end := now
	a.current.EndTime = &end
	a.current.Paused = false
	return true
}

// Record counts one accepted feedback event. Events outside an open,
// unpaused session are ignored.
func (a *Aggregator) Record(fb model.FormFeedback) bool {
	if !a.Open() || a.current.Paused {
		return false
	}
	a.current.TotalReps++
	if fb.Category == model.Good {
		a.current.GoodReps++
	}
	return true
}

// SetSelection updates the exercise and coach of the open session.
func (a *Aggregator) SetSelection(ex model.Exercise, coachID string) {
	if !a.Open() {
		return
	}
	a.current.Exercise = ex
	a.current.CoachID = coachID
}

// CapturePhoto attaches a progress photo to the open session.
func (a *Aggregator) CapturePhoto(imageRef, feedback string, now time.Time) (model.ProgressPhoto, bool) {
	if !a.Open() {
		return model.ProgressPhoto{}, false
	}
	photo := model.ProgressPhoto{
		ID:        a.newID(),
		Exercise:  a.current.Exercise,
		Timestamp: now,
		Feedback:  feedback,
		ImageRef:  imageRef,
	}
	a.current.Photos = append(a.current.Photos, photo)
	return photo, true
}

// Session returns a copy of the current session, open or stopped.
func (a *Aggregator) Session() (model.WorkoutSession, bool) {
	if a.current == nil {
		return model.WorkoutSession{}, false
	}
	s := *a.current
	s.Photos = append([]model.ProgressPhoto(nil), a.current.Photos...)
	if a.current.EndTime != nil {
		end := *a.current.EndTime
		s.EndTime = &end
	}
	return s, true
}

// FormAccuracy is the share of good events as a rounded percentage.
func FormAccuracy(s model.WorkoutSession) int {
	if s.TotalReps == 0 {
		return 0
	}
	return int(math.Round(float64(s.GoodReps) / float64(s.TotalReps) * 100))
}

// Elapsed returns the session duration up to now, or to its end time.
func Elapsed(s model.WorkoutSession, now time.Time) time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	end := now
	if s.EndTime != nil {
		end = *s.EndTime
	}
	if end.Before(s.StartTime) {
		return 0
	}
	return end.Sub(s.StartTime)
}
