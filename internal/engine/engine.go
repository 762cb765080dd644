// Package engine runs frames through classification, timing and session
// accounting for one workout.
package engine

import (
	"sync"
	"time"

	"github.com/verte-zerg/formcoach/internal/coach"
	"github.com/verte-zerg/formcoach/internal/form"
	"github.com/verte-zerg/formcoach/internal/frames"
	"github.com/verte-zerg/formcoach/internal/model"
	"github.com/verte-zerg/formcoach/internal/session"
	"github.com/verte-zerg/formcoach/internal/timeutil"
	"github.com/verte-zerg/formcoach/internal/timing"
)

// Outcome describes one processed frame.
type Outcome struct {
	State      model.ExerciseState
	Classified bool
	Measures   form.Measures
	Feedback   model.FormFeedback
	Emitted    bool
}

// FeedbackHandler is called for every emitted feedback event, outside the
// engine lock.
type FeedbackHandler func(fb model.FormFeedback, s model.WorkoutSession)

// Option customizes an Engine.
type Option func(*Engine)

// WithClock sets the time source for Start, Stop and ProcessNow.
func WithClock(c timeutil.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithPolicy replaces the default timing policy.
func WithPolicy(p timing.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithDispatcher replaces the default classifier table.
func WithDispatcher(d *form.Dispatcher) Option {
	return func(e *Engine) { e.dispatcher = d }
}

// WithPicker rewrites emitted messages in the coach's voice.
func WithPicker(p *coach.Picker) Option {
	return func(e *Engine) { e.picker = p }
}

// WithFilter drops landmarks before classification.
func WithFilter(keep frames.FilterFunc) Option {
	return func(e *Engine) { e.keep = keep }
}

// WithHandler registers the feedback callback.
func WithHandler(h FeedbackHandler) Option {
	return func(e *Engine) { e.onFeedback = h }
}

// Engine is safe for concurrent use.
type Engine struct {
	mu         sync.Mutex
	clock      timeutil.Clock
	dispatcher *form.Dispatcher
	policy     timing.Policy
	timing     *timing.State
	sessions   *session.Aggregator
	picker     *coach.Picker
	keep       frames.FilterFunc
	onFeedback FeedbackHandler

	state   model.ExerciseState
	coachID string
	last    *model.FormFeedback
}

// New builds an engine for an exercise and coach.
func New(ex model.Exercise, coachID string, opts ...Option) *Engine {
	e := &Engine{
		clock:    timeutil.RealClock{},
		policy:   timing.DefaultPolicy(),
		timing:   timing.NewState(),
		sessions: session.NewAggregator(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.dispatcher == nil {
		e.dispatcher = form.NewDispatcher()
	}
	e.state.Exercise = e.dispatcher.SetExercise(string(ex))
	e.coachID = coach.Resolve(coachID).ID
	return e
}

// ProcessNow processes a frame stamped with the engine clock.
func (e *Engine) ProcessNow(frame model.Frame) Outcome {
	return e.Process(frame, e.clock.Now())
}

// Process classifies a frame at the given time and, if the timing policy
// allows it, emits feedback and records it in the session.
func (e *Engine) Process(frame model.Frame, at time.Time) Outcome {
	e.mu.Lock()
	res, ok := e.dispatcher.Classify(frames.Apply(frame, e.keep), at)
	if ok {
		e.state.FormScore = res.Feedback.Score
		e.state.InPosition = res.InPosition
	}
	out := Outcome{State: e.state, Classified: ok, Measures: res.Measures}

	if e.sessions.Paused() {
		e.mu.Unlock()
		return out
	}
	fb, emit := e.policy.Decide(e.timing, timing.Input{
		Exercise:   e.state.Exercise,
		Coach:      e.coachID,
		Now:        at,
		HasResult:  ok,
		InPosition: res.InPosition,
		Feedback:   res.Feedback,
	})
	if !emit {
		e.mu.Unlock()
		return out
	}
	if e.picker != nil {
		fb = e.picker.Personalize(e.coachID, fb)
	}
	e.sessions.Record(fb)
	e.last = &fb
	snapshot, _ := e.sessions.Session()
	handler := e.onFeedback
	e.mu.Unlock()

	out.Feedback = fb
	out.Emitted = true
	if handler != nil {
		handler(fb, snapshot)
	}
	return out
}

// Start opens a workout if none is open and starts the timeline.
func (e *Engine) Start() model.WorkoutSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clock.Now()
	if e.sessions.Start(e.state.Exercise, e.coachID, now) {
		e.timing.SetActive(true, now)
	}
	s, _ := e.sessions.Session()
	return s
}

// Pause suspends feedback. It returns false when nothing was running.
func (e *Engine) Pause() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions.Pause()
}

// Resume lifts a pause.
func (e *Engine) Resume() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions.Resume()
}

// TogglePause pauses a running workout or resumes a paused one.
func (e *Engine) TogglePause() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sessions.Paused() {
		e.sessions.Resume()
		return false
	}
	return e.sessions.Pause()
}

// Stop ends the workout and returns the final session.
func (e *Engine) Stop() (model.WorkoutSession, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clock.Now()
	if !e.sessions.Stop(now) {
		return model.WorkoutSession{}, false
	}
	e.timing.SetActive(false, now)
	return e.sessions.Session()
}

// SetExercise changes the exercise and resets the timing memory.
func (e *Engine) SetExercise(id string) model.Exercise {
	e.mu.Lock()
	defer e.mu.Unlock()
	ex := e.dispatcher.SetExercise(id)
	e.state = model.ExerciseState{Exercise: ex}
	e.timing.Restart(e.clock.Now())
	e.sessions.SetSelection(ex, e.coachID)
	return ex
}

// SetCoach changes the coach and resets the timing memory. Unknown ids
// select the default coach.
func (e *Engine) SetCoach(id string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.coachID = coach.Resolve(id).ID
	e.timing.Restart(e.clock.Now())
	e.sessions.SetSelection(e.state.Exercise, e.coachID)
	return e.coachID
}

// CapturePhoto attaches a photo to the open workout, labelled with the
// latest feedback message.
func (e *Engine) CapturePhoto(imageRef string) (model.ProgressPhoto, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	label := ""
	if e.last != nil {
		label = e.last.Message
	}
	return e.sessions.CapturePhoto(imageRef, label, e.clock.Now())
}

// State returns the live classifier output.
func (e *Engine) State() model.ExerciseState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Coach returns the selected coach id.
func (e *Engine) Coach() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.coachID
}

// Session returns a copy of the current workout, if one was started.
func (e *Engine) Session() (model.WorkoutSession, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions.Session()
}

// LastFeedback returns the most recent emitted feedback.
func (e *Engine) LastFeedback() (model.FormFeedback, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return model.FormFeedback{}, false
	}
	return *e.last, true
}
