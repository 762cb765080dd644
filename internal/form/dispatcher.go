package form

import (
	"time"

	"github.com/verte-zerg/formcoach/internal/model"
)

// Dispatcher routes frames to the classifier for the selected exercise.
type Dispatcher struct {
	classifiers map[model.Exercise]*Classifier
	current     model.Exercise
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*dispatcherOptions)

type dispatcherOptions struct {
	overrides map[model.Exercise]map[string]Override
}

// WithOverrides applies per-exercise rule overrides keyed by rule id.
func WithOverrides(overrides map[model.Exercise]map[string]Override) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.overrides = overrides
	}
}

// NewDispatcher builds a dispatcher over the default classifier table.
// The selected exercise starts at squat.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	var o dispatcherOptions
	for _, opt := range opts {
		opt(&o)
	}
	profiles := DefaultProfiles()
	classifiers := make(map[model.Exercise]*Classifier, len(profiles))
	for ex, profile := range profiles {
		classifiers[ex] = NewClassifier(profile.withOverrides(o.overrides[ex]))
	}
	return &Dispatcher{classifiers: classifiers, current: model.Squat}
}

// SetExercise changes the selected exercise. Unknown ids select squat.
func (d *Dispatcher) SetExercise(id string) model.Exercise {
	d.current = model.ParseExercise(id)
	return d.current
}

// Exercise returns the selected exercise.
func (d *Dispatcher) Exercise() model.Exercise {
	return d.current
}

// Classifier returns the classifier for an exercise, falling back to squat.
func (d *Dispatcher) Classifier(ex model.Exercise) *Classifier {
	if c, ok := d.classifiers[ex]; ok {
		return c
	}
	return d.classifiers[model.Squat]
}

// Classify delegates to the selected exercise's classifier.
func (d *Dispatcher) Classify(frame model.Frame, at time.Time) (Result, bool) {
	return d.Classifier(d.current).Classify(frame, at)
}
