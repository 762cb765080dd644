// Package timing gates how often feedback reaches the user.
package timing

import (
	"time"

	"github.com/verte-zerg/formcoach/internal/model"
)

// DefaultCooldown is the minimum gap between two accepted baseline events.
const DefaultCooldown = 3000 * time.Millisecond

// Mark is one scripted feedback event at a fixed elapsed second.
type Mark struct {
	AtSecond int
	Category model.Category
	Message  string
	Score    int
}

// Script is a timeline of marks bound to an exercise and coach pairing.
// With CatchUp set, the earliest unfired mark whose second has passed fires
// even if the exact second was skipped.
type Script struct {
	Exercise model.Exercise
	Coach    string
	CatchUp  bool
	Marks    []Mark
}

// due returns the mark to fire at an elapsed second, or nil.
func (s Script) due(second int, fired func(int) bool) *Mark {
	var picked *Mark
	for i := range s.Marks {
		m := &s.Marks[i]
		if fired(m.AtSecond) {
			continue
		}
		switch {
		case m.AtSecond == second && !s.CatchUp:
			return m
		case s.CatchUp && m.AtSecond <= second:
			if picked == nil || m.AtSecond < picked.AtSecond {
				picked = m
			}
		}
	}
	return picked
}

func (s Script) matches(ex model.Exercise, coachID string) bool {
	return s.Exercise == ex && s.Coach == coachID
}

// Policy holds the cadence parameters and timeline scripts.
type Policy struct {
	Cooldown time.Duration
	Scripts  []Script
}

// DefaultPolicy returns the baseline cooldown and the built-in scripts.
func DefaultPolicy() Policy {
	return Policy{Cooldown: DefaultCooldown, Scripts: DefaultScripts()}
}

// DefaultScripts returns the built-in lunge timeline for the soft-girl coach.
func DefaultScripts() []Script {
	return []Script{
		{
			Exercise: model.Lunge,
			Coach:    "soft-girl",
			Marks: []Mark{
				{AtSecond: 3, Category: model.Good, Score: 95,
					Message: "Look at you stepping into that lunge! So graceful ✨"},
				{AtSecond: 8, Category: model.Warning, Score: 80,
					Message: "Keep that front knee over your ankle, sweetie 💗"},
				{AtSecond: 15, Category: model.Error, Score: 60,
					Message: "Let's slow down and drop that back knee gently 🌸"},
				{AtSecond: 22, Category: model.Good, Score: 100,
					Message: "Perfect lunge, bestie! I'm so proud of you 💖"},
			},
		},
	}
}

// ScriptFor returns the script bound to an exercise and coach, if any.
func (p Policy) ScriptFor(ex model.Exercise, coachID string) (Script, bool) {
	for _, s := range p.Scripts {
		if s.matches(ex, coachID) {
			return s, true
		}
	}
	return Script{}, false
}

func (p Policy) cooldown() time.Duration {
	if p.Cooldown <= 0 {
		return DefaultCooldown
	}
	return p.Cooldown
}

// Input is one analysis cycle seen by the policy. HasResult is false when
// the classifier produced nothing for the frame.
type Input struct {
	Exercise   model.Exercise
	Coach      string
	Now        time.Time
	HasResult  bool
	InPosition bool
	Feedback   model.FormFeedback
}

// Decide reports whether a feedback event should surface for this cycle
// and updates the session state accordingly.
func (p Policy) Decide(s *State, in Input) (model.FormFeedback, bool) {
	if script, ok := p.ScriptFor(in.Exercise, in.Coach); ok && s.Active() {
		return s.fireMark(script, in)
	}
	if !in.HasResult || !in.InPosition {
		return model.FormFeedback{}, false
	}
	if !s.LastFeedbackAt.IsZero() && in.Now.Sub(s.LastFeedbackAt) < p.cooldown() {
		return model.FormFeedback{}, false
	}
	s.LastFeedbackAt = in.Now
	return in.Feedback, true
}

func (s *State) fireMark(script Script, in Input) (model.FormFeedback, bool) {
	elapsed := in.Now.Sub(s.WorkoutStartedAt)
	if elapsed < 0 {
		return model.FormFeedback{}, false
	}
	second := int(elapsed / time.Second)

	picked := script.due(second, s.fired)
	if picked == nil {
		return model.FormFeedback{}, false
	}

	s.Fired[picked.AtSecond] = struct{}{}
	s.LastFeedbackAt = in.Now
	score := picked.Score
	if score == 0 {
		score = defaultScore(picked.Category)
	}
	return model.FormFeedback{
		Category:  picked.Category,
		Message:   picked.Message,
		Exercise:  in.Exercise,
		Timestamp: in.Now.UnixMilli(),
		Score:     score,
		Scripted:  true,
	}, true
}

func defaultScore(c model.Category) int {
	switch c {
	case model.Good:
		return 95
	case model.Warning:
		return 80
	default:
		return 50
	}
}
