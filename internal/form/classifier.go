package form

import (
	"time"

	"github.com/verte-zerg/formcoach/internal/geometry"
	"github.com/verte-zerg/formcoach/internal/model"
)

// Result is the outcome of classifying one frame.
type Result struct {
	Feedback   model.FormFeedback
	InPosition bool
	Measures   Measures
}

// Classifier scores frames for a single exercise.
type Classifier struct {
	profile Profile
}

// NewClassifier builds a classifier from a profile.
func NewClassifier(profile Profile) *Classifier {
	return &Classifier{profile: profile}
}

// Exercise returns the exercise this classifier scores.
func (c *Classifier) Exercise() model.Exercise {
	return c.profile.Exercise
}

// Profile returns the rule table in use.
func (c *Classifier) Profile() Profile {
	return c.profile
}

// Classify scores a frame. It returns false when a required landmark is
// absent; callers keep their previous state in that case.
func (c *Classifier) Classify(frame model.Frame, at time.Time) (Result, bool) {
	b, ok := newBody(frame, c.profile.Parts)
	if !ok {
		return Result{}, false
	}
	measures := c.profile.Measure(b)

	inPosition := true
	for _, check := range c.profile.Position {
		if !check.Matches(measures) {
			inPosition = false
			break
		}
	}

	score := 100
	var firstIssue *Rule
	for i := range c.profile.Rules {
		rule := &c.profile.Rules[i]
		if !rule.Matches(measures) {
			continue
		}
		score -= rule.Penalty
		if firstIssue == nil {
			firstIssue = rule
		}
	}
	score = clampScore(score)

	category := model.CategoryForScore(score)
	fb := model.FormFeedback{
		Category:  category,
		Exercise:  c.profile.Exercise,
		Timestamp: at.UnixMilli(),
		Score:     score,
	}
	switch category {
	case model.Good:
		fb.Message = c.profile.GoodMessage
	case model.Warning:
		fb.Message = c.profile.WarningMessage
	default:
		if firstIssue != nil {
			fb.Message = firstIssue.Message
			fb.Issue = firstIssue.ID
		} else {
			fb.Message = c.profile.WarningMessage
		}
	}
	return Result{Feedback: fb, InPosition: inPosition, Measures: measures}, true
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

type body struct {
	points map[int]geometry.Point
}

func newBody(frame model.Frame, parts []int) (body, bool) {
	points := make(map[int]geometry.Point, len(parts))
	for _, part := range parts {
		lm, ok := frame.Get(part)
		if !ok {
			return body{}, false
		}
		points[part] = geometry.Point{X: lm.X, Y: lm.Y}
	}
	return body{points: points}, true
}

func (b body) at(part int) geometry.Point {
	return b.points[part]
}

func (b body) mid(left, right int) geometry.Point {
	return geometry.Midpoint(b.at(left), b.at(right))
}

type leg struct {
	hip   geometry.Point
	knee  geometry.Point
	ankle geometry.Point
}

// lungeLegs splits the legs by knee height: the higher knee (smaller y) is
// the front leg.
func (b body) lungeLegs() (front, back leg) {
	left := leg{hip: b.at(model.LeftHip), knee: b.at(model.LeftKnee), ankle: b.at(model.LeftAnkle)}
	right := leg{hip: b.at(model.RightHip), knee: b.at(model.RightKnee), ankle: b.at(model.RightAnkle)}
	if left.knee.Y <= right.knee.Y {
		return left, right
	}
	return right, left
}

func interior(a, vertex, b geometry.Point) float64 {
	return geometry.Interior(a, vertex, b)
}
