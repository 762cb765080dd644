// Package form classifies exercise form from pose landmarks.
package form

import (
	"fmt"
	"math"

	"github.com/verte-zerg/formcoach/internal/model"
)

// Op compares a measured value against a rule threshold.
type Op int

const (
	// Above matches when value > Threshold.
	Above Op = iota
	// Below matches when value < Threshold.
	Below
	// AtLeast matches when value >= Threshold.
	AtLeast
	// Outside matches when value < Threshold or value > Upper.
	Outside
)

// Check is a single comparison against a named measure.
type Check struct {
	Metric    string
	Op        Op
	Threshold float64
	Upper     float64
}

// Matches evaluates the check. A missing metric never matches.
func (c Check) Matches(m Measures) bool {
	v, ok := m[c.Metric]
	if !ok || math.IsNaN(v) {
		return false
	}
	switch c.Op {
	case Above:
		return v > c.Threshold
	case Below:
		return v < c.Threshold
	case AtLeast:
		return v >= c.Threshold
	case Outside:
		return v < c.Threshold || v > c.Upper
	default:
		return false
	}
}

func (c Check) String() string {
	switch c.Op {
	case Above:
		return fmt.Sprintf("%s > %g", c.Metric, c.Threshold)
	case Below:
		return fmt.Sprintf("%s < %g", c.Metric, c.Threshold)
	case AtLeast:
		return fmt.Sprintf("%s >= %g", c.Metric, c.Threshold)
	case Outside:
		return fmt.Sprintf("%s outside [%g, %g]", c.Metric, c.Threshold, c.Upper)
	default:
		return c.Metric
	}
}

// Rule is a scored form issue. Rules are evaluated in order; the first
// violated rule supplies the message for an error-band result.
type Rule struct {
	ID string
	Check
	Penalty int
	Message string
}

// Measures holds the derived angles and deltas for one frame.
type Measures map[string]float64

// Profile describes one exercise classifier.
type Profile struct {
	Exercise       model.Exercise
	Parts          []int
	Measure        func(body) Measures
	Position       []Check
	Rules          []Rule
	GoodMessage    string
	WarningMessage string
}

// Override replaces a rule's threshold or penalty. Nil fields are kept.
type Override struct {
	Threshold *float64
	Upper     *float64
	Penalty   *int
}

func (s Profile) withOverrides(overrides map[string]Override) Profile {
	if len(overrides) == 0 {
		return s
	}
	rules := make([]Rule, len(s.Rules))
	copy(rules, s.Rules)
	for i, r := range rules {
		o, ok := overrides[r.ID]
		if !ok {
			continue
		}
		if o.Threshold != nil {
			rules[i].Threshold = *o.Threshold
		}
		if o.Upper != nil {
			rules[i].Upper = *o.Upper
		}
		if o.Penalty != nil {
			rules[i].Penalty = *o.Penalty
		}
	}
	s.Rules = rules
	return s
}

// DefaultProfiles returns the built-in classifier table.
func DefaultProfiles() map[model.Exercise]Profile {
	return map[model.Exercise]Profile{
		model.Squat:       squatProfile(),
		model.PushUp:      pushUpProfile(),
		model.Plank:       plankProfile(),
		model.GluteBridge: gluteBridgeProfile(),
		model.Deadlift:    deadliftProfile(),
		model.Lunge:       lungeProfile(),
	}
}

func squatProfile() Profile {
	return Profile{
		Exercise: model.Squat,
		Parts: []int{
			model.LeftShoulder, model.RightShoulder,
			model.LeftHip, model.RightHip,
			model.LeftKnee, model.RightKnee,
			model.LeftAnkle, model.RightAnkle,
		},
		Measure: func(b body) Measures {
			shoulder := b.mid(model.LeftShoulder, model.RightShoulder)
			hip := b.mid(model.LeftHip, model.RightHip)
			knee := b.mid(model.LeftKnee, model.RightKnee)
			ankle := b.mid(model.LeftAnkle, model.RightAnkle)
			return Measures{
				"knee_angle":    interior(hip, knee, ankle),
				"hip_angle":     interior(shoulder, hip, knee),
				"depth_gap":     knee.Y - hip.Y,
				"knee_over_toe": knee.X - ankle.X,
			}
		},
		Position: []Check{
			{Metric: "knee_angle", Op: Below, Threshold: 120},
			{Metric: "hip_angle", Op: Below, Threshold: 160},
		},
		Rules: []Rule{
			{ID: "depth", Check: Check{Metric: "depth_gap", Op: Below, Threshold: 0.1}, Penalty: 30,
				Message: "Sit deeper, bring your hips down toward knee level"},
			{ID: "knee-over-toe", Check: Check{Metric: "knee_over_toe", Op: Above, Threshold: 0.05}, Penalty: 20,
				Message: "Keep your knees behind your toes"},
			{ID: "knee-angle", Check: Check{Metric: "knee_angle", Op: Above, Threshold: 110}, Penalty: 25,
				Message: "Bend your knees more"},
			{ID: "hip-angle", Check: Check{Metric: "hip_angle", Op: Above, Threshold: 150}, Penalty: 15,
				Message: "Push your hips back"},
		},
		GoodMessage:    "Perfect squat, keep that depth",
		WarningMessage: "Nice squat, small adjustments needed",
	}
}

func pushUpProfile() Profile {
	return Profile{
		Exercise: model.PushUp,
		Parts: []int{
			model.LeftShoulder, model.RightShoulder,
			model.LeftElbow, model.RightElbow,
			model.LeftWrist, model.RightWrist,
			model.LeftHip, model.RightHip,
		},
		Measure: func(b body) Measures {
			shoulder := b.mid(model.LeftShoulder, model.RightShoulder)
			elbow := b.mid(model.LeftElbow, model.RightElbow)
			wrist := b.mid(model.LeftWrist, model.RightWrist)
			hip := b.mid(model.LeftHip, model.RightHip)
			return Measures{
				"elbow_angle":   interior(shoulder, elbow, wrist),
				"shoulder_drop": shoulder.Y - elbow.Y,
				"body_line":     math.Abs(shoulder.Y - hip.Y),
			}
		},
		Position: []Check{
			{Metric: "elbow_angle", Op: Below, Threshold: 90},
			{Metric: "shoulder_drop", Op: Above, Threshold: 0},
		},
		Rules: []Rule{
			{ID: "body-line", Check: Check{Metric: "body_line", Op: Above, Threshold: 0.1}, Penalty: 25,
				Message: "Keep your body in one straight line"},
			{ID: "elbow-angle", Check: Check{Metric: "elbow_angle", Op: Above, Threshold: 100}, Penalty: 20,
				Message: "Bend your elbows more"},
			{ID: "depth", Check: Check{Metric: "shoulder_drop", Op: Below, Threshold: 0.05}, Penalty: 30,
				Message: "Lower your chest closer to the floor"},
		},
		GoodMessage:    "Strong push-up, great depth",
		WarningMessage: "Good push-up, tighten it up a little",
	}
}

func plankProfile() Profile {
	return Profile{
		Exercise: model.Plank,
		Parts: []int{
			model.LeftShoulder, model.RightShoulder,
			model.LeftHip, model.RightHip,
		},
		Measure: func(b body) Measures {
			shoulder := b.mid(model.LeftShoulder, model.RightShoulder)
			hip := b.mid(model.LeftHip, model.RightHip)
			return Measures{
				"alignment":     math.Abs(shoulder.Y - hip.Y),
				"shoulder_rise": hip.Y - shoulder.Y,
				"hip_offset":    math.Abs((1 - hip.Y) - (1 - shoulder.Y)),
			}
		},
		Position: []Check{
			{Metric: "alignment", Op: Below, Threshold: 0.05},
			{Metric: "shoulder_rise", Op: Above, Threshold: 0},
		},
		Rules: []Rule{
			{ID: "alignment", Check: Check{Metric: "alignment", Op: Above, Threshold: 0.05}, Penalty: 40,
				Message: "Line your shoulders up with your hips"},
			{ID: "hip-sag", Check: Check{Metric: "hip_offset", Op: Above, Threshold: 0.1}, Penalty: 30,
				Message: "Don't let your hips sag or pike"},
		},
		GoodMessage:    "Rock solid plank, hold it",
		WarningMessage: "Solid plank, tighten your core",
	}
}

func gluteBridgeProfile() Profile {
	return Profile{
		Exercise: model.GluteBridge,
		Parts: []int{
			model.LeftShoulder, model.RightShoulder,
			model.LeftHip, model.RightHip,
			model.LeftKnee, model.RightKnee,
			model.LeftAnkle, model.RightAnkle,
		},
		Measure: func(b body) Measures {
			shoulder := b.mid(model.LeftShoulder, model.RightShoulder)
			hip := b.mid(model.LeftHip, model.RightHip)
			knee := b.mid(model.LeftKnee, model.RightKnee)
			ankle := b.mid(model.LeftAnkle, model.RightAnkle)
			return Measures{
				"bridge_height":  shoulder.Y - hip.Y,
				"hip_under_knee": hip.Y - knee.Y,
				"knee_angle":     interior(hip, knee, ankle),
			}
		},
		// Lying supine: knees up above the hips, hips lifted above the shoulders.
		Position: []Check{
			{Metric: "hip_under_knee", Op: Above, Threshold: 0},
			{Metric: "bridge_height", Op: Above, Threshold: 0},
		},
		Rules: []Rule{
			{ID: "bridge-height", Check: Check{Metric: "bridge_height", Op: Below, Threshold: 0.1}, Penalty: 40,
				Message: "Drive your hips higher"},
			{ID: "knee-angle", Check: Check{Metric: "knee_angle", Op: Outside, Threshold: 80, Upper: 120}, Penalty: 30,
				Message: "Set your feet so your knees bend near 90 degrees"},
		},
		GoodMessage:    "Beautiful bridge, squeeze at the top",
		WarningMessage: "Good bridge, lift a little more",
	}
}

func deadliftProfile() Profile {
	return Profile{
		Exercise: model.Deadlift,
		Parts: []int{
			model.LeftShoulder, model.RightShoulder,
			model.LeftHip, model.RightHip,
			model.LeftKnee, model.RightKnee,
		},
		Measure: func(b body) Measures {
			shoulder := b.mid(model.LeftShoulder, model.RightShoulder)
			hip := b.mid(model.LeftHip, model.RightHip)
			knee := b.mid(model.LeftKnee, model.RightKnee)
			return Measures{
				"hip_angle":     interior(shoulder, hip, knee),
				"hip_over_knee": knee.Y - hip.Y,
				"back_tilt":     math.Abs(shoulder.Y - hip.Y),
			}
		},
		// A hinge keeps the hips above the knees; hips under the knees is a squat.
		Position: []Check{
			{Metric: "hip_angle", Op: Below, Threshold: 150},
			{Metric: "hip_over_knee", Op: Above, Threshold: 0},
		},
		Rules: []Rule{
			{ID: "back-straight", Check: Check{Metric: "back_tilt", Op: Above, Threshold: 0.05}, Penalty: 40,
				Message: "Keep your back flat and straight"},
			{ID: "hip-angle", Check: Check{Metric: "hip_angle", Op: Above, Threshold: 160}, Penalty: 30,
				Message: "Hinge at the hips"},
		},
		GoodMessage:    "Textbook hinge, nice and flat",
		WarningMessage: "Good deadlift, watch your back angle",
	}
}

func lungeProfile() Profile {
	return Profile{
		Exercise: model.Lunge,
		Parts: []int{
			model.LeftHip, model.RightHip,
			model.LeftKnee, model.RightKnee,
			model.LeftAnkle, model.RightAnkle,
		},
		Measure: func(b body) Measures {
			front, back := b.lungeLegs()
			return Measures{
				"front_knee_angle":    interior(front.hip, front.knee, front.ankle),
				"back_knee_angle":     interior(back.hip, back.knee, back.ankle),
				"knee_over_toe":       front.knee.X - front.ankle.X,
				"knee_split":          math.Abs(front.knee.Y - back.knee.Y),
				"back_knee_clearance": back.ankle.Y - back.knee.Y,
			}
		},
		Position: []Check{
			{Metric: "front_knee_angle", Op: Below, Threshold: 110},
			{Metric: "back_knee_angle", Op: Below, Threshold: 110},
		},
		Rules: []Rule{
			{ID: "knee-over-toe", Check: Check{Metric: "knee_over_toe", Op: Above, Threshold: 0.05}, Penalty: 30,
				Message: "Keep your front knee over your ankle"},
			{ID: "depth", Check: Check{Metric: "knee_split", Op: Below, Threshold: 0.1}, Penalty: 25,
				Message: "Drop your back knee lower"},
			{ID: "back-knee-low", Check: Check{Metric: "back_knee_clearance", Op: Below, Threshold: 0.02}, Penalty: 20,
				Message: "Don't slam your back knee into the floor"},
		},
		GoodMessage:    "Great lunge, strong and steady",
		WarningMessage: "Nice lunge, control the descent",
	}
}
