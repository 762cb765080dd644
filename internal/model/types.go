// Package model defines shared data structures.
package model

import "time"

// Body-part indices following the 33-point MediaPipe Pose layout.
// Only the parts consumed by the form classifiers are named.
const (
	LeftShoulder  = 11
	RightShoulder = 12
	LeftElbow     = 13
	RightElbow    = 14
	LeftWrist     = 15
	RightWrist    = 16
	LeftHip       = 23
	RightHip      = 24
	LeftKnee      = 25
	RightKnee     = 26
	LeftAnkle     = 27
	RightAnkle    = 28
	NumLandmarks  = 33
)

// Landmark is a normalized body keypoint. X and Y are relative to the frame
// width and height; Y grows downward.
type Landmark struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Z          float64  `json:"z"`
	Visibility *float64 `json:"visibility,omitempty"`
}

// Frame is one detector result. A nil entry or a short slice means the
// detector did not resolve that body part.
type Frame struct {
	OffsetMs  int64       `json:"t"`
	Landmarks []*Landmark `json:"landmarks"`
}

// Get returns the landmark for a body part, if present.
func (f Frame) Get(part int) (Landmark, bool) {
	if part < 0 || part >= len(f.Landmarks) {
		return Landmark{}, false
	}
	lm := f.Landmarks[part]
	if lm == nil {
		return Landmark{}, false
	}
	return *lm, true
}

// Exercise identifies a supported exercise.
type Exercise string

const (
	Squat       Exercise = "squat"
	PushUp      Exercise = "pushup"
	Plank       Exercise = "plank"
	GluteBridge Exercise = "glute-bridge"
	Deadlift    Exercise = "deadlift"
	Lunge       Exercise = "lunge"
)

// Exercises lists every supported exercise in display order.
var Exercises = []Exercise{Squat, PushUp, Plank, GluteBridge, Deadlift, Lunge}

// ParseExercise resolves an identifier, falling back to squat.
func ParseExercise(id string) Exercise {
	switch Exercise(id) {
	case Squat, PushUp, Plank, GluteBridge, Deadlift, Lunge:
		return Exercise(id)
	case "push-up":
		return PushUp
	case "bridge", "glute_bridge":
		return GluteBridge
	default:
		return Squat
	}
}

// Category is the feedback tier derived from a form score.
type Category string

const (
	Good    Category = "good"
	Warning Category = "warning"
	Error   Category = "error"
)

// CategoryForScore maps a 0-100 score to its band.
func CategoryForScore(score int) Category {
	switch {
	case score >= 90:
		return Good
	case score >= 70:
		return Warning
	default:
		return Error
	}
}

// FormFeedback is an immutable feedback event.
type FormFeedback struct {
	Category  Category `json:"type"`
	Message   string   `json:"message"`
	Exercise  Exercise `json:"exercise"`
	Timestamp int64    `json:"timestamp"`
	Score     int      `json:"score"`
	Issue     string   `json:"issue,omitempty"`
	Scripted  bool     `json:"scripted,omitempty"`
}

// ExerciseState is the live per-session classifier output.
type ExerciseState struct {
	Exercise   Exercise
	FormScore  int
	InPosition bool
}

// ProgressPhoto is a capture attached to a workout session.
type ProgressPhoto struct {
	ID        string
	Exercise  Exercise
	Timestamp time.Time
	Feedback  string
	ImageRef  string
}

// WorkoutSession accumulates stats for one workout run.
type WorkoutSession struct {
	ID        string
	StartTime time.Time
	EndTime   *time.Time
	Exercise  Exercise
	CoachID   string
	TotalReps int
	GoodReps  int
	Paused    bool
	Photos    []ProgressPhoto
}

// Ended reports whether the session has been stopped.
func (s WorkoutSession) Ended() bool {
	return s.EndTime != nil
}

// Coach describes a feedback personality.
type Coach struct {
	ID          string
	Name        string
	Emoji       string
	Description string
}

// Config defines coaching settings resolved from flags and the config file.
type Config struct {
	Exercise      Exercise
	Coach         string
	Cooldown      time.Duration
	FrameInterval time.Duration
	MinVisibility float64
	Personalize   bool
}
