package coach

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/formcoach/internal/model"
)

// Picker selects coach messages at random.
type Picker struct {
	rnd *rand.Rand
}

// NewPicker returns a Picker seeded with the current time.
func NewPicker() *Picker {
	return NewSeededPicker(time.Now().UnixNano())
}

// NewSeededPicker returns a deterministic Picker.
func NewSeededPicker(seed int64) *Picker {
	return &Picker{rnd: rand.New(rand.NewSource(seed))}
}

// Pick returns one of the coach's templates for a category. It returns
// false when the coach has no templates for it.
func (p *Picker) Pick(coachID string, category model.Category) (string, bool) {
	options := messages[coachID][category]
	if len(options) == 0 {
		return "", false
	}
	return options[p.rnd.Intn(len(options))], true
}

// Personalize rewrites a feedback message in the coach's voice. Scripted
// feedback already carries its own text and is returned unchanged.
func (p *Picker) Personalize(coachID string, fb model.FormFeedback) model.FormFeedback {
	if fb.Scripted {
		return fb
	}
	if msg, ok := p.Pick(coachID, fb.Category); ok {
		fb.Message = msg
	}
	return fb
}

// StatusLine summarizes a live form score for the HUD.
func StatusLine(score int) string {
	switch {
	case score >= 90:
		return "Perfect form! 🔥"
	case score >= 70:
		return "Good form 👍"
	default:
		return "Let's work on that form 💪"
	}
}
