// Package coach holds coach personalities and their message tables.
package coach

import "github.com/verte-zerg/formcoach/internal/model"

// DefaultID is the coach used when none is selected.
const DefaultID = "soft-girl"

var coaches = []model.Coach{
	{ID: "soft-girl", Name: "Soft Girl Encourager", Emoji: "💗", Description: "supportive, sweet, gentle"},
	{ID: "tough-love", Name: "Tough Love Bestie", Emoji: "🔥", Description: "sassy, direct, hilarious"},
	{ID: "gym-mom", Name: "Gym Mom", Emoji: "🧘🏽‍♀️", Description: "warm, wise, no-nonsense"},
}

var messages = map[string]map[model.Category][]string{
	"soft-girl": {
		model.Good: {
			"You're absolutely glowing! That form was perfect! ✨",
			"Yes queen! You're doing amazing, keep it up! 💖",
			"Beautiful work bestie! I'm so proud of you! 🌸",
			"That's my girl! Perfect form, perfect energy! 💕",
		},
		model.Warning: {
			"Almost there sweetie! Just adjust a tiny bit 💗",
			"You're doing great! Let's just fix that posture honey 🌺",
			"Close! You've got this, just a small tweak needed 💖",
			"Love the effort! Small adjustment and you're golden ✨",
		},
		model.Error: {
			"Oop! Let's protect those joints, beautiful 💕",
			"Sweetie, let's slow down and focus on form 🌸",
			"No worries! Even queens need practice - adjust that posture 💗",
			"You're learning! Let's fix that form to keep you safe 💖",
		},
	},
	"tough-love": {
		model.Good: {
			"OKAY MISS OLYMPIA I see you!! Period!! 🔥",
			"Now THAT'S what I'm talking about! Keep slaying! 💪",
			"Chef's kiss! Perfect form, perfect energy! 👑",
			"You just ATE that rep! Absolutely devoured it! 🔥",
		},
		model.Warning: {
			"Girl, you're folding like a lawn chair - straighten up! 💀",
			"Bestie, that form is giving confused... let's fix it 🔥",
			"Ma'am, what are we doing here? Tighten it up! 💪",
			"You're almost there but not quite - focus! 👀",
		},
		model.Error: {
			"GIRL. You call that proper form? We're not playing! 🚨",
			"Uh-uh bestie, that's gonna hurt tomorrow - fix it NOW 💀",
			"What in the world was that?! Start over, do it right! 🔥",
			"Ma'am I'm gonna need you to respect your body! 💪",
		},
	},
	"gym-mom": {
		model.Good: {
			"Beautiful work, sweetheart! That's proper form! 👑",
			"Excellent! You're taking care of your body perfectly 💜",
			"That's my strong girl! Keep up that good work! 🧘🏽‍♀️",
			"Perfect execution! I'm so proud of your progress! ✨",
		},
		model.Warning: {
			"Careful there, honey. Let's protect those knees 💜",
			"Good effort! Just mind your posture, sweetie 👑",
			"Almost perfect! Small adjustment for safety, dear 🧘🏽‍♀️",
			"You're doing well! Let's just fine-tune that form ✨",
		},
		model.Error: {
			"Sweetie, let's stop and reset. Safety first! 💜",
			"Honey, that's not quite right. Let's try again safely 👑",
			"Protect your body, dear. Form over everything! 🧘🏽‍♀️",
			"Let's pause and focus on proper technique, love ✨",
		},
	},
}

// All returns the known coaches in display order.
func All() []model.Coach {
	out := make([]model.Coach, len(coaches))
	copy(out, coaches)
	return out
}

// Lookup returns a coach by id.
func Lookup(id string) (model.Coach, bool) {
	for _, c := range coaches {
		if c.ID == id {
			return c, true
		}
	}
	return model.Coach{}, false
}

// Resolve returns the coach for id, falling back to the default coach.
func Resolve(id string) model.Coach {
	if c, ok := Lookup(id); ok {
		return c
	}
	c, _ := Lookup(DefaultID)
	return c
}

// Messages returns the templates a coach uses for a category.
func Messages(coachID string, category model.Category) []string {
	byCategory, ok := messages[coachID]
	if !ok {
		return nil
	}
	out := make([]string, len(byCategory[category]))
	copy(out, byCategory[category])
	return out
}
