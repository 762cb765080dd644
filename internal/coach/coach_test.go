package coach

import (
	"testing"

	"github.com/verte-zerg/formcoach/internal/model"
)

func TestEveryCoachHasEveryCategory(t *testing.T) {
	for _, c := range All() {
		for _, cat := range []model.Category{model.Good, model.Warning, model.Error} {
			if got := Messages(c.ID, cat); len(got) != 4 {
				t.Fatalf("%s/%s: expected 4 messages, got %d", c.ID, cat, len(got))
			}
		}
	}
}

func TestResolveFallsBack(t *testing.T) {
	if got := Resolve("nobody").ID; got != DefaultID {
		t.Fatalf("expected default coach, got %q", got)
	}
	if got := Resolve("gym-mom").Name; got != "Gym Mom" {
		t.Fatalf("unexpected coach name %q", got)
	}
}

func TestPickIsFromTable(t *testing.T) {
	p := NewSeededPicker(1)
	options := Messages("tough-love", model.Warning)
	for i := 0; i < 50; i++ {
		msg, ok := p.Pick("tough-love", model.Warning)
		if !ok {
			t.Fatalf("expected a message")
		}
		found := false
		for _, o := range options {
			if o == msg {
				found = true
			}
		}
		if !found {
			t.Fatalf("message %q not in table", msg)
		}
	}
	if _, ok := p.Pick("nobody", model.Good); ok {
		t.Fatalf("unknown coach must not pick")
	}
}

func TestPersonalize(t *testing.T) {
	p := NewSeededPicker(2)
	fb := model.FormFeedback{Category: model.Error, Message: "Sit deeper", Score: 40, Issue: "depth"}
	got := p.Personalize("gym-mom", fb)
	if got.Message == fb.Message {
		t.Fatalf("expected message to be rewritten")
	}
	if got.Score != fb.Score || got.Issue != fb.Issue || got.Category != fb.Category {
		t.Fatalf("only the message may change: %+v", got)
	}

	scripted := model.FormFeedback{Category: model.Good, Message: "scripted", Scripted: true}
	if p.Personalize("gym-mom", scripted).Message != "scripted" {
		t.Fatalf("scripted feedback must keep its text")
	}
	if p.Personalize("nobody", fb).Message != fb.Message {
		t.Fatalf("unknown coach keeps the classifier text")
	}
}

func TestStatusLine(t *testing.T) {
	if StatusLine(95) != "Perfect form! 🔥" || StatusLine(70) != "Good form 👍" || StatusLine(10) != "Let's work on that form 💪" {
		t.Fatalf("unexpected status lines")
	}
}
