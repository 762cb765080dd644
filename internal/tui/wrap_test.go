package tui

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mattn/go-runewidth"
)

func TestWrapMessageBreaksOnSpaces(t *testing.T) {
	got := wrapMessage("Sit deeper into the squat", 10)
	want := []string{"Sit deeper", "into the", "squat"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected lines (-want +got):\n%s", diff)
	}
}

func TestWrapMessageSplitsLongWords(t *testing.T) {
	got := wrapMessage("abcdefgh", 3)
	want := []string{"abc", "def", "gh"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected lines (-want +got):\n%s", diff)
	}
}

func TestWrapMessageCountsWideRunes(t *testing.T) {
	lines := wrapMessage("Perfect squat 🔥🔥", 14)
	for _, line := range lines {
		if w := runewidth.StringWidth(line); w > 14 {
			t.Fatalf("line %q is %d columns wide", line, w)
		}
	}
	if len(lines) != 2 || lines[1] != "🔥🔥" {
		t.Fatalf("expected emoji on second line, got %q", lines)
	}
}

func TestWrapMessageNoWidth(t *testing.T) {
	got := wrapMessage("keep\tit", 0)
	if len(got) != 1 || got[0] != "keep it" {
		t.Fatalf("expected a single normalized line, got %q", got)
	}
}

func TestClampLines(t *testing.T) {
	got := clampLines([]string{"one", "two", "three"}, 2, 8)
	want := []string{"one", "two thr…"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected lines (-want +got):\n%s", diff)
	}
	if got := clampLines([]string{"one"}, 2, 8); len(got) != 1 {
		t.Fatalf("expected lines to pass through, got %q", got)
	}
}
