package statsui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/formcoach/internal/model"
	"github.com/verte-zerg/formcoach/internal/store"
)

// knee 100, hip 140, depth gap 0.108
func goodSquat(offsetMs int64) model.Frame {
	f := model.Frame{OffsetMs: offsetMs, Landmarks: make([]*model.Landmark, model.NumLandmarks)}
	set := func(left, right int, x, y float64) {
		f.Landmarks[left] = &model.Landmark{X: x, Y: y}
		f.Landmarks[right] = &model.Landmark{X: x, Y: y}
	}
	set(model.LeftShoulder, model.RightShoulder, 0.08959, 0.16121)
	set(model.LeftHip, model.RightHip, 0.31494, 0.49169)
	set(model.LeftKnee, model.RightKnee, 0.7, 0.6)
	set(model.LeftAnkle, model.RightAnkle, 0.68, 0.8)
	return f
}

func seedStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "formcoach.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	squats := make([]model.Frame, 31)
	for i := range squats {
		squats[i] = goodSquat(int64(i) * 100)
	}
	base := time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC)
	ctx := context.Background()
	if _, err := st.InsertTake(ctx, store.Take{Name: "planks", Exercise: model.Plank, CreatedAt: base, Frames: []model.Frame{{}}}); err != nil {
		t.Fatalf("insert take: %v", err)
	}
	if _, err := st.InsertTake(ctx, store.Take{Name: "morning squats", Exercise: model.Squat, CreatedAt: base.Add(time.Hour), Frames: squats}); err != nil {
		t.Fatalf("insert take: %v", err)
	}
	return st
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestListsTakesNewestFirst(t *testing.T) {
	m := NewModel(seedStore(t), Config{})
	if len(m.takes) != 2 {
		t.Fatalf("expected 2 takes, got %d", len(m.takes))
	}
	if m.takes[0].Name != "morning squats" {
		t.Fatalf("expected newest take first, got %q", m.takes[0].Name)
	}
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	view := m.View()
	if !strings.Contains(view, "morning squats") || !strings.Contains(view, "planks") {
		t.Fatalf("expected both takes in view:\n%s", view)
	}
	if got := strings.Count(view, "\n") + 1; got != 30 {
		t.Fatalf("expected 30 lines, got %d", got)
	}
}

func TestAnalyzeSelectedTake(t *testing.T) {
	m := NewModel(seedStore(t), Config{Coach: "gym-mom"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 60})
	m.Update(key("enter"))

	if m.activeTab != tabAnalysis {
		t.Fatalf("expected analysis tab after enter")
	}
	if m.analyzed == nil || m.analyzed.Name != "morning squats" {
		t.Fatalf("expected the selected take to be analyzed")
	}
	if m.run.Frames != 31 || len(m.run.Events) != 2 {
		t.Fatalf("unexpected run: %d frames, %d events", m.run.Frames, len(m.run.Events))
	}
	content := m.viewport.View()
	for _, want := range []string{"morning squats", "Accuracy", "100%", "Feedback"} {
		if !strings.Contains(content, want) {
			t.Fatalf("analysis missing %q:\n%s", want, content)
		}
	}
}

func TestDeleteTakeNeedsConfirmation(t *testing.T) {
	m := NewModel(seedStore(t), Config{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m.Update(key("down"))

	m.Update(key("d"))
	if !m.confirmDelete {
		t.Fatalf("expected delete confirmation")
	}
	m.Update(key("n"))
	if len(m.takes) != 2 {
		t.Fatalf("expected no deletion without confirmation")
	}

	m.Update(key("d"))
	m.Update(key("y"))
	if len(m.takes) != 1 || m.takes[0].Name != "morning squats" {
		t.Fatalf("expected plank take deleted, got %+v", m.takes)
	}
	if !strings.Contains(m.notice, "Deleted take") {
		t.Fatalf("expected delete notice, got %q", m.notice)
	}
}

func TestFilterByExercise(t *testing.T) {
	m := NewModel(seedStore(t), Config{})
	m.Update(key("/"))
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	m.filterInputs[0].SetValue("plank")
	m.filterInputs[2].SetValue("3")
	m.Update(key("enter"))

	if m.filterMode {
		t.Fatalf("expected filter mode to close, error %q", m.filterError)
	}
	if m.cfg.Exercise != model.Plank || m.cfg.Window != 3 {
		t.Fatalf("unexpected config %+v", m.cfg)
	}
	if len(m.takes) != 1 || m.takes[0].Exercise != model.Plank {
		t.Fatalf("expected only the plank take, got %+v", m.takes)
	}
}

func TestFilterRejectsInvalidValues(t *testing.T) {
	m := NewModel(seedStore(t), Config{})
	cases := []struct {
		index int
		value string
		want  string
	}{
		{0, "burpee", "invalid exercise"},
		{1, "drill-sergeant", "invalid coach"},
		{2, "0", "invalid window"},
	}
	for _, tc := range cases {
		m.Update(key("/"))
		m.filterInputs[tc.index].SetValue(tc.value)
		m.Update(key("enter"))
		if !strings.Contains(m.filterError, tc.want) {
			t.Fatalf("expected %q, got %q", tc.want, m.filterError)
		}
		m.Update(key("esc"))
	}
}
