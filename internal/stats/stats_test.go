package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/formcoach/internal/model"
)

func sampleRun() Run {
	r := Run{Exercise: model.Squat, Coach: "gym-mom"}
	states := []struct {
		classified bool
		score      int
		inPos      bool
	}{
		{true, 100, true},
		{false, 0, false},
		{true, 80, true},
		{true, 45, false},
		{true, 95, true},
	}
	for i, s := range states {
		r.Observe(int64(i*100), s.classified, model.ExerciseState{Exercise: model.Squat, FormScore: s.score, InPosition: s.inPos})
	}
	r.AddEvent(model.FormFeedback{Category: model.Good, Score: 100, Timestamp: 1000, Message: "Perfect squat 🔥"})
	r.AddEvent(model.FormFeedback{Category: model.Error, Score: 45, Timestamp: 4300, Message: "Sit deeper", Issue: "depth"})
	r.AddEvent(model.FormFeedback{Category: model.Error, Score: 50, Timestamp: 7300, Message: "Sit deeper", Issue: "depth"})
	r.AddEvent(model.FormFeedback{Category: model.Error, Score: 55, Timestamp: 9300, Message: "Push hips", Issue: "hip-angle"})
	r.Session = model.WorkoutSession{TotalReps: 4, GoodReps: 1}
	return r
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleRun())
	assert.Equal(t, 5, s.Frames)
	assert.Equal(t, 4, s.Classified)
	assert.InDelta(t, 75, s.InPositionPct, 1e-9)
	assert.InDelta(t, 80, s.MeanScore, 1e-9)
	// sample standard deviation of 100, 80, 45, 95
	assert.InDelta(t, math.Sqrt((400+0+1225+225)/3.0), s.StdDev, 1e-9)
	assert.Equal(t, 80.0, s.MedianScore)
	assert.Equal(t, 45.0, s.MinScore)
	assert.Equal(t, 100.0, s.MaxScore)
	assert.Equal(t, 3, s.ByCategory[model.Error])
	assert.Equal(t, 25, s.FormAccuracy)
}

func TestSummarizeEmptyRun(t *testing.T) {
	s := Summarize(Run{Frames: 3})
	assert.Zero(t, s.Classified)
	assert.Zero(t, s.MeanScore)
	assert.Zero(t, s.FormAccuracy)
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{10, 20, 30, 40}, 2)
	want := []float64{10, 15, 25, 35}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 100}); got != " @" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{5, 5, 5}); len(got) != 3 {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
}

func TestTopIssues(t *testing.T) {
	issues := TopIssues(sampleRun().Events, 1)
	require.Len(t, issues, 1)
	assert.Equal(t, IssueCount{Issue: "depth", Count: 2}, issues[0])
}

func TestRenderSummaryAndEvents(t *testing.T) {
	r := sampleRun()
	var buf bytes.Buffer
	require.NoError(t, RenderSummary(&buf, r))
	require.NoError(t, RenderEvents(&buf, r.Events, 1000))
	require.NoError(t, RenderIssues(&buf, r.Events, 3))
	out := buf.String()
	assert.Contains(t, out, "Summary (squat)")
	assert.Contains(t, out, "Form accuracy: 25%")
	assert.Contains(t, out, "3.3s")
	assert.Contains(t, out, "hip-angle")

	buf.Reset()
	require.NoError(t, RenderEvents(&buf, nil, 0))
	assert.Equal(t, "No feedback emitted.\n", buf.String())
}

func TestRenderScoreChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderScoreChart(&buf, "Squat take", sampleRun(), 3))
	html := buf.String()
	assert.True(t, strings.Contains(html, "<html"), "expected an HTML document")
	assert.Contains(t, html, "Squat take")

	assert.Error(t, RenderScoreChart(&buf, "empty", Run{}, 3))
}
