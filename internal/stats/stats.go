// Package stats summarizes analysis runs and renders reports.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/verte-zerg/formcoach/internal/model"
	"github.com/verte-zerg/formcoach/internal/session"
)

const sparkChars = " .:-=+*#%@"

// Sample is the live score of one classified frame.
type Sample struct {
	OffsetMs   int64
	Score      int
	InPosition bool
}

// Run collects everything observed while analyzing one recording.
type Run struct {
	Exercise model.Exercise
	Coach    string
	Frames   int
	Samples  []Sample
	Events   []model.FormFeedback
	Session  model.WorkoutSession
}

// Observe records one processed frame.
func (r *Run) Observe(offsetMs int64, classified bool, state model.ExerciseState) {
	r.Frames++
	if !classified {
		return
	}
	r.Samples = append(r.Samples, Sample{OffsetMs: offsetMs, Score: state.FormScore, InPosition: state.InPosition})
}

// AddEvent records an emitted feedback event.
func (r *Run) AddEvent(fb model.FormFeedback) {
	r.Events = append(r.Events, fb)
}

// Scores returns the sample scores as floats.
func (r Run) Scores() []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = float64(s.Score)
	}
	return out
}

// Summary holds aggregate figures for a run.
type Summary struct {
	Frames        int
	Classified    int
	InPositionPct float64
	MeanScore     float64
	StdDev        float64
	MedianScore   float64
	MinScore      float64
	MaxScore      float64
	Events        int
	ByCategory    map[model.Category]int
	TotalReps     int
	GoodReps      int
	FormAccuracy  int
}

// Summarize computes score statistics and event counts.
func Summarize(r Run) Summary {
	s := Summary{
		Frames:       r.Frames,
		Classified:   len(r.Samples),
		Events:       len(r.Events),
		ByCategory:   map[model.Category]int{},
		TotalReps:    r.Session.TotalReps,
		GoodReps:     r.Session.GoodReps,
		FormAccuracy: session.FormAccuracy(r.Session),
	}
	for _, ev := range r.Events {
		s.ByCategory[ev.Category]++
	}
	if len(r.Samples) == 0 {
		return s
	}

	scores := r.Scores()
	inPosition := 0
	for _, sample := range r.Samples {
		if sample.InPosition {
			inPosition++
		}
	}
	s.InPositionPct = float64(inPosition) / float64(len(r.Samples)) * 100
	s.MeanScore = stat.Mean(scores, nil)
	if len(scores) > 1 {
		s.StdDev = stat.StdDev(scores, nil)
	}
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)
	s.MedianScore = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	s.MinScore = sorted[0]
	s.MaxScore = sorted[len(sorted)-1]
	return s
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints the summary block for a run.
func RenderSummary(w io.Writer, r Run) error {
	s := Summarize(r)
	lines := []string{
		fmt.Sprintf("Summary (%s)", r.Exercise),
		fmt.Sprintf("Frames: %d (classified %d)", s.Frames, s.Classified),
	}
	if s.Classified > 0 {
		lines = append(lines,
			fmt.Sprintf("In position: %.1f%%", s.InPositionPct),
			fmt.Sprintf("Score: mean %.1f, median %.0f, stddev %.1f, range %.0f-%.0f",
				s.MeanScore, s.MedianScore, s.StdDev, s.MinScore, s.MaxScore),
			"Trend: "+Sparkline(MovingAverage(r.Scores(), 5)),
		)
	}
	lines = append(lines,
		fmt.Sprintf("Feedback: %d (good %d, warning %d, error %d)",
			s.Events, s.ByCategory[model.Good], s.ByCategory[model.Warning], s.ByCategory[model.Error]),
		fmt.Sprintf("Reps: %d good / %d total", s.GoodReps, s.TotalReps),
		fmt.Sprintf("Form accuracy: %d%%", s.FormAccuracy),
		"",
	)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
