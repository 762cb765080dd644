package stats

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPlotScores(t *testing.T) {
	var buf bytes.Buffer
	err := PlotScores(&buf, "Form score", []float64{100, 95, 75, 45, 60, 90, 100}, 12, 5, false)
	if err != nil {
		t.Fatalf("PlotScores failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Form score") {
		t.Fatalf("expected title in output")
	}
	if !strings.Contains(out, "Legend:") {
		t.Fatalf("expected legend in output")
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no colour codes for a buffer")
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 1+5+1 {
		t.Fatalf("expected 7 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], "100") || !strings.HasPrefix(lines[5], "  0") {
		t.Fatalf("expected fixed axis labels, got %q and %q", lines[1], lines[5])
	}
	for _, line := range lines[1:6] {
		if got := utf8.RuneCountInString(line); got != axisLabelWidth+utf8.RuneCountInString(axisSeparator)+12 {
			t.Fatalf("expected plot rows of equal width, got %d in %q", got, line)
		}
	}
}

func TestPlotScoresForcedColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	var buf bytes.Buffer
	if err := PlotScores(&buf, "", []float64{100, 20}, 10, 4, true); err != nil {
		t.Fatalf("PlotScores failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, colorGood) || !strings.Contains(out, colorError) {
		t.Fatalf("expected band colours in output")
	}
}

func TestPlotScoresEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotScores(&buf, "x", nil, 10, 4, false); err != nil {
		t.Fatalf("PlotScores failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output for empty scores")
	}
}

func TestPlotWidthFor(t *testing.T) {
	axisWidth := axisLabelWidth + utf8.RuneCountInString(axisSeparator)
	if got := PlotWidthFor(80); got != 80-axisWidth {
		t.Fatalf("expected width %d, got %d", 80-axisWidth, got)
	}
	if got := PlotWidthFor(0); got != minPlotWidth {
		t.Fatalf("expected min width %d, got %d", minPlotWidth, got)
	}
}

func TestResampleSeries(t *testing.T) {
	down := resampleSeries([]float64{0, 10, 20, 30}, 2)
	if down[0] != 5 || down[1] != 25 {
		t.Fatalf("unexpected downsample %v", down)
	}
	up := resampleSeries([]float64{0, 10}, 3)
	if up[0] != 0 || up[1] != 5 || up[2] != 10 {
		t.Fatalf("unexpected upsample %v", up)
	}
}
