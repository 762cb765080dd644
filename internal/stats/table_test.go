package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Time", "Type", "Score"}
	rows := [][]string{
		{"0.0s", "good", "100"},
		{"12.3s", "warning", "75"},
	}
	rightAlign := map[int]bool{0: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != " Time Type    Score" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != " 0.0s good      100" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "12.3s warning    75" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestDisplayWidthCountsWideRunes(t *testing.T) {
	if got := displayWidth("ok 🔥"); got != 5 {
		t.Fatalf("expected width 5, got %d", got)
	}
	lines := formatTable([]string{"Msg", "N"}, [][]string{{"🔥", "1"}, {"abc", "2"}}, nil)
	if lines[1] != "🔥  1" {
		t.Fatalf("unexpected padded row %q", lines[1])
	}
}

func TestTruncateCell(t *testing.T) {
	if got := truncateCell("Keep your knees behind your toes", 10); displayWidth(got) > 10 {
		t.Fatalf("expected at most 10 cells, got %q", got)
	}
	if got := truncateCell("short", 10); got != "short" {
		t.Fatalf("unexpected truncation %q", got)
	}
}
