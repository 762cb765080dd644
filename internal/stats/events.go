package stats

import (
	"fmt"
	"io"
	"sort"

	"github.com/verte-zerg/formcoach/internal/model"
)

const messageCellWidth = 60

// IssueCount is how often a rule chose the error message.
type IssueCount struct {
	Issue string
	Count int
}

// TopIssues ranks error issues by frequency.
func TopIssues(events []model.FormFeedback, n int) []IssueCount {
	counts := map[string]int{}
	for _, ev := range events {
		if ev.Issue == "" {
			continue
		}
		counts[ev.Issue]++
	}
	items := make([]IssueCount, 0, len(counts))
	for issue, count := range counts {
		items = append(items, IssueCount{Issue: issue, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Issue < items[j].Issue
		}
		return items[i].Count > items[j].Count
	})
	if n > 0 && n < len(items) {
		items = items[:n]
	}
	return items
}

// RenderEvents prints the emitted feedback timeline. Times are relative to
// the first event's origin.
func RenderEvents(w io.Writer, events []model.FormFeedback, originMs int64) error {
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, "No feedback emitted.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Feedback"); err != nil {
		return err
	}
	headers := []string{"Time", "Type", "Score", "Message"}
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		kind := string(ev.Category)
		if ev.Scripted {
			kind += "*"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%.1fs", float64(ev.Timestamp-originMs)/1000),
			kind,
			fmt.Sprintf("%d", ev.Score),
			truncateCell(ev.Message, messageCellWidth),
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{0: true, 2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderIssues prints the most frequent error issues.
func RenderIssues(w io.Writer, events []model.FormFeedback, n int) error {
	issues := TopIssues(events, n)
	if len(issues) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Top issues"); err != nil {
		return err
	}
	rows := make([][]string, 0, len(issues))
	for _, is := range issues {
		rows = append(rows, []string{is.Issue, fmt.Sprintf("%d", is.Count)})
	}
	for _, line := range formatTable([]string{"Issue", "Count"}, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
