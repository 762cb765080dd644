// Package tui provides the Bubble Tea live coaching HUD.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/formcoach/internal/coach"
	"github.com/verte-zerg/formcoach/internal/engine"
	"github.com/verte-zerg/formcoach/internal/frames"
	"github.com/verte-zerg/formcoach/internal/model"
	"github.com/verte-zerg/formcoach/internal/session"
	"github.com/verte-zerg/formcoach/internal/stats"
	"github.com/verte-zerg/formcoach/internal/timeutil"
)

const (
	maxBarWidth   = 48
	maxToastLines = 3
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	badgeStyle   = lipgloss.NewStyle().Padding(0, 1).Bold(true)
	toastStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

type frameMsg time.Time

// Options configures the HUD.
type Options struct {
	// Interval is the pacing between two frames; non-positive uses
	// frames.DefaultInterval.
	Interval time.Duration
	// AutoStart opens a workout as soon as the HUD starts.
	AutoStart bool
	// Clock drives the elapsed time in the footer.
	Clock timeutil.Clock
}

// Model implements the Bubble Tea coaching HUD.
type Model struct {
	engine    *engine.Engine
	src       frames.Source
	total     int
	interval  time.Duration
	clock     timeutil.Clock
	autoStart bool

	keys keyMap
	help help.Model
	bar  progress.Model

	width  int
	height int

	run        stats.Run
	state      model.ExerciseState
	classified bool
	toast      model.FormFeedback
	hasToast   bool
	notice     string
	played     int
	lastOffset int64
	done       bool
}

// NewModel constructs a HUD that feeds src into eng.
func NewModel(eng *engine.Engine, src frames.Source, opts Options) *Model {
	if opts.Interval <= 0 {
		opts.Interval = frames.DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	m := &Model{
		engine:    eng,
		src:       src,
		interval:  opts.Interval,
		clock:     opts.Clock,
		autoStart: opts.AutoStart,
		keys:      defaultKeyMap(),
		help:      help.New(),
		bar:       progress.New(progress.WithSolidFill("#C89A3A"), progress.WithoutPercentage(), progress.WithWidth(maxBarWidth)),
		state:     eng.State(),
	}
	if counted, ok := src.(interface{ Len() int }); ok {
		m.total = counted.Len()
	}
	m.run = stats.Run{Exercise: m.state.Exercise, Coach: eng.Coach()}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.autoStart {
		m.engine.Start()
		m.notice = "Workout started"
	}
	return m.tick()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.bar.Width = barWidth(m.contentWidth())
		return m, nil
	case frameMsg:
		m.step()
		if m.done {
			return m, nil
		}
		return m, m.tick()
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.finish()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Pause):
		m.togglePause()
	case key.Matches(msg, m.keys.Session):
		m.toggleSession()
	case key.Matches(msg, m.keys.Photo):
		m.capturePhoto()
	case key.Matches(msg, m.keys.Exercise):
		m.selectExercise(int(msg.String()[0] - '1'))
	case key.Matches(msg, m.keys.Coach):
		m.nextCoach()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	content := m.renderBody()
	if m.width == 0 || m.height == 0 {
		return content + "\n" + m.renderFooter()
	}
	footer := m.renderFooter()
	helpLine := m.help.View(m.keys)
	if m.height < 6 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bottomHeight := lipgloss.Height(helpLine) + 1
	body := lipgloss.Place(m.width, m.height-bottomHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine + "\n" + helpLine
}

// Run returns what the HUD observed so far, including the latest session.
func (m *Model) Run() stats.Run {
	r := m.run
	r.Events = append([]model.FormFeedback(nil), m.run.Events...)
	r.Samples = append([]stats.Sample(nil), m.run.Samples...)
	if s, ok := m.engine.Session(); ok {
		r.Session = s
	}
	return r
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m *Model) step() {
	frame, ok := m.src.Next()
	if !ok {
		m.done = true
		if s, stopped := m.engine.Stop(); stopped {
			m.notice = fmt.Sprintf("Take finished: %d%% form accuracy, press q to quit", session.FormAccuracy(s))
		} else {
			m.notice = "Take finished, press q to quit"
		}
		return
	}
	m.played++
	m.lastOffset = frame.OffsetMs
	out := m.engine.ProcessNow(frame)
	m.state = out.State
	m.classified = out.Classified
	m.run.Observe(frame.OffsetMs, out.Classified, out.State)
	if out.Emitted {
		m.run.AddEvent(out.Feedback)
		m.toast = out.Feedback
		m.hasToast = true
	}
}

func (m *Model) finish() {
	if s, ok := m.engine.Session(); ok && !s.Ended() {
		m.engine.Stop()
	}
}

func (m *Model) togglePause() {
	paused := m.engine.TogglePause()
	s, ok := m.engine.Session()
	switch {
	case !ok || s.Ended():
		m.notice = "No workout running, press s to start"
	case paused:
		m.notice = "Paused"
	default:
		m.notice = "Resumed"
	}
}

func (m *Model) toggleSession() {
	if s, ok := m.engine.Session(); ok && !s.Ended() {
		final, _ := m.engine.Stop()
		m.notice = fmt.Sprintf("Workout stopped: %d reps, %d%% form accuracy", final.TotalReps, session.FormAccuracy(final))
		return
	}
	m.engine.Start()
	m.notice = "Workout started"
}

func (m *Model) capturePhoto() {
	photo, ok := m.engine.CapturePhoto(fmt.Sprintf("frame:%d", m.lastOffset))
	if !ok {
		m.notice = "Start a workout to capture photos"
		return
	}
	s, _ := m.engine.Session()
	m.notice = fmt.Sprintf("Photo %d captured (%s)", len(s.Photos), photo.ImageRef)
}

func (m *Model) selectExercise(idx int) {
	if idx < 0 || idx >= len(model.Exercises) {
		return
	}
	ex := m.engine.SetExercise(string(model.Exercises[idx]))
	m.state = m.engine.State()
	m.classified = false
	m.run.Exercise = ex
	m.notice = "Exercise: " + string(ex)
}

func (m *Model) nextCoach() {
	all := coach.All()
	current := m.engine.Coach()
	next := all[0].ID
	for i, c := range all {
		if c.ID == current {
			next = all[(i+1)%len(all)].ID
			break
		}
	}
	id := m.engine.SetCoach(next)
	m.run.Coach = id
	c := coach.Resolve(id)
	m.notice = fmt.Sprintf("Coach: %s %s", c.Emoji, c.Name)
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return maxBarWidth + 6
	}
	w := int(float64(m.width) * 0.70)
	if w < 1 {
		w = 1
	}
	return w
}

func barWidth(contentWidth int) int {
	w := contentWidth - 6
	if w > maxBarWidth {
		w = maxBarWidth
	}
	if w < 4 {
		w = 4
	}
	return w
}

func (m *Model) renderBody() string {
	width := m.contentWidth()
	c := coach.Resolve(m.engine.Coach())
	header := titleStyle.Render(string(m.state.Exercise)) + "  " +
		mutedStyle.Render(fmt.Sprintf("%s %s", c.Emoji, c.Name)) + "  " + m.renderBadge()

	lines := []string{header, ""}
	if m.classified {
		score := m.state.FormScore
		lines = append(lines,
			m.bar.ViewAs(float64(score)/100)+" "+categoryStyle(model.CategoryForScore(score)).Render(fmt.Sprintf("%3d", score)),
			mutedStyle.Render(coach.StatusLine(score)),
		)
		if !m.state.InPosition {
			lines = append(lines, mutedStyle.Render("Get into position"))
		}
	} else {
		lines = append(lines, m.bar.ViewAs(0)+mutedStyle.Render("   -"), mutedStyle.Render("Step into the frame"))
	}
	if m.hasToast {
		lines = append(lines, "", m.renderToast(width))
	}
	if m.notice != "" {
		lines = append(lines, "", mutedStyle.Render(m.notice))
	}
	return lipgloss.NewStyle().Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *Model) renderBadge() string {
	s, ok := m.engine.Session()
	switch {
	case !ok:
		return badgeStyle.Inherit(mutedStyle).Render("IDLE")
	case s.Ended():
		return badgeStyle.Inherit(mutedStyle).Render("DONE")
	case s.Paused:
		return badgeStyle.Inherit(warningStyle).Render("PAUSED")
	default:
		return badgeStyle.Inherit(goodStyle).Render("LIVE")
	}
}

func (m *Model) renderToast(width int) string {
	inner := width - 4
	if inner < 1 {
		inner = 1
	}
	text := m.toast.Message
	if m.toast.Scripted {
		text = "★ " + text
	}
	lines := clampLines(wrapMessage(text, inner), maxToastLines, inner)
	style := categoryStyle(m.toast.Category)
	for i, line := range lines {
		lines[i] = style.Render(line)
	}
	return toastStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderFooter() string {
	segments := []string{}
	if m.total > 0 {
		segments = append(segments, fmt.Sprintf("Frame %d/%d", m.played, m.total))
	} else {
		segments = append(segments, fmt.Sprintf("Frame %d", m.played))
	}
	if s, ok := m.engine.Session(); ok {
		segments = append(segments,
			fmt.Sprintf("Reps %d", s.TotalReps),
			fmt.Sprintf("Accuracy %d%%", session.FormAccuracy(s)),
			formatElapsed(session.Elapsed(s, m.clock.Now())),
		)
		if n := len(s.Photos); n > 0 {
			segments = append(segments, fmt.Sprintf("Photos %d", n))
		}
	}
	return footerStyle.Render(strings.Join(segments, " · "))
}

func categoryStyle(c model.Category) lipgloss.Style {
	switch c {
	case model.Good:
		return goodStyle
	case model.Warning:
		return warningStyle
	default:
		return errorStyle
	}
}

func formatElapsed(d time.Duration) string {
	total := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
