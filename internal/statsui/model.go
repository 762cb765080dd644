// Package statsui provides the Bubble Tea browser for recorded takes.
package statsui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/formcoach/internal/coach"
	"github.com/verte-zerg/formcoach/internal/engine"
	"github.com/verte-zerg/formcoach/internal/model"
	"github.com/verte-zerg/formcoach/internal/session"
	"github.com/verte-zerg/formcoach/internal/stats"
	"github.com/verte-zerg/formcoach/internal/store"
)

const (
	tabTakes = iota
	tabAnalysis
)

const (
	plotHeight    = 10
	defaultWindow = 5
	idColumnWidth = 8
)

var (
	boxStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	activeNavStyle = boxStyle.
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = boxStyle.Foreground(lipgloss.Color("#B0B0B0"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Config selects which takes are listed and how they are analyzed.
type Config struct {
	// Exercise filters the list; empty lists every take.
	Exercise model.Exercise
	// Coach is the personality used for replays; empty uses the default.
	Coach string
	// Window is the moving-average window of the score plot.
	Window int
	// Interval spaces frames that carry no offsets.
	Interval time.Duration
	// EngineOptions are applied to every replay.
	EngineOptions []engine.Option
}

// Model implements the Bubble Tea takes browser.
type Model struct {
	store *store.Store
	cfg   Config

	takes  []store.Take
	errMsg string
	notice string

	tabs      []string
	activeTab int
	viewport  viewport.Model
	takeTable table.Model

	analyzed *store.Take
	run      stats.Run

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string

	confirmDelete bool
}

// NewModel constructs a takes browser.
func NewModel(st *store.Store, cfg Config) *Model {
	if cfg.Window < 1 {
		cfg.Window = defaultWindow
	}
	cfg.Coach = coach.Resolve(cfg.Coach).ID
	m := &Model{
		store:    st,
		cfg:      cfg,
		tabs:     []string{"Takes", "Analysis"},
		viewport: viewport.New(0, 0),
	}
	m.initInputs()
	m.takeTable = buildTakeTable(nil, 80, 10)
	m.refreshTakes()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderAnalysis()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.filterMode && msg.String() == "q") {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if m.confirmDelete {
			return m.updateConfirm(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "/":
			return m.startFilter()
		case "enter":
			if m.activeTab == tabTakes {
				m.analyzeSelected()
			}
			return m, nil
		case "d":
			if m.activeTab == tabTakes && len(m.takes) > 0 {
				m.confirmDelete = true
			}
			return m, nil
		case "=":
			m.cfg.Window++
			m.renderAnalysis()
			return m, nil
		case "-":
			if m.cfg.Window > 1 {
				m.cfg.Window--
			}
			m.renderAnalysis()
			return m, nil
		case "g", "home":
			if m.activeTab == tabTakes {
				m.takeTable.GotoTop()
			} else {
				m.viewport.GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabTakes {
				m.takeTable.GotoBottom()
			} else {
				m.viewport.GotoBottom()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if m.activeTab == tabTakes {
				m.takeTable, cmd = m.takeTable.Update(msg)
				return m, cmd
			}
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Exercise: "),
		newFilterInput("Coach: "),
		newFilterInput("Window: "),
	}
	m.filterInputs[0].Placeholder = "any"
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	m.filterInputs[0].SetValue(string(m.cfg.Exercise))
	m.filterInputs[1].SetValue(m.cfg.Coach)
	m.filterInputs[2].SetValue(strconv.Itoa(m.cfg.Window))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && (m.errMsg != "" || m.notice != "") {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.viewport.Width = m.width
	m.viewport.Height = bodyHeight
	m.takeTable.SetWidth(m.width)
	m.takeTable.SetColumns(takeColumns(m.width))
	m.takeTable.SetHeight(max(1, bodyHeight-1))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabTakes {
		m.takeTable.Focus()
	} else {
		m.takeTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	exercise := string(m.cfg.Exercise)
	if exercise == "" {
		exercise = "any"
	}
	summary := fmt.Sprintf("Settings: exercise=%s  coach=%s  window=%d  takes=%d", exercise, m.cfg.Coach, m.cfg.Window, len(m.takes))
	return headerStyle.Render(runewidth.Truncate(summary, m.width, "…"))
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Move: up/down  Analyze: enter  Delete: d  Settings: /  Quit: q"
	if m.activeTab == tabAnalysis {
		help = "Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Settings: /  Quit: q"
	}
	return headerStyle.Render(help)
}

func (m *Model) renderFooter() string {
	switch {
	case m.filterMode:
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	case m.confirmDelete:
		return errorStyle.Render(fmt.Sprintf("Delete take %s? y/n", m.selectedTakeLabel()))
	case m.errMsg != "":
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	case m.notice != "":
		return m.renderHelp() + "\n" + headerStyle.Render(m.notice)
	}
	return m.renderHelp()
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if m.activeTab == tabTakes {
		if len(m.takes) == 0 {
			return fitLines("No takes found. Record one with: formcoach record <frames.jsonl>", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.takeTable.View()), m.width, height)
	}
	return fitLines(m.viewport.View(), m.width, height)
}

func (m *Model) refreshTakes() {
	takes, err := m.store.ListTakes(context.Background(), m.cfg.Exercise)
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to list takes: %v", err)
		return
	}
	m.errMsg = ""
	m.takes = takes
	m.takeTable.SetRows(takeRows(takes))
	if cursorPos := m.takeTable.Cursor(); cursorPos >= len(takes) && len(takes) > 0 {
		m.takeTable.SetCursor(len(takes) - 1)
	}
}

func (m *Model) selectedTake() (store.Take, bool) {
	idx := m.takeTable.Cursor()
	if idx < 0 || idx >= len(m.takes) {
		return store.Take{}, false
	}
	return m.takes[idx], true
}

func (m *Model) selectedTakeLabel() string {
	take, ok := m.selectedTake()
	if !ok {
		return ""
	}
	return shortID(take.ID)
}

func (m *Model) analyzeSelected() {
	meta, ok := m.selectedTake()
	if !ok {
		return
	}
	take, err := m.store.GetTake(context.Background(), meta.ID)
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load take: %v", err)
		return
	}
	m.errMsg = ""
	m.analyzed = &take
	m.run = engine.Replay(take.Frames, take.Exercise, m.cfg.Coach, m.cfg.Interval, m.cfg.EngineOptions...)
	m.notice = fmt.Sprintf("Analyzed %s with %s", shortID(take.ID), m.cfg.Coach)
	m.activeTab = tabAnalysis
	m.takeTable.Blur()
	m.renderAnalysis()
}

func (m *Model) renderAnalysis() {
	if m.analyzed == nil {
		m.viewport.SetContent("Select a take and press enter to analyze it.")
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewport.SetContent(renderAnalysis(*m.analyzed, m.run, m.cfg.Window, width))
}

func renderAnalysis(take store.Take, run stats.Run, window, width int) string {
	title := cardValueStyle.Render(fmt.Sprintf("%s (%s, %s)", displayName(take), take.Exercise, shortID(take.ID)))
	parts := []string{title, renderSummaryCards(run, width)}

	var buf bytes.Buffer
	if len(run.Samples) > 0 {
		plotWidth := stats.PlotWidthFor(width)
		if err := stats.PlotScores(&buf, fmt.Sprintf("Form score (moving avg %d)", window), stats.MovingAverage(run.Scores(), window), plotWidth, plotHeight, true); err != nil {
			return fmt.Sprintf("Failed to render scores: %v", err)
		}
	} else {
		buf.WriteString("No classified frames.\n\n")
	}
	if err := stats.RenderIssues(&buf, run.Events, 5); err != nil {
		return fmt.Sprintf("Failed to render issues: %v", err)
	}
	if err := stats.RenderEvents(&buf, run.Events, 0); err != nil {
		return fmt.Sprintf("Failed to render feedback: %v", err)
	}
	parts = append(parts, strings.TrimRight(buf.String(), "\n"))
	return strings.Join(parts, "\n\n")
}

func renderSummaryCards(run stats.Run, width int) string {
	s := stats.Summarize(run)
	cards := []string{
		metricCard("Frames", fmt.Sprintf("%d", s.Frames)),
		metricCard("Mean score", fmt.Sprintf("%.1f", s.MeanScore)),
		metricCard("In position", fmt.Sprintf("%.0f%%", s.InPositionPct)),
		metricCard("Feedback", fmt.Sprintf("%d", s.Events)),
		metricCard("Accuracy", fmt.Sprintf("%d%%", session.FormAccuracy(run.Session))),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return boxStyle.Render(content)
}

func takeColumns(width int) []table.Column {
	columns := []table.Column{
		{Title: "ID", Width: idColumnWidth},
		{Title: "Name"},
		{Title: "Exercise", Width: 12},
		{Title: "Frames", Width: 7},
		{Title: "Duration", Width: 9},
		{Title: "Recorded", Width: 16},
	}
	used := 0
	for _, c := range columns {
		used += c.Width + 1
	}
	columns[1].Width = max(10, width-used-1)
	return columns
}

func takeRows(takes []store.Take) []table.Row {
	rows := make([]table.Row, 0, len(takes))
	for _, take := range takes {
		rows = append(rows, table.Row{
			shortID(take.ID),
			displayName(take),
			string(take.Exercise),
			fmt.Sprintf("%d", take.FrameCount),
			fmt.Sprintf("%.1fs", float64(take.DurationMs)/1000),
			take.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

func buildTakeTable(takes []store.Take, width, height int) table.Model {
	t := table.New(
		table.WithColumns(takeColumns(width)),
		table.WithRows(takeRows(takes)),
		table.WithHeight(max(1, height-1)),
		table.WithFocused(true),
	)
	t.SetWidth(width)
	t.SetStyles(takeTableStyles())
	return t
}

func takeTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshTakes()
		m.updateLayout()
		if m.analyzed != nil {
			m.run = engine.Replay(m.analyzed.Frames, m.analyzed.Exercise, m.cfg.Coach, m.cfg.Interval, m.cfg.EngineOptions...)
		}
		m.renderAnalysis()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	exerciseInput := strings.TrimSpace(m.filterInputs[0].Value())
	var exercise model.Exercise
	if exerciseInput != "" && exerciseInput != "any" {
		exercise = model.ParseExercise(exerciseInput)
		if exercise == model.Squat && exerciseInput != string(model.Squat) {
			return fmt.Errorf("invalid exercise (use one of %s)", exerciseList())
		}
	}

	coachInput := strings.TrimSpace(m.filterInputs[1].Value())
	if coachInput != "" {
		if _, ok := coach.Lookup(coachInput); !ok {
			return fmt.Errorf("invalid coach %q", coachInput)
		}
	}

	windowInput := strings.TrimSpace(m.filterInputs[2].Value())
	window := defaultWindow
	if windowInput != "" {
		parsed, err := strconv.Atoi(windowInput)
		if err != nil || parsed < 1 {
			return fmt.Errorf("invalid window (use integer >= 1)")
		}
		window = parsed
	}

	m.cfg.Exercise = exercise
	m.cfg.Coach = coach.Resolve(coachInput).ID
	m.cfg.Window = window
	return nil
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.confirmDelete = false
	if msg.String() != "y" {
		return m, nil
	}
	take, ok := m.selectedTake()
	if !ok {
		return m, nil
	}
	if err := m.store.DeleteTake(context.Background(), take.ID); err != nil {
		if errors.Is(err, store.ErrTakeNotFound) {
			m.errMsg = "take no longer exists"
		} else {
			m.errMsg = fmt.Sprintf("failed to delete take: %v", err)
		}
		return m, nil
	}
	if m.analyzed != nil && m.analyzed.ID == take.ID {
		m.analyzed = nil
		m.run = stats.Run{}
		m.renderAnalysis()
	}
	m.notice = "Deleted take " + shortID(take.ID)
	m.refreshTakes()
	return m, nil
}

func exerciseList() string {
	names := make([]string, len(model.Exercises))
	for i, ex := range model.Exercises {
		names[i] = string(ex)
	}
	return strings.Join(names, ", ")
}

func displayName(take store.Take) string {
	if take.Name != "" {
		return take.Name
	}
	if take.Source != "" {
		return take.Source
	}
	return "untitled"
}

func shortID(id string) string {
	if len(id) <= idColumnWidth {
		return id
	}
	return id[:idColumnWidth]
}

// fitLines pads every line to width and clips or fills to exactly height
// lines so the frame never shifts between renders.
func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(padLines(s, width), "\n")
	blank := strings.Repeat(" ", width)
	for len(lines) < height {
		lines = append(lines, blank)
	}
	return strings.Join(lines[:height], "\n")
}

func padLines(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if gap := width - lipgloss.Width(line); gap > 0 {
			lines[i] = line + strings.Repeat(" ", gap)
		}
	}
	return strings.Join(lines, "\n")
}
