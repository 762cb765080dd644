// Package main provides the CLI entrypoint for formcoach.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/formcoach/internal/coach"
	"github.com/verte-zerg/formcoach/internal/config"
	"github.com/verte-zerg/formcoach/internal/engine"
	"github.com/verte-zerg/formcoach/internal/form"
	"github.com/verte-zerg/formcoach/internal/frames"
	"github.com/verte-zerg/formcoach/internal/model"
	"github.com/verte-zerg/formcoach/internal/stats"
	"github.com/verte-zerg/formcoach/internal/store"
	"github.com/verte-zerg/formcoach/internal/timeutil"
	"github.com/verte-zerg/formcoach/internal/timing"
	"github.com/verte-zerg/formcoach/internal/tui"
)

const (
	defaultExercise      = model.Squat
	defaultCooldownMs    = 3000
	defaultIntervalMs    = 100
	defaultMinVisibility = 0.0
	defaultWindow        = 5
	defaultTopIssues     = 5
)

// coachingFlags are shared by every command that runs the engine.
type coachingFlags struct {
	exercise      string
	coach         string
	cooldownMs    int
	intervalMs    int
	minVisibility float64
	personalize   bool
	seed          int64
}

var (
	analyzeFlags   coachingFlags
	analyzeWindow  int
	analyzeEvents  string
	watchFlags     coachingFlags
	watchTake      string
	watchPlain     bool
	watchNoStart   bool
	watchWindow    int
	chartFlags     coachingFlags
	chartTake      string
	chartOut       string
	chartWindow    int
	coachesSamples bool
	configPaths    bool
	verbose        bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "formcoach",
		Short:         "Real-time exercise form coach over pose landmarks",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if verbose {
				store.SetLogOutput(os.Stderr)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log database migrations to stderr")

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newChartCmd())
	rootCmd.AddCommand(newRecordCmd())
	rootCmd.AddCommand(newTakesCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newCoachesCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addCoachingFlags(cmd *cobra.Command, f *coachingFlags) {
	cmd.Flags().StringVar(&f.exercise, "exercise", string(defaultExercise), "exercise ("+exerciseList()+")")
	cmd.Flags().StringVar(&f.coach, "coach", coach.DefaultID, "coach personality ("+coachList()+")")
	cmd.Flags().IntVar(&f.cooldownMs, "cooldown-ms", defaultCooldownMs, "minimum gap between feedback events")
	cmd.Flags().IntVar(&f.intervalMs, "interval-ms", defaultIntervalMs, "pacing between frames")
	cmd.Flags().Float64Var(&f.minVisibility, "min-visibility", defaultMinVisibility, "drop landmarks below this visibility (0-1)")
	cmd.Flags().BoolVar(&f.personalize, "personalize", true, "rewrite feedback in the coach's voice")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "seed for message selection (0 picks a random seed)")
}

// resolveCoaching merges the config file into unchanged flags, validates the
// result and builds the engine options.
func resolveCoaching(cmd *cobra.Command, f *coachingFlags) (model.Config, []engine.Option, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, nil, fmt.Errorf("failed to load config: %w", err)
	}
	c := fileCfg.Coaching
	applyStringConfig(cmd, "exercise", &f.exercise, c.Exercise)
	applyStringConfig(cmd, "coach", &f.coach, c.Coach)
	applyIntConfig(cmd, "cooldown-ms", &f.cooldownMs, c.CooldownMs)
	applyIntConfig(cmd, "interval-ms", &f.intervalMs, c.IntervalMs)
	applyFloatConfig(cmd, "min-visibility", &f.minVisibility, c.MinVisibility)
	applyBoolConfig(cmd, "personalize", &f.personalize, c.Personalize)

	cfg := model.Config{
		Exercise:      model.Exercise(f.exercise),
		Coach:         f.coach,
		Cooldown:      time.Duration(f.cooldownMs) * time.Millisecond,
		FrameInterval: time.Duration(f.intervalMs) * time.Millisecond,
		MinVisibility: f.minVisibility,
		Personalize:   f.personalize,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, nil, err
	}

	overrides, err := fileCfg.Overrides()
	if err != nil {
		return model.Config{}, nil, fmt.Errorf("invalid config: %w", err)
	}
	scripts, err := fileCfg.Scripts()
	if err != nil {
		return model.Config{}, nil, fmt.Errorf("invalid config: %w", err)
	}
	if c.BuiltinTimeline == nil || *c.BuiltinTimeline {
		scripts = append(scripts, timing.DefaultScripts()...)
	}

	opts := []engine.Option{
		engine.WithPolicy(timing.Policy{Cooldown: cfg.Cooldown, Scripts: scripts}),
		engine.WithDispatcher(form.NewDispatcher(form.WithOverrides(overrides))),
		engine.WithFilter(frames.MinVisibility(cfg.MinVisibility)),
	}
	if cfg.Personalize {
		picker := coach.NewPicker()
		if f.seed != 0 {
			picker = coach.NewSeededPicker(f.seed)
		}
		opts = append(opts, engine.WithPicker(picker))
	}
	return cfg, opts, nil
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <frames.jsonl>",
		Short: "Analyze a landmark recording offline",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyzeCmd,
	}
	addCoachingFlags(cmd, &analyzeFlags)
	cmd.Flags().IntVar(&analyzeWindow, "window", defaultWindow, "moving average window for the score plot")
	cmd.Flags().StringVar(&analyzeEvents, "events", "", "also write emitted feedback as JSON lines to this path")
	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg, opts, err := resolveCoaching(cmd, &analyzeFlags)
	if err != nil {
		return err
	}
	if analyzeWindow < 1 {
		return fmt.Errorf("--window must be >= 1")
	}
	recording, err := frames.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to load frames: %w", err)
	}
	run := engine.Replay(recording, cfg.Exercise, cfg.Coach, cfg.FrameInterval, opts...)
	if analyzeEvents != "" {
		if err := writeEvents(analyzeEvents, run.Events); err != nil {
			return err
		}
	}
	return printReport(cmd.OutOrStdout(), run, analyzeWindow)
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [frames.jsonl]",
		Short: "Play a recording through the live coaching HUD",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWatchCmd,
	}
	addCoachingFlags(cmd, &watchFlags)
	cmd.Flags().StringVar(&watchTake, "take", "", "play a stored take instead of a file")
	cmd.Flags().BoolVar(&watchPlain, "plain", false, "print feedback lines instead of the HUD")
	cmd.Flags().BoolVar(&watchNoStart, "no-start", false, "wait for s before opening the workout")
	cmd.Flags().IntVar(&watchWindow, "window", defaultWindow, "moving average window for the final report")
	return cmd
}

func runWatchCmd(cmd *cobra.Command, args []string) error {
	cfg, opts, err := resolveCoaching(cmd, &watchFlags)
	if err != nil {
		return err
	}
	if watchWindow < 1 {
		return fmt.Errorf("--window must be >= 1")
	}
	recording, exercise, err := loadRecording(cmd, args, watchTake)
	if err != nil {
		return err
	}
	if exercise != "" {
		cfg.Exercise = exercise
	}

	if watchPlain {
		return runPlainWatch(cmd.OutOrStdout(), recording, cfg, opts)
	}

	eng := engine.New(cfg.Exercise, cfg.Coach, opts...)
	hud := tui.NewModel(eng, frames.NewSliceSource(recording), tui.Options{
		Interval:  cfg.FrameInterval,
		AutoStart: !watchNoStart,
	})
	program := tea.NewProgram(hud, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return printReport(cmd.OutOrStdout(), hud.Run(), watchWindow)
}

// runPlainWatch paces the recording in real time and prints each emitted
// event as it happens.
func runPlainWatch(w io.Writer, recording []model.Frame, cfg model.Config, opts []engine.Option) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	clock := timeutil.RealClock{}
	run := stats.Run{Exercise: cfg.Exercise, Coach: coach.Resolve(cfg.Coach).ID}
	var origin time.Time
	eng := engine.New(cfg.Exercise, cfg.Coach, append(append([]engine.Option(nil), opts...),
		engine.WithClock(clock),
		engine.WithHandler(func(fb model.FormFeedback, s model.WorkoutSession) {
			elapsed := time.UnixMilli(fb.Timestamp).Sub(origin).Seconds()
			marker := ""
			if fb.Scripted {
				marker = " *"
			}
			if _, err := fmt.Fprintf(w, "[%5.1fs] %-7s %3d  %s%s\n", elapsed, fb.Category, fb.Score, fb.Message, marker); err != nil {
				logErrf("failed to write feedback: %v\n", err)
			}
		}),
	)...)
	origin = eng.Start().StartTime

	player := frames.NewPlayer(clock, cfg.FrameInterval)
	err := player.Play(ctx, frames.NewSliceSource(recording), func(frame model.Frame) {
		out := eng.ProcessNow(frame)
		run.Observe(frame.OffsetMs, out.Classified, out.State)
		if out.Emitted {
			run.AddEvent(out.Feedback)
		}
	})
	if s, ok := eng.Stop(); ok {
		run.Session = s
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to play frames: %w", err)
	}
	if _, werr := fmt.Fprintln(w); werr != nil {
		return werr
	}
	return stats.RenderSummary(w, run)
}

func newChartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart [frames.jsonl]",
		Short: "Write an HTML chart of a recording's form scores",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runChartCmd,
	}
	addCoachingFlags(cmd, &chartFlags)
	cmd.Flags().StringVar(&chartTake, "take", "", "chart a stored take instead of a file")
	cmd.Flags().StringVarP(&chartOut, "out", "o", "", "output HTML path (default under the data directory)")
	cmd.Flags().IntVar(&chartWindow, "window", defaultWindow, "moving average window")
	return cmd
}

func runChartCmd(cmd *cobra.Command, args []string) error {
	cfg, opts, err := resolveCoaching(cmd, &chartFlags)
	if err != nil {
		return err
	}
	if chartWindow < 1 {
		return fmt.Errorf("--window must be >= 1")
	}
	recording, exercise, err := loadRecording(cmd, args, chartTake)
	if err != nil {
		return err
	}
	if exercise != "" {
		cfg.Exercise = exercise
	}
	run := engine.Replay(recording, cfg.Exercise, cfg.Coach, cfg.FrameInterval, opts...)

	title := chartTitle(args, chartTake, cfg.Exercise)
	outPath := chartOut
	if outPath == "" {
		outPath = filepath.Join(config.DefaultChartDir(), fmt.Sprintf("%s-%s.html", cfg.Exercise, time.Now().Format("20060102-150405")))
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}
	file, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create chart: %w", err)
	}
	if err := stats.RenderScoreChart(file, title, run, chartWindow); err != nil {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close on render failure.
			_ = cerr
		}
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	logErrf("Wrote %s\n", outPath)
	return nil
}

func newCoachesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coaches",
		Short: "List coach personalities",
		Args:  cobra.NoArgs,
		RunE:  runCoachesCmd,
	}
	cmd.Flags().BoolVar(&coachesSamples, "samples", false, "show every message template")
	return cmd
}

func runCoachesCmd(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	for _, c := range coach.All() {
		if _, err := fmt.Fprintf(w, "%-11s %s %s: %s\n", c.ID, c.Emoji, c.Name, c.Description); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if !coachesSamples {
			continue
		}
		for _, category := range []model.Category{model.Good, model.Warning, model.Error} {
			for _, msg := range coach.Messages(c.ID, category) {
				if _, err := fmt.Fprintf(w, "    %-7s %s\n", category, msg); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
			}
		}
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
	cmd.Flags().BoolVar(&configPaths, "paths", false, "print file locations and the database schema version instead of editing")
	return cmd
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	if configPaths {
		return printPaths(cmd.OutOrStdout(), config.DefaultConfigPath(), config.DefaultDBPath())
	}
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	ed := exec.Command(parts[0], append(parts[1:], path)...)
	ed.Stdin = os.Stdin
	ed.Stdout = os.Stdout
	ed.Stderr = os.Stderr
	if err := ed.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// printPaths opens (and migrates) the database at dbPath so the reported
// schema version is the one the other commands will see.
func printPaths(w io.Writer, configPath, dbPath string) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	version, dirty, err := st.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	_, err = fmt.Fprintf(w, "config   %s\ndatabase %s\nschema   v%d (%s)\n", configPath, dbPath, version, state)
	return err
}

func printReport(w io.Writer, run stats.Run, window int) error {
	if err := stats.RenderSummary(w, run); err != nil {
		return err
	}
	if err := stats.PlotScores(w, fmt.Sprintf("Form score (moving avg %d)", window), stats.MovingAverage(run.Scores(), window), 0, 0, false); err != nil {
		return err
	}
	if err := stats.RenderIssues(w, run.Events, defaultTopIssues); err != nil {
		return err
	}
	origin := int64(0)
	if !run.Session.StartTime.IsZero() {
		origin = run.Session.StartTime.UnixMilli()
	}
	return stats.RenderEvents(w, run.Events, origin)
}

func writeEvents(path string, events []model.FormFeedback) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create events file: %w", err)
	}
	enc := json.NewEncoder(file)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			if cerr := file.Close(); cerr != nil {
				// Best-effort close on encode failure.
				_ = cerr
			}
			return fmt.Errorf("failed to write events: %w", err)
		}
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write events: %w", err)
	}
	return nil
}

func chartTitle(args []string, takeID string, ex model.Exercise) string {
	switch {
	case takeID != "":
		return fmt.Sprintf("Take %s (%s)", takeID, ex)
	case len(args) == 1:
		return fmt.Sprintf("%s (%s)", filepath.Base(args[0]), ex)
	default:
		return string(ex)
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# formcoach configuration
# Uncomment a value to enable it. CLI flags override config values.

[coaching]
# exercise = %q          # One of: %s
# coach = %q         # One of: %s
# cooldown-ms = %d         # Minimum gap between feedback events
# interval-ms = %d          # Pacing between frames
# min-visibility = %.1f       # Drop landmarks below this visibility (0-1)
# personalize = true        # Rewrite feedback in the coach's voice
# builtin-timeline = true   # Keep the bundled lunge timeline

# Tune a classifier rule: [rules.<exercise>.<rule>]
# [rules.squat.depth]
# threshold = 0.1
# penalty = 30

# Scripted feedback for an exercise and coach pairing.
# [[timeline]]
# exercise = "plank"
# coach = "gym-mom"
# catch-up = true
#
# [[timeline.marks]]
# at = 10
# category = "good"
# message = "Ten seconds, keep breathing"
`,
		defaultExercise, exerciseList(),
		coach.DefaultID, coachList(),
		defaultCooldownMs,
		defaultIntervalMs,
		defaultMinVisibility,
	)
}

func validateConfig(cfg model.Config) error {
	if !validExercise(string(cfg.Exercise)) {
		return fmt.Errorf("--exercise must be one of %s", exerciseList())
	}
	if _, ok := coach.Lookup(cfg.Coach); !ok {
		return fmt.Errorf("--coach must be one of %s", coachList())
	}
	if cfg.Cooldown <= 0 {
		return fmt.Errorf("--cooldown-ms must be > 0")
	}
	if cfg.FrameInterval <= 0 {
		return fmt.Errorf("--interval-ms must be > 0")
	}
	if cfg.MinVisibility < 0 || cfg.MinVisibility > 1 {
		return fmt.Errorf("--min-visibility must be between 0 and 1")
	}
	return nil
}

func validExercise(name string) bool {
	for _, ex := range model.Exercises {
		if string(ex) == name {
			return true
		}
	}
	return false
}

func exerciseList() string {
	names := make([]string, len(model.Exercises))
	for i, ex := range model.Exercises {
		names[i] = string(ex)
	}
	return strings.Join(names, ", ")
}

func coachList() string {
	all := coach.All()
	ids := make([]string, len(all))
	for i, c := range all {
		ids[i] = c.ID
	}
	return strings.Join(ids, ", ")
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
