package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/formcoach/internal/config"
	"github.com/verte-zerg/formcoach/internal/engine"
	"github.com/verte-zerg/formcoach/internal/frames"
	"github.com/verte-zerg/formcoach/internal/model"
	"github.com/verte-zerg/formcoach/internal/statsui"
	"github.com/verte-zerg/formcoach/internal/store"
)

const takeNameWidth = 28

var (
	recordName     string
	recordExercise string

	takesFlags    coachingFlags
	takesWindow   int
	takesListKind string

	replayFlags  coachingFlags
	replayWindow int
)

func openStore() (*store.Store, func(), error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	closeFn := func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}
	return st, closeFn, nil
}

// loadRecording reads frames from a file argument or a stored take. The
// take's exercise is returned unless --exercise was given explicitly.
func loadRecording(cmd *cobra.Command, args []string, takeID string) ([]model.Frame, model.Exercise, error) {
	switch {
	case takeID != "" && len(args) > 0:
		return nil, "", fmt.Errorf("pass either a frames file or --take, not both")
	case takeID != "":
		st, closeFn, err := openStore()
		if err != nil {
			return nil, "", err
		}
		defer closeFn()
		take, err := st.GetTake(context.Background(), takeID)
		if err != nil {
			return nil, "", takeError(takeID, err)
		}
		if cmd.Flags().Changed("exercise") {
			return take.Frames, "", nil
		}
		return take.Frames, take.Exercise, nil
	case len(args) == 1:
		recording, err := frames.LoadFile(args[0])
		if err != nil {
			return nil, "", fmt.Errorf("failed to load frames: %w", err)
		}
		return recording, "", nil
	default:
		return nil, "", fmt.Errorf("a frames file or --take is required")
	}
}

func takeError(id string, err error) error {
	switch {
	case errors.Is(err, store.ErrTakeNotFound):
		return fmt.Errorf("take %s not found (list takes with: formcoach takes list)", id)
	case errors.Is(err, store.ErrAmbiguousID):
		return fmt.Errorf("take id %s matches several takes, use more characters", id)
	default:
		return fmt.Errorf("failed to load take: %w", err)
	}
}

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <frames.jsonl>",
		Short: "Store a landmark recording as a take",
		Args:  cobra.ExactArgs(1),
		RunE:  runRecordCmd,
	}
	cmd.Flags().StringVar(&recordName, "name", "", "take name (default: file name)")
	cmd.Flags().StringVar(&recordExercise, "exercise", string(defaultExercise), "exercise performed in the take")
	return cmd
}

func runRecordCmd(cmd *cobra.Command, args []string) error {
	if !validExercise(recordExercise) {
		return fmt.Errorf("--exercise must be one of %s", exerciseList())
	}
	recording, err := frames.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to load frames: %w", err)
	}
	name := recordName
	if name == "" {
		name = filepath.Base(args[0])
	}
	source, err := filepath.Abs(args[0])
	if err != nil {
		source = args[0]
	}

	st, closeFn, err := openStore()
	if err != nil {
		return err
	}
	defer closeFn()
	id, err := st.InsertTake(context.Background(), store.Take{
		Name:     name,
		Exercise: model.Exercise(recordExercise),
		Source:   source,
		Frames:   recording,
	})
	if err != nil {
		return fmt.Errorf("failed to save take: %w", err)
	}
	logErrf("Stored %d frames as take %s\n", len(recording), id[:8])
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), id); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newTakesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "takes",
		Short: "Browse stored takes",
		Args:  cobra.NoArgs,
		RunE:  runTakesCmd,
	}
	addCoachingFlags(cmd, &takesFlags)
	cmd.Flags().IntVar(&takesWindow, "window", defaultWindow, "moving average window for the score plot")
	cmd.AddCommand(newTakesListCmd())
	cmd.AddCommand(newTakesDeleteCmd())
	cmd.AddCommand(newTakesExportCmd())
	return cmd
}

func runTakesCmd(cmd *cobra.Command, _ []string) error {
	cfg, opts, err := resolveCoaching(cmd, &takesFlags)
	if err != nil {
		return err
	}
	if takesWindow < 1 {
		return fmt.Errorf("--window must be >= 1")
	}
	st, closeFn, err := openStore()
	if err != nil {
		return err
	}
	defer closeFn()

	// The list starts unfiltered unless an exercise was asked for.
	var filter model.Exercise
	if cmd.Flags().Changed("exercise") {
		filter = cfg.Exercise
	}
	browser := statsui.NewModel(st, statsui.Config{
		Exercise:      filter,
		Coach:         cfg.Coach,
		Window:        takesWindow,
		Interval:      cfg.FrameInterval,
		EngineOptions: opts,
	})
	program := tea.NewProgram(browser, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run takes TUI: %w", err)
	}
	return nil
}

func newTakesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored takes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if takesListKind != "" && !validExercise(takesListKind) {
				return fmt.Errorf("--exercise must be one of %s", exerciseList())
			}
			st, closeFn, err := openStore()
			if err != nil {
				return err
			}
			defer closeFn()
			takes, err := st.ListTakes(context.Background(), model.Exercise(takesListKind))
			if err != nil {
				return fmt.Errorf("failed to list takes: %w", err)
			}
			if len(takes) == 0 {
				logErrln("No takes found. Record one with: formcoach record <frames.jsonl>")
				return nil
			}
			w := cmd.OutOrStdout()
			for _, take := range takes {
				name := runewidth.FillRight(runewidth.Truncate(take.Name, takeNameWidth, "…"), takeNameWidth)
				if _, err := fmt.Fprintf(w, "%s  %s  %-12s %6d frames  %6.1fs  %s\n",
					take.ID[:8], name, take.Exercise, take.FrameCount,
					float64(take.DurationMs)/1000, take.CreatedAt.Local().Format("2006-01-02 15:04")); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&takesListKind, "exercise", "", "only takes of this exercise")
	return cmd
}

func newTakesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <take-id>",
		Short: "Delete a stored take",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			st, closeFn, err := openStore()
			if err != nil {
				return err
			}
			defer closeFn()
			if err := st.DeleteTake(context.Background(), args[0]); err != nil {
				return takeError(args[0], err)
			}
			logErrf("Deleted take %s\n", args[0])
			return nil
		},
	}
}

func newTakesExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <take-id> [out.jsonl]",
		Short: "Write a stored take back to JSON lines",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := openStore()
			if err != nil {
				return err
			}
			defer closeFn()
			take, err := st.GetTake(context.Background(), args[0])
			if err != nil {
				return takeError(args[0], err)
			}
			if len(args) == 1 {
				return frames.Encode(cmd.OutOrStdout(), take.Frames)
			}
			file, err := os.Create(args[1])
			if err != nil {
				return fmt.Errorf("failed to create export: %w", err)
			}
			if err := frames.Encode(file, take.Frames); err != nil {
				if cerr := file.Close(); cerr != nil {
					// Best-effort close on encode failure.
					_ = cerr
				}
				return err
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			logErrf("Wrote %d frames to %s\n", len(take.Frames), args[1])
			return nil
		},
	}
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <take-id>",
		Short: "Analyze a stored take",
		Args:  cobra.ExactArgs(1),
		RunE:  runReplayCmd,
	}
	addCoachingFlags(cmd, &replayFlags)
	cmd.Flags().IntVar(&replayWindow, "window", defaultWindow, "moving average window for the score plot")
	return cmd
}

func runReplayCmd(cmd *cobra.Command, args []string) error {
	cfg, opts, err := resolveCoaching(cmd, &replayFlags)
	if err != nil {
		return err
	}
	if replayWindow < 1 {
		return fmt.Errorf("--window must be >= 1")
	}
	recording, exercise, err := loadRecording(cmd, nil, args[0])
	if err != nil {
		return err
	}
	if exercise != "" {
		cfg.Exercise = exercise
	}
	run := engine.Replay(recording, cfg.Exercise, cfg.Coach, cfg.FrameInterval, opts...)
	return printReport(cmd.OutOrStdout(), run, replayWindow)
}
