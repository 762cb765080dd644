// Package store handles SQLite persistence of recorded landmark takes.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/formcoach/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrTakeNotFound is returned when no take matches an id.
var ErrTakeNotFound = errors.New("take not found")

// ErrAmbiguousID is returned when an id prefix matches several takes.
var ErrAmbiguousID = errors.New("take id prefix is ambiguous")

// logOutput receives migration log lines. Nil discards them.
var logOutput io.Writer

// SetLogOutput directs migration logs to w.
func SetLogOutput(w io.Writer) {
	logOutput = w
}

func logf(format string, args ...any) {
	if logOutput == nil {
		return
	}
	if _, err := fmt.Fprintf(logOutput, format, args...); err != nil {
		// Best-effort log write.
		_ = err
	}
}

// Take is a recorded landmark stream.
type Take struct {
	ID         string
	Name       string
	Exercise   model.Exercise
	Source     string
	CreatedAt  time.Time
	FrameCount int
	DurationMs int64
	Frames     []model.Frame
}

// Store wraps SQLite access for takes.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrateUp(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertTake stores a take and returns its id. An empty id is generated.
func (s *Store) InsertTake(ctx context.Context, take Take) (string, error) {
	if take.ID == "" {
		take.ID = uuid.NewString()
	}
	if take.CreatedAt.IsZero() {
		take.CreatedAt = time.Now()
	}
	payload, err := json.Marshal(take.Frames)
	if err != nil {
		return "", fmt.Errorf("failed to encode frames: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO takes (id, name, exercise, source, created_at, frame_count, duration_ms, frames)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		take.ID,
		take.Name,
		string(take.Exercise),
		take.Source,
		take.CreatedAt.UTC().Format(time.RFC3339Nano),
		len(take.Frames),
		durationMs(take.Frames),
		string(payload),
	)
	if err != nil {
		return "", err
	}
	return take.ID, nil
}

// GetTake loads a take with its frames. The id may be a unique prefix.
func (s *Store) GetTake(ctx context.Context, id string) (Take, error) {
	fullID, err := s.resolveID(ctx, id)
	if err != nil {
		return Take{}, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, exercise, source, created_at, frame_count, duration_ms, frames
		 FROM takes WHERE id = ?`, fullID)

	var take Take
	var exercise, createdAt, payload string
	if err := row.Scan(&take.ID, &take.Name, &exercise, &take.Source, &createdAt, &take.FrameCount, &take.DurationMs, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Take{}, ErrTakeNotFound
		}
		return Take{}, err
	}
	take.Exercise = model.Exercise(exercise)
	if take.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Take{}, err
	}
	if err := json.Unmarshal([]byte(payload), &take.Frames); err != nil {
		return Take{}, fmt.Errorf("failed to decode frames for take %s: %w", take.ID, err)
	}
	return take, nil
}

// ListTakes returns take metadata, newest first. An empty exercise lists
// every take.
func (s *Store) ListTakes(ctx context.Context, exercise model.Exercise) ([]Take, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, exercise, source, created_at, frame_count, duration_ms
		 FROM takes
		 WHERE (? = '' OR exercise = ?)
		 ORDER BY created_at DESC`, string(exercise), string(exercise))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var takes []Take
	for rows.Next() {
		var take Take
		var ex, createdAt string
		if err := rows.Scan(&take.ID, &take.Name, &ex, &take.Source, &createdAt, &take.FrameCount, &take.DurationMs); err != nil {
			return nil, err
		}
		take.Exercise = model.Exercise(ex)
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		take.CreatedAt = parsed
		takes = append(takes, take)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return takes, nil
}

// DeleteTake removes a take by id or unique prefix.
func (s *Store) DeleteTake(ctx context.Context, id string) error {
	fullID, err := s.resolveID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM takes WHERE id = ?`, fullID); err != nil {
		return err
	}
	return nil
}

func (s *Store) resolveID(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", ErrTakeNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM takes WHERE id = ? OR substr(id, 1, ?) = ? LIMIT 2`, id, len(id), id)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var ids []string
	for rows.Next() {
		var found string
		if err := rows.Scan(&found); err != nil {
			return "", err
		}
		if found == id {
			return found, nil
		}
		ids = append(ids, found)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", ErrTakeNotFound
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}
}

func durationMs(frames []model.Frame) int64 {
	if len(frames) < 2 {
		return 0
	}
	return frames[len(frames)-1].OffsetMs - frames[0].OffsetMs
}
