package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/verte-zerg/formcoach/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "formcoach.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
	return s
}

func sampleFrames() []model.Frame {
	return []model.Frame{
		{OffsetMs: 0, Landmarks: []*model.Landmark{{X: 0.1, Y: 0.2}}},
		{OffsetMs: 100, Landmarks: []*model.Landmark{nil, {X: 0.3, Y: 0.4}}},
		{OffsetMs: 250},
	}
}

func TestInsertAndGetTake(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	id, err := s.InsertTake(ctx, Take{Name: "morning squats", Exercise: model.Squat, Source: "squat.jsonl", CreatedAt: created, Frames: sampleFrames()})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if len(id) != 36 {
		t.Fatalf("expected uuid id, got %q", id)
	}

	got, err := s.GetTake(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := Take{
		ID:         id,
		Name:       "morning squats",
		Exercise:   model.Squat,
		Source:     "squat.jsonl",
		CreatedAt:  created,
		FrameCount: 3,
		DurationMs: 250,
		Frames:     sampleFrames(),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("take mismatch (-want +got):\n%s", diff)
	}

	byPrefix, err := s.GetTake(ctx, id[:8])
	if err != nil {
		t.Fatalf("get by prefix: %v", err)
	}
	if byPrefix.ID != id {
		t.Fatalf("expected prefix lookup to resolve %s, got %s", id, byPrefix.ID)
	}
}

func TestGetTakeNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetTake(context.Background(), "missing"); !errors.Is(err, ErrTakeNotFound) {
		t.Fatalf("expected ErrTakeNotFound, got %v", err)
	}
}

func TestAmbiguousPrefix(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"abc-1", "abc-2"} {
		if _, err := s.InsertTake(ctx, Take{ID: id, Exercise: model.Plank}); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	if _, err := s.GetTake(ctx, "abc"); !errors.Is(err, ErrAmbiguousID) {
		t.Fatalf("expected ErrAmbiguousID, got %v", err)
	}
	if _, err := s.GetTake(ctx, "abc-2"); err != nil {
		t.Fatalf("exact id must resolve: %v", err)
	}
}

func TestListAndDeleteTakes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	inputs := []Take{
		{ID: "t1", Exercise: model.Squat, CreatedAt: base},
		{ID: "t2", Exercise: model.Lunge, CreatedAt: base.Add(time.Hour)},
		{ID: "t3", Exercise: model.Squat, CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, take := range inputs {
		if _, err := s.InsertTake(ctx, take); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	all, err := s.ListTakes(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != "t3" || all[2].ID != "t1" {
		t.Fatalf("expected newest first, got %+v", all)
	}
	if all[0].Frames != nil {
		t.Fatalf("list must not load frames")
	}

	squats, err := s.ListTakes(ctx, model.Squat)
	if err != nil {
		t.Fatalf("list squats: %v", err)
	}
	if len(squats) != 2 {
		t.Fatalf("expected 2 squat takes, got %d", len(squats))
	}

	if err := s.DeleteTake(ctx, "t2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteTake(ctx, "t2"); !errors.Is(err, ErrTakeNotFound) {
		t.Fatalf("expected ErrTakeNotFound on second delete, got %v", err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formcoach.db")
	for i := 0; i < 2; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		version, dirty, err := s.SchemaVersion()
		if err != nil {
			t.Fatalf("version: %v", err)
		}
		if version != 2 || dirty {
			t.Fatalf("expected clean version 2, got %d dirty=%v", version, dirty)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
}
