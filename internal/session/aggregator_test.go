package session

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/formcoach/internal/model"
)

var start = time.Date(2026, 4, 2, 7, 30, 0, 0, time.UTC)

func TestLifecycle(t *testing.T) {
	a := NewAggregator()
	require.False(t, a.Record(model.FormFeedback{Category: model.Good}), "record without session")

	require.True(t, a.Start(model.Squat, "gym-mom", start))
	require.False(t, a.Start(model.Squat, "gym-mom", start.Add(time.Second)), "second start must not reopen")

	s, ok := a.Session()
	require.True(t, ok)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, model.Squat, s.Exercise)
	assert.Equal(t, "gym-mom", s.CoachID)
	assert.True(t, s.StartTime.Equal(start))

	a.Record(model.FormFeedback{Category: model.Good})
	a.Record(model.FormFeedback{Category: model.Warning})
	a.Record(model.FormFeedback{Category: model.Error})

	require.True(t, a.Pause())
	assert.False(t, a.Record(model.FormFeedback{Category: model.Good}), "paused sessions ignore events")
	require.True(t, a.Resume())

	end := start.Add(90 * time.Second)
	require.True(t, a.Stop(end))
	require.False(t, a.Stop(end.Add(time.Minute)), "end time is frozen once")

	s, _ = a.Session()
	assert.Equal(t, 3, s.TotalReps)
	assert.Equal(t, 1, s.GoodReps)
	require.NotNil(t, s.EndTime)
	assert.True(t, s.EndTime.Equal(end))
	assert.Equal(t, 90*time.Second, Elapsed(s, end.Add(time.Hour)))
	assert.False(t, a.Record(model.FormFeedback{Category: model.Good}), "stopped sessions ignore events")
}

func TestStartAfterStopOpensFreshSession(t *testing.T) {
	a := NewAggregator()
	a.Start(model.Plank, "tough-love", start)
	a.Record(model.FormFeedback{Category: model.Good})
	first, _ := a.Session()
	a.Stop(start.Add(time.Minute))

	require.True(t, a.Start(model.Plank, "tough-love", start.Add(2*time.Minute)))
	second, _ := a.Session()
	assert.NotEqual(t, first.ID, second.ID)
	assert.Zero(t, second.TotalReps)
	assert.Nil(t, second.EndTime)
}

func TestGoodRepsNeverExceedTotal(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	categories := []model.Category{model.Good, model.Warning, model.Error}
	a := NewAggregator()
	a.Start(model.Lunge, "soft-girl", start)
	for i := 0; i < 1000; i++ {
		a.Record(model.FormFeedback{Category: categories[rnd.Intn(len(categories))]})
		s, _ := a.Session()
		if s.GoodReps > s.TotalReps {
			t.Fatalf("goodReps %d > totalReps %d", s.GoodReps, s.TotalReps)
		}
	}
}

func TestCapturePhoto(t *testing.T) {
	a := NewAggregator()
	_, ok := a.CapturePhoto("shot.jpg", "nice", start)
	require.False(t, ok)

	a.Start(model.Deadlift, "gym-mom", start)
	photo, ok := a.CapturePhoto("shot.jpg", "nice", start.Add(time.Second))
	require.True(t, ok)
	assert.Equal(t, model.Deadlift, photo.Exercise)

	s, _ := a.Session()
	require.Len(t, s.Photos, 1)
	s.Photos[0].Feedback = "mutated"
	again, _ := a.Session()
	assert.Equal(t, "nice", again.Photos[0].Feedback, "Session must return a copy")
}

func TestFormAccuracy(t *testing.T) {
	cases := []struct {
		good, total, want int
	}{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{5, 5, 100},
	}
	for _, tc := range cases {
		got := FormAccuracy(model.WorkoutSession{GoodReps: tc.good, TotalReps: tc.total})
		if got != tc.want {
			t.Fatalf("%d/%d: expected %d, got %d", tc.good, tc.total, tc.want, got)
		}
	}
}
