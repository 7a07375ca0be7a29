package checkin_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xarlytos/fitplanner/internal/checkin"
	"github.com/xarlytos/fitplanner/internal/planning"
	"github.com/xarlytos/fitplanner/internal/telemetry/metrics"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestSynchronizer(t *testing.T) (*checkin.Synchronizer, *MocksetPersister, *metrics.Manager) {
	t.Helper()
	ctrl := gomock.NewController(t)
	persisterMock := NewMocksetPersister(ctrl)
	metricsManager := metrics.NewTestManager()
	return checkin.NewSynchronizer(persisterMock, checkin.DefaultSessionResolver(), metricsManager), persisterMock, metricsManager
}

func TestSynchronizer_OnlySetsWithIDAreSent(t *testing.T) {
	s, persisterMock, metricsManager := newTestSynchronizer(t)

	exercise := planning.Exercise{
		ExerciseID:  "ex-bench",
		DisplayName: "Bench press",
		PlanID:      "P1",
		SessionID:   "S1",
		Sets: []planning.SetSpec{
			{},
			{SetID: "set-2"},
			{},
		},
	}
	buffer := checkin.NewBuffer(exercise)
	require.NoError(t, buffer.SetWeight(1, 50))
	require.NoError(t, buffer.SetReps(1, 8))

	persisterMock.EXPECT().
		PersistSet(gomock.Any(), checkin.SetCheckin{
			PlanID:    "P1",
			SessionID: "S1",
			SetID:     "set-2",
			Weight:    50,
			Reps:      8,
		}).
		Return(nil).
		Times(1)

	payload := buffer.Payload()
	assert.Equal(t, []int{0, 2}, payload.Excluded)

	result, err := s.Synchronize(context.Background(), exercise, nil, "2024-05-01", payload.Edits)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.AllSucceeded())
	assert.NoError(t, result.Err())
	assert.Equal(t, "P1", result.PlanID)
	assert.Equal(t, "S1", result.SessionID)
	assert.Equal(t, checkin.StepStamped, result.ResolvedBy)
	require.Len(t, result.Results, 3)
	assert.Equal(t, checkin.SetResult{Index: 0, Skipped: true}, result.Results[0])
	assert.Equal(t, checkin.SetResult{Index: 1, SetID: "set-2"}, result.Results[1])
	assert.Equal(t, checkin.SetResult{Index: 2, Skipped: true}, result.Results[2])
	assert.Equal(t, []int{1, 3}, result.SkippedIndices())
	assert.Equal(t, "1 set(s) saved; 2 set(s) not sent, no set id: set 1, 3", result.Summary())
	assert.Equal(t, float64(2), testutil.ToFloat64(metricsManager.CounterExcludedSets))

	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterSetCheckins.WithLabelValues("ok")))
	assert.Equal(t, float64(0), testutil.ToFloat64(metricsManager.CounterSetCheckins.WithLabelValues("error")))
}

func TestSynchronizer_EditsWithoutSetIDAreSkipped(t *testing.T) {
	s, persisterMock, metricsManager := newTestSynchronizer(t)

	exercise := planning.Exercise{ExerciseID: "ex", PlanID: "P1", SessionID: "S1"}
	persisterMock.EXPECT().
		PersistSet(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c checkin.SetCheckin) error {
			assert.Equal(t, "set-b", c.SetID)
			return nil
		})

	result, err := s.Synchronize(context.Background(), exercise, nil, "2024-05-01", []checkin.SetEdit{
		{Index: 0},
		{Index: 1, SetID: "set-b", Weight: 20, Reps: 10},
	})
	require.NoError(t, err)
	require.Len(t, result.Results, 2)
	assert.True(t, result.Results[0].Skipped)
	assert.False(t, result.Results[0].Succeeded())
	assert.True(t, result.Results[1].Succeeded())
	assert.Len(t, result.Skipped(), 1)
	assert.True(t, result.AllSucceeded())
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterExcludedSets))
}

func TestSynchronizer_NoRowWithSetID(t *testing.T) {
	s, persisterMock, metricsManager := newTestSynchronizer(t)
	persisterMock.EXPECT().PersistSet(gomock.Any(), gomock.Any()).Times(0)

	exercise := planning.Exercise{
		ExerciseID: "ex-pullup",
		PlanID:     "P1",
		SessionID:  "S1",
		Sets:       []planning.SetSpec{{}, {}, {}},
	}
	buffer := checkin.NewBuffer(exercise)
	require.NoError(t, buffer.SetWeight(0, 50))

	result, err := s.Synchronize(context.Background(), exercise, nil, "2024-05-01", buffer.Payload().Edits)
	require.NoError(t, err)
	require.Len(t, result.Results, 3)
	assert.Len(t, result.Skipped(), 3)
	assert.Empty(t, result.Failed())
	assert.False(t, result.AllSucceeded())
	assert.ErrorIs(t, result.Err(), checkin.ErrNothingSent)
	assert.Equal(t, "0 set(s) saved; 3 set(s) not sent, no set id: set 1, 2, 3", result.Summary())
	assert.Equal(t, float64(3), testutil.ToFloat64(metricsManager.CounterExcludedSets))
}

func TestSynchronizer_FailureDoesNotStopLaterSets(t *testing.T) {
	s, persisterMock, metricsManager := newTestSynchronizer(t)

	exercise := planning.Exercise{ExerciseID: "ex-row", PlanID: "P1", SessionID: "S1"}
	networkErr := errors.New("connection reset by peer")

	gomock.InOrder(
		persisterMock.EXPECT().
			PersistSet(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, c checkin.SetCheckin) error {
				assert.Equal(t, "set-a", c.SetID)
				return networkErr
			}),
		persisterMock.EXPECT().
			PersistSet(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, c checkin.SetCheckin) error {
				assert.Equal(t, "set-b", c.SetID)
				return nil
			}),
	)

	result, err := s.Synchronize(context.Background(), exercise, nil, "2024-05-01", []checkin.SetEdit{
		{Index: 0, SetID: "set-a", Weight: 40, Reps: 12},
		{Index: 1, SetID: "set-b", Weight: 45, Reps: 10},
	})
	require.NoError(t, err)
	require.Len(t, result.Results, 2)

	assert.ErrorIs(t, result.Results[0].Err, networkErr)
	assert.NoError(t, result.Results[1].Err)
	assert.False(t, result.AllSucceeded())
	assert.Equal(t, []int{1}, result.FailedIndices())
	require.Len(t, result.Failed(), 1)
	assert.Equal(t, "set-a", result.Failed()[0].SetID)
	assert.ErrorIs(t, result.Err(), networkErr)
	assert.Equal(t, "1 of 2 set(s) could not be saved: set 1", result.Summary())

	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterSetCheckins.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterSetCheckins.WithLabelValues("error")))
}

func TestSynchronizer_ResolvesFromCalendar(t *testing.T) {
	s, persisterMock, _ := newTestSynchronizer(t)

	persisterMock.EXPECT().
		PersistSet(gomock.Any(), checkin.SetCheckin{PlanID: "P1", SessionID: "S-cal", SetID: "set-1", Reps: 5}).
		Return(nil)

	result, err := s.Synchronize(
		context.Background(),
		planning.Exercise{ExerciseID: "ex"},
		testCalendar(),
		"2024-05-01",
		[]checkin.SetEdit{{SetID: "set-1", Reps: 5, SessionID: "S-edit"}},
	)
	require.NoError(t, err)
	assert.Equal(t, checkin.StepCalendar, result.ResolvedBy)
}

func TestSynchronizer_ResolvesFromFirstEdit(t *testing.T) {
	s, persisterMock, _ := newTestSynchronizer(t)

	persisterMock.EXPECT().
		PersistSet(gomock.Any(), checkin.SetCheckin{PlanID: "P1", SessionID: "S-edit", SetID: "set-1", Reps: 5}).
		Return(nil)

	result, err := s.Synchronize(
		context.Background(),
		planning.Exercise{ExerciseID: "ex"},
		testCalendar(),
		"2024-05-02",
		[]checkin.SetEdit{{SetID: "set-1", Reps: 5, SessionID: "S-edit"}},
	)
	require.NoError(t, err)
	assert.Equal(t, checkin.StepFirstEdit, result.ResolvedBy)
}

func TestSynchronizer_UnresolvedSession_NoCalls(t *testing.T) {
	s, persisterMock, metricsManager := newTestSynchronizer(t)
	persisterMock.EXPECT().PersistSet(gomock.Any(), gomock.Any()).Times(0)

	result, err := s.Synchronize(
		context.Background(),
		planning.Exercise{ExerciseID: "ex"},
		testCalendar(),
		"2024-05-02",
		[]checkin.SetEdit{{SetID: "set-1", Reps: 5}},
	)
	assert.Nil(t, result)
	var unresolvedErr *checkin.UnresolvedSessionError
	require.True(t, errors.As(err, &unresolvedErr))
	assert.Equal(t, "sessionId", unresolvedErr.Missing)
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterUnresolvedSessions))
}

func TestSynchronizer_SameExerciseSaveInProgress(t *testing.T) {
	s, persisterMock, metricsManager := newTestSynchronizer(t)

	exercise := planning.Exercise{ExerciseID: "ex-deadlift", PlanID: "P1", SessionID: "S1"}
	edits := []checkin.SetEdit{{SetID: "set-1", Weight: 100, Reps: 5}}

	entered := make(chan struct{})
	unblock := make(chan struct{})
	persisterMock.EXPECT().
		PersistSet(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, checkin.SetCheckin) error {
			close(entered)
			<-unblock
			return nil
		}).
		Times(1)

	done := make(chan error)
	go func() {
		_, err := s.Synchronize(context.Background(), exercise, nil, "2024-05-01", edits)
		done <- err
	}()
	<-entered

	_, err := s.Synchronize(context.Background(), exercise, nil, "2024-05-01", edits)
	assert.ErrorIs(t, err, checkin.ErrSaveInProgress)
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterRejectedSaves))

	close(unblock)
	require.NoError(t, <-done)

	// once the first save is done, the exercise can be saved again
	persisterMock.EXPECT().PersistSet(gomock.Any(), gomock.Any()).Return(nil)
	_, err = s.Synchronize(context.Background(), exercise, nil, "2024-05-01", edits)
	assert.NoError(t, err)
}

func TestSynchronizer_PersistOutlivesCanceledCaller(t *testing.T) {
	s, persisterMock, _ := newTestSynchronizer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	persisterMock.EXPECT().
		PersistSet(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ checkin.SetCheckin) error {
			return ctx.Err()
		}).
		Times(2)

	result, err := s.Synchronize(
		ctx,
		planning.Exercise{ExerciseID: "ex", PlanID: "P1", SessionID: "S1"},
		nil,
		"2024-05-01",
		[]checkin.SetEdit{{Index: 0, SetID: "set-1"}, {Index: 1, SetID: "set-2"}},
	)
	require.NoError(t, err)
	assert.True(t, result.AllSucceeded())
}
