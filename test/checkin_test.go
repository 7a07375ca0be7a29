package test

import (
	"context"
	"net/http"
	"sync"

	"github.com/xarlytos/fitplanner/internal/checkin"
	"github.com/xarlytos/fitplanner/internal/planning"
)

func (s *IntegrationTestSuite) TestCalendarFromBackend() {
	cal := s.service.Calendar()
	s.Require().Len(cal, 4)

	dates := make([]planning.Date, 0, len(cal))
	for _, e := range cal {
		dates = append(dates, e.Date)
	}
	s.Equal([]planning.Date{"2024-05-01", "2024-05-02", "2024-05-03", "2024-05-04"}, dates)

	for _, e := range cal {
		if !e.HasRoutine() {
			continue
		}
		for _, ex := range e.Routine.Exercises {
			s.Equal("plan-1", ex.PlanID)
			s.Equal(e.Routine.SessionID, ex.SessionID)
		}
	}

	days := s.service.VisibleDays()
	s.Require().Len(days, 4)
	s.Equal("MIE", days[0].WeekdayLabel)
	s.True(days[0].IsSelected)
}

func (s *IntegrationTestSuite) TestEditAndCheckin() {
	ctx := context.Background()
	fetchesBefore := s.backend.PlanFetches()
	checkinsBefore := len(s.backend.Checkins())

	buffer, err := s.service.OpenExercise("ex-squat")
	s.Require().NoError(err)
	s.Require().NoError(buffer.SetWeight(1, 50))
	s.Require().NoError(buffer.SetReps(1, 8))

	result, err := s.service.SaveExercise(ctx)
	s.Require().NoError(err)
	s.True(result.AllSucceeded())
	s.Equal("3 set(s) saved", result.Summary())

	checkins := s.backend.Checkins()[checkinsBefore:]
	s.Require().Len(checkins, 3)
	s.Equal("set-2", checkins[1].SetID)
	s.Equal(50.0, checkins[1].PesoCliente)
	s.Equal(8, checkins[1].Reps)
	s.Equal("Bearer test-token", checkins[1].Authorization)

	// the check-in dropped the cached plan, so a refresh goes to the backend again
	s.Require().NoError(s.service.Refresh(ctx))
	s.Equal(fetchesBefore+1, s.backend.PlanFetches())
}

func (s *IntegrationTestSuite) TestPartialFailureThenRetry() {
	ctx := context.Background()
	checkinsBefore := len(s.backend.Checkins())
	s.backend.FailSet("set-3", http.StatusInternalServerError)

	_, err := s.service.OpenExercise("ex-squat")
	s.Require().NoError(err)

	result, err := s.service.SaveExercise(ctx)
	s.Require().NoError(err)
	s.Equal([]int{3}, result.FailedIndices())
	s.Len(s.backend.Checkins()[checkinsBefore:], 2)
	s.NotNil(s.service.OpenBuffer(), "edits are kept for a retry")

	s.backend.FailSet("set-3", 0)
	result, err = s.service.SaveExercise(ctx)
	s.Require().NoError(err)
	s.True(result.AllSucceeded())
	s.Nil(s.service.OpenBuffer())
}

func (s *IntegrationTestSuite) TestConcurrentSavesOfDifferentExercises() {
	ctx := context.Background()
	cal := s.service.Calendar()
	wednesday, ok := cal.EntryAt("2024-05-01")
	s.Require().True(ok)
	friday, ok := cal.EntryAt("2024-05-03")
	s.Require().True(ok)

	synchronizer := checkin.NewSynchronizer(
		noopPersister{},
		checkin.DefaultSessionResolver(),
		s.metrics,
	)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, entry := range []planning.CalendarEntry{wednesday, friday} {
		wg.Add(1)
		go func(entry planning.CalendarEntry) {
			defer wg.Done()
			exercise := entry.Routine.Exercises[0]
			_, err := synchronizer.Synchronize(ctx, exercise, cal, entry.Date, checkin.NewBuffer(exercise).Payload().Edits)
			errs <- err
		}(entry)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		s.NoError(err)
	}
}

type noopPersister struct{}

func (noopPersister) PersistSet(context.Context, checkin.SetCheckin) error {
	return nil
}
