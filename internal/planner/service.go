package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xarlytos/fitplanner/internal/checkin"
	"github.com/xarlytos/fitplanner/internal/planning"
	"github.com/xarlytos/fitplanner/internal/planning/calendar"
	"github.com/xarlytos/fitplanner/internal/telemetry/metrics"
	"github.com/xarlytos/fitplanner/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrPlanUnavailable  = errors.New("no training plan available")
	ErrExerciseNotFound = errors.New("exercise not found on the selected day")
	ErrNoOpenExercise   = errors.New("no exercise open")
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=planner_test

type planFetcher interface {
	FetchPlan(ctx context.Context) (*planning.PlanRoot, error)
}

type NewServiceParams struct {
	Fetcher      planFetcher
	Aggregator   *planning.Aggregator
	Navigator    *calendar.Navigator
	Synchronizer *checkin.Synchronizer
	Metrics      *metrics.Manager
}

// Service ties the plan fetch, the calendar navigation and the set check-ins together.
// It owns the calendar of the last fetch and the edit buffer of the open exercise.
type Service struct {
	fetcher      planFetcher
	aggregator   *planning.Aggregator
	navigator    *calendar.Navigator
	synchronizer *checkin.Synchronizer
	metrics      *metrics.Manager

	mu       sync.RWMutex
	planName string
	calendar planning.Calendar
	buffer   *checkin.Buffer
}

func NewService(params NewServiceParams) *Service {
	aggregator := params.Aggregator
	if aggregator == nil {
		aggregator = planning.NewAggregator(planning.SessionPolicyFirst)
	}
	navigator := params.Navigator
	if navigator == nil {
		navigator = calendar.NewNavigator(nil, calendar.DefaultWindowSize)
	}
	metricsManager := params.Metrics
	if metricsManager == nil {
		metricsManager = metrics.NewUnregisteredManager()
	}
	return &Service{
		fetcher:      params.Fetcher,
		aggregator:   aggregator,
		navigator:    navigator,
		synchronizer: params.Synchronizer,
		metrics:      metricsManager,
	}
}

// Refresh fetches the plan and rebuilds the calendar from scratch.
// On any failure the calendar is cleared and the error wraps ErrPlanUnavailable.
func (s *Service) Refresh(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "planner.service.refresh")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	root, err := s.fetcher.FetchPlan(ctx)
	if err != nil {
		s.metrics.CounterPlanFetches.WithLabelValues("error").Inc()
		s.clear()
		return fmt.Errorf("fetch plan: %w: %w", ErrPlanUnavailable, err)
	}

	cal, err := s.aggregator.Aggregate(ctx, root)
	if err != nil {
		s.metrics.CounterPlanFetches.WithLabelValues("malformed").Inc()
		s.clear()
		return fmt.Errorf("aggregate plan: %w: %w", ErrPlanUnavailable, err)
	}
	s.metrics.CounterPlanFetches.WithLabelValues("ok").Inc()
	s.metrics.GaugeCalendarEntries.Set(float64(len(cal)))
	span.SetAttributes(
		attribute.String("plan.id", root.PlanID),
		attribute.Int("calendar.entries", len(cal)),
	)

	s.mu.Lock()
	s.planName = root.Name
	s.calendar = cal
	s.mu.Unlock()

	log.Infof("plan [%s] %q loaded: %d calendar entries", root.PlanID, root.Name, len(cal))
	return nil
}

func (s *Service) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.planName = ""
	s.calendar = nil
	s.metrics.GaugeCalendarEntries.Set(0)
}

func (s *Service) PlanName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.planName
}

// Calendar returns the calendar of the last successful fetch, nil when there is none.
func (s *Service) Calendar() planning.Calendar {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calendar
}

func (s *Service) Navigator() *calendar.Navigator {
	return s.navigator
}

func (s *Service) VisibleDays() []calendar.VisibleDay {
	return s.navigator.VisibleDays()
}

func (s *Service) ActiveEntry() (planning.CalendarEntry, bool) {
	return s.navigator.ActiveEntry(s.Calendar())
}

// Upcoming lists the days with a routine on or after from; an empty from lists them all.
func (s *Service) Upcoming(from planning.Date) []planning.CalendarEntry {
	return s.Calendar().UpcomingSessions(from)
}

func (s *Service) ShiftWindow(deltaDays int) {
	s.navigator.ShiftWindow(deltaDays)
}

// SelectDay moves to date. Leaving the selected day drops the open exercise edits.
func (s *Service) SelectDay(date planning.Date) {
	if s.navigator.Cursor() != date {
		s.CloseExercise()
	}
	s.navigator.SelectDay(date)
}

func (s *Service) StepDay(delta int) {
	if delta != 0 {
		s.CloseExercise()
	}
	s.navigator.StepDay(delta)
}

func (s *Service) ResetToToday() {
	before := s.navigator.Cursor()
	s.navigator.ResetToToday()
	if s.navigator.Cursor() != before {
		s.CloseExercise()
	}
}

// OpenExercise opens the exercise with the given key from the selected day's routines,
// replacing any exercise open before.
func (s *Service) OpenExercise(key string) (*checkin.Buffer, error) {
	entry, ok := s.ActiveEntry()
	if !ok {
		return nil, fmt.Errorf("open exercise [%s]: %w", key, ErrExerciseNotFound)
	}

	routines := make([]planning.Routine, 0, 1+len(entry.AdditionalRoutines))
	if entry.Routine != nil {
		routines = append(routines, *entry.Routine)
	}
	routines = append(routines, entry.AdditionalRoutines...)

	for _, routine := range routines {
		for _, exercise := range routine.Exercises {
			if exercise.Key() != key {
				continue
			}

			buffer := checkin.NewBuffer(exercise)
			s.mu.Lock()
			if s.buffer != nil {
				s.buffer.Discard()
			}
			s.buffer = buffer
			s.mu.Unlock()

			log.Debugf("exercise [%s] opened on %s", key, entry.Date)
			return buffer, nil
		}
	}

	return nil, fmt.Errorf("open exercise [%s]: %w", key, ErrExerciseNotFound)
}

// OpenBuffer returns the edit buffer of the open exercise, nil if none.
func (s *Service) OpenBuffer() *checkin.Buffer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer
}

func (s *Service) CloseExercise() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffer != nil {
		s.buffer.Discard()
		s.buffer = nil
	}
}

// SaveExercise checks in the edited sets of the open exercise.
// The buffer is discarded only when every sent set succeeded; otherwise it stays open for a retry.
// Rows without a set id come back as skipped results, and a save where every row was skipped keeps the buffer.
func (s *Service) SaveExercise(ctx context.Context) (_ *checkin.BatchResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "planner.service.saveExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	s.mu.RLock()
	buffer := s.buffer
	cal := s.calendar
	s.mu.RUnlock()
	if buffer == nil {
		return nil, ErrNoOpenExercise
	}

	payload := buffer.Payload()
	span.SetAttributes(attribute.Int("rows.excluded", len(payload.Excluded)))

	result, err := s.synchronizer.Synchronize(ctx, buffer.Exercise(), cal, s.navigator.Cursor(), payload.Edits)
	if err != nil {
		return nil, fmt.Errorf("save exercise [%s]: %w", buffer.Exercise().Key(), err)
	}

	if result.AllSucceeded() {
		s.mu.Lock()
		if s.buffer == buffer {
			s.buffer = nil
		}
		s.mu.Unlock()
		buffer.Discard()
		log.Infof("exercise [%s]: %s", buffer.Exercise().Key(), result.Summary())
	} else {
		log.Warnf("exercise [%s]: %s", buffer.Exercise().Key(), result.Summary())
	}

	return result, nil
}
