package checkin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xarlytos/fitplanner/internal/planning"
	"github.com/xarlytos/fitplanner/internal/telemetry/metrics"
	"github.com/xarlytos/fitplanner/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var ErrSaveInProgress = errors.New("a save for this exercise is already in progress")

// SetCheckin is a single per-set persist request.
type SetCheckin struct {
	PlanID    string
	SessionID string
	SetID     string
	Weight    float64
	Reps      int
	Comment   string
}

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=checkin_test

type setPersister interface {
	PersistSet(ctx context.Context, checkin SetCheckin) error
}

// Synchronizer sends the edited sets of one exercise to the backend, one set at a time.
type Synchronizer struct {
	persister setPersister
	resolver  *SessionResolver
	metrics   *metrics.Manager

	inFlightMu sync.Mutex
	inFlight   map[string]struct{}
}

func NewSynchronizer(
	persister setPersister,
	resolver *SessionResolver,
	metricsManager *metrics.Manager,
) *Synchronizer {
	if resolver == nil {
		resolver = DefaultSessionResolver()
	}
	if metricsManager == nil {
		metricsManager = metrics.NewUnregisteredManager()
	}
	return &Synchronizer{
		persister: persister,
		resolver:  resolver,
		metrics:   metricsManager,
		inFlight:  make(map[string]struct{}),
	}
}

func (s *Synchronizer) acquire(key string) bool {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	if _, ok := s.inFlight[key]; ok {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

func (s *Synchronizer) release(key string) {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	delete(s.inFlight, key)
}

// Synchronize resolves the plan and session ids for the exercise, then persists every edit
// sequentially. A failing set does not stop the remaining ones; per-set outcomes are in the result.
// An error is returned only when nothing could be sent: unresolved ids or a save already in flight.
func (s *Synchronizer) Synchronize(
	ctx context.Context,
	exercise planning.Exercise,
	cal planning.Calendar,
	cursor planning.Date,
	edits []SetEdit,
) (_ *BatchResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "checkin.synchronizer.synchronize")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("exercise", exercise.Key()),
		attribute.String("cursor", cursor.String()),
		attribute.Int("edits", len(edits)),
	)

	key := exercise.Key()
	if !s.acquire(key) {
		s.metrics.CounterRejectedSaves.Inc()
		return nil, fmt.Errorf("synchronize exercise [%s]: %w", key, ErrSaveInProgress)
	}
	defer s.release(key)

	resolution, err := s.resolver.Resolve(ResolveInput{
		Exercise: exercise,
		Calendar: cal,
		Cursor:   cursor,
		Edits:    edits,
	})
	if err != nil {
		s.metrics.CounterUnresolvedSessions.Inc()
		return nil, err
	}
	span.SetAttributes(
		attribute.String("plan.id", resolution.PlanID),
		attribute.String("session.id", resolution.SessionID),
		attribute.String("session.resolved_by", resolution.Step),
	)

	log.Debugf("synchronizing %d set(s) of exercise [%s]: plan %s, session %s (resolved by %s)",
		len(edits), key, resolution.PlanID, resolution.SessionID, resolution.Step)

	result := &BatchResult{
		PlanID:     resolution.PlanID,
		SessionID:  resolution.SessionID,
		ResolvedBy: resolution.Step,
		Results:    make([]SetResult, 0, len(edits)),
	}

	start := time.Now()
	// the caller going away must not abort a check-in that is already on the wire
	persistCtx := context.WithoutCancel(ctx)
	for _, edit := range edits {
		if edit.SetID == "" {
			s.metrics.CounterExcludedSets.Inc()
			result.Results = append(result.Results, SetResult{
				Index:   edit.Index,
				Skipped: true,
			})
			continue
		}

		persistErr := s.persister.PersistSet(persistCtx, SetCheckin{
			PlanID:    resolution.PlanID,
			SessionID: resolution.SessionID,
			SetID:     edit.SetID,
			Weight:    edit.Weight,
			Reps:      edit.Reps,
			Comment:   edit.Comment,
		})
		if persistErr != nil {
			s.metrics.CounterSetCheckins.WithLabelValues("error").Inc()
			log.Errorf("check in set %d [%s] of exercise [%s]: %s", edit.Index+1, edit.SetID, key, persistErr)
		} else {
			s.metrics.CounterSetCheckins.WithLabelValues("ok").Inc()
		}

		result.Results = append(result.Results, SetResult{
			Index: edit.Index,
			SetID: edit.SetID,
			Err:   persistErr,
		})
	}
	s.metrics.HistCheckinDuration.Observe(time.Since(start).Seconds())

	span.SetAttributes(attribute.Int("failed", len(result.Failed())))

	return result, nil
}
