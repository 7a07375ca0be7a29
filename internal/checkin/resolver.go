package checkin

import (
	"fmt"

	"github.com/xarlytos/fitplanner/internal/planning"
)

const (
	StepStamped   = "stamped"
	StepCalendar  = "calendar"
	StepFirstEdit = "first-edit"
)

// UnresolvedSessionError aborts a save before anything is sent:
// there is no way to tell which plan session the sets belong to.
type UnresolvedSessionError struct {
	ExerciseKey string
	Cursor      planning.Date
	// Missing is the identifier that could not be resolved: "sessionId" or "planId".
	Missing string
}

func (e *UnresolvedSessionError) Error() string {
	return fmt.Sprintf("unresolved %s for exercise [%s] on %s", e.Missing, e.ExerciseKey, e.Cursor)
}

// ResolveInput is everything the resolver steps may look at.
type ResolveInput struct {
	Exercise planning.Exercise
	Calendar planning.Calendar
	Cursor   planning.Date
	Edits    []SetEdit
}

// ResolveStep is one source of a session id. It returns "" when it has nothing.
type ResolveStep struct {
	Name    string
	Resolve func(in ResolveInput) string
}

type Resolution struct {
	PlanID    string
	SessionID string
	// Step is the name of the step that gave the session id.
	Step string
}

// SessionResolver tries its steps in order, and the first non-empty session id wins.
type SessionResolver struct {
	steps []ResolveStep
}

func NewSessionResolver(steps ...ResolveStep) *SessionResolver {
	return &SessionResolver{
		steps: steps,
	}
}

// DefaultSessionResolver uses, in order: the ids stamped at aggregation, the
// routine of the selected calendar day, and the session id embedded in the first edit.
func DefaultSessionResolver() *SessionResolver {
	return NewSessionResolver(
		ResolveStep{Name: StepStamped, Resolve: stampedSession},
		ResolveStep{Name: StepCalendar, Resolve: calendarSession},
		ResolveStep{Name: StepFirstEdit, Resolve: firstEditSession},
	)
}

func (r *SessionResolver) Steps() []string {
	names := make([]string, 0, len(r.steps))
	for _, s := range r.steps {
		names = append(names, s.Name)
	}
	return names
}

func (r *SessionResolver) Resolve(in ResolveInput) (Resolution, error) {
	var res Resolution
	for _, step := range r.steps {
		if id := step.Resolve(in); id != "" {
			res.SessionID = id
			res.Step = step.Name
			break
		}
	}
	if res.SessionID == "" {
		return Resolution{}, &UnresolvedSessionError{
			ExerciseKey: in.Exercise.Key(),
			Cursor:      in.Cursor,
			Missing:     "sessionId",
		}
	}

	res.PlanID = resolvePlanID(in)
	if res.PlanID == "" {
		return Resolution{}, &UnresolvedSessionError{
			ExerciseKey: in.Exercise.Key(),
			Cursor:      in.Cursor,
			Missing:     "planId",
		}
	}

	return res, nil
}

func stampedSession(in ResolveInput) string {
	return in.Exercise.SessionID
}

func calendarSession(in ResolveInput) string {
	entry, ok := in.Calendar.EntryAt(in.Cursor)
	if !ok || entry.Routine == nil {
		return ""
	}
	return entry.Routine.SessionID
}

// firstEditSession reads the session embedded in the first row, whether or not that row has a set id.
// With no rows to go by it falls back to the exercise's first set.
func firstEditSession(in ResolveInput) string {
	if len(in.Edits) > 0 && in.Edits[0].SessionID != "" {
		return in.Edits[0].SessionID
	}
	if len(in.Exercise.Sets) > 0 {
		return in.Exercise.Sets[0].SessionID
	}
	return ""
}

// resolvePlanID: stamped plan id, then the selected day's entry, then any entry (a calendar holds one plan).
func resolvePlanID(in ResolveInput) string {
	if in.Exercise.PlanID != "" {
		return in.Exercise.PlanID
	}
	if entry, ok := in.Calendar.EntryAt(in.Cursor); ok && entry.PlanID != "" {
		return entry.PlanID
	}
	for _, entry := range in.Calendar {
		if entry.PlanID != "" {
			return entry.PlanID
		}
	}
	return ""
}
