package planning

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/xarlytos/fitplanner/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultRoutineName = "Unnamed routine"

// SessionPolicy decides what happens with a day that has more than one session.
type SessionPolicy string

const (
	// SessionPolicyFirst keeps only the first session of a day as its routine.
	SessionPolicyFirst SessionPolicy = "first"
	// SessionPolicyAll keeps the first session as the routine and the rest
	// in CalendarEntry.AdditionalRoutines.
	SessionPolicyAll SessionPolicy = "all"
)

func ParseSessionPolicy(s string) (SessionPolicy, error) {
	switch SessionPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", SessionPolicyFirst:
		return SessionPolicyFirst, nil
	case SessionPolicyAll:
		return SessionPolicyAll, nil
	default:
		return "", fmt.Errorf("unknown session policy: %s", s)
	}
}

// MalformedPlanError means the fetched plan cannot be turned into a calendar at all.
// Callers should treat it as "no plan available", not as a transient failure.
type MalformedPlanError struct {
	Reason string
}

func (e *MalformedPlanError) Error() string {
	return "malformed plan: " + e.Reason
}

type Aggregator struct {
	policy SessionPolicy
}

func NewAggregator(policy SessionPolicy) *Aggregator {
	if policy == "" {
		policy = SessionPolicyFirst
	}
	return &Aggregator{
		policy: policy,
	}
}

func (a *Aggregator) Policy() SessionPolicy {
	return a.policy
}

// Aggregate flattens the week -> day -> session nesting of a plan into a
// calendar with one entry per date, sorted by date.
// Every exercise placed in the calendar is stamped with the plan id and the
// id of the session it belongs to. The input plan is not modified.
func (a *Aggregator) Aggregate(ctx context.Context, root *PlanRoot) (_ Calendar, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "planning.aggregator.aggregate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if root == nil {
		return nil, &MalformedPlanError{Reason: "no plan"}
	}
	if root.PlanID == "" {
		return nil, &MalformedPlanError{Reason: "missing plan id"}
	}
	if len(root.Weeks) == 0 {
		return nil, &MalformedPlanError{Reason: "plan has no weeks"}
	}

	span.SetAttributes(
		attribute.String("plan_id", root.PlanID),
		attribute.Int("weeks", len(root.Weeks)),
		attribute.String("session_policy", string(a.policy)),
	)

	daysCount := 0
	for _, w := range root.Weeks {
		daysCount += len(w.Days)
	}

	entries := make(Calendar, 0, daysCount)
	date2index := make(map[Date]int, daysCount)
	for _, week := range root.Weeks {
		for _, key := range sortedDayKeys(week.Days) {
			day := week.Days[key]
			date, err := ParseDate(day.CalendarDate)
			if err != nil {
				log.Warnf("plan %s, week %d: skipping day [%s]: %s", root.PlanID, week.WeekNumber, key, err)
				continue
			}

			routines := stampedRoutines(root.PlanID, day.Sessions)
			if i, ok := date2index[date]; ok {
				log.Debugf("plan %s: day [%s] shares date %s with another day, merging", root.PlanID, key, date)
				a.place(&entries[i], routines)
				continue
			}

			entry := CalendarEntry{
				Date:         date,
				WeekdayLabel: day.WeekdayLabel,
				DayID:        day.DayID,
				PlanID:       root.PlanID,
			}
			a.place(&entry, routines)

			date2index[date] = len(entries)
			entries = append(entries, entry)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date < entries[j].Date
	})

	span.SetAttributes(attribute.Int("entries", len(entries)))

	return entries, nil
}

// place assigns routines to the entry according to the session policy.
func (a *Aggregator) place(entry *CalendarEntry, routines []Routine) {
	dropped := 0
	for i := range routines {
		r := routines[i]
		switch {
		case entry.Routine == nil:
			entry.Routine = &r
		case a.policy == SessionPolicyAll:
			entry.AdditionalRoutines = append(entry.AdditionalRoutines, r)
		default:
			dropped++
		}
	}
	if dropped > 0 {
		log.Debugf("date %s: %d extra session(s) dropped by session policy [%s]", entry.Date, dropped, a.policy)
	}
}

func stampedRoutines(planID string, sessions []Session) []Routine {
	routines := make([]Routine, 0, len(sessions))
	for _, s := range sessions {
		name := s.Name
		if name == "" {
			name = DefaultRoutineName
		}

		exercises := make([]Exercise, len(s.Exercises))
		for i, ex := range s.Exercises {
			ex.PlanID = planID
			ex.SessionID = s.SessionID
			ex.Sets = append([]SetSpec(nil), ex.Sets...)
			exercises[i] = ex
		}

		routines = append(routines, Routine{
			SessionID: s.SessionID,
			Name:      name,
			Exercises: exercises,
		})
	}
	return routines
}

func sortedDayKeys(days map[string]Day) []string {
	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
