package planning

// PlanRoot is a client's full multi-week training plan, as handed out by the backend.
type PlanRoot struct {
	PlanID string `json:"planId"`
	Name   string `json:"name"`
	Weeks  []Week `json:"weeks"`
}

type Week struct {
	WeekID     string `json:"weekId"`
	WeekNumber int    `json:"weekNumber"`
	StartDate  string `json:"startDate"`
	// Days is keyed by the backend's weekday key (e.g. "lunes", "day1").
	Days map[string]Day `json:"days"`
}

type Day struct {
	DayID        string `json:"dayId"`
	WeekdayLabel string `json:"weekdayLabel"`
	// CalendarDate is the raw date as received, usually an ISO timestamp.
	CalendarDate string    `json:"calendarDate"`
	Sessions     []Session `json:"sessions"`
}

type Session struct {
	SessionID string     `json:"sessionId"`
	Name      string     `json:"name"`
	Exercises []Exercise `json:"exercises"`
}

type Exercise struct {
	ExerciseID  string    `json:"exerciseId,omitempty"`
	DisplayName string    `json:"displayName"`
	SeriesLabel string    `json:"seriesLabel"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Sets        []SetSpec `json:"sets"`

	// PlanID and SessionID are stamped by the Aggregator once the exercise is
	// placed into a calendar entry. Check-ins are addressed by them.
	PlanID    string `json:"planId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// Key identifies the exercise for the lifetime of a fetched plan.
func (e Exercise) Key() string {
	if e.ExerciseID != "" {
		return e.ExerciseID
	}
	return e.SessionID + "/" + e.DisplayName
}

type SetSpec struct {
	SetID       string   `json:"setId,omitempty"`
	Weight      *float64 `json:"weight,omitempty"`
	Reps        *int     `json:"reps,omitempty"`
	RestSeconds *int     `json:"restSeconds,omitempty"`
	// SessionID is only present on some backend payloads; used as a last resort
	// when resolving where a check-in belongs.
	SessionID    string        `json:"sessionId,omitempty"`
	FieldMapping *FieldMapping `json:"fieldMapping,omitempty"`
}

// Value returns the set's value for the given field, if the set has one.
func (s SetSpec) Value(f Field) (float64, bool) {
	switch f {
	case FieldWeight:
		if s.Weight != nil {
			return *s.Weight, true
		}
	case FieldReps:
		if s.Reps != nil {
			return float64(*s.Reps), true
		}
	case FieldRest:
		if s.RestSeconds != nil {
			return float64(*s.RestSeconds), true
		}
	}
	return 0, false
}

// Field is one of the editable/displayed values of a set.
type Field string

const (
	FieldWeight Field = "weight"
	FieldReps   Field = "reps"
	FieldRest   Field = "rest"
)

var DefaultFields = []Field{FieldWeight, FieldReps}

func (f Field) IsValid() bool {
	switch f {
	case FieldWeight, FieldReps, FieldRest:
		return true
	default:
		return false
	}
}

// Label is the column header shown to the client.
func (f Field) Label() string {
	switch f {
	case FieldWeight:
		return "Peso (kg)"
	case FieldReps:
		return "Reps"
	case FieldRest:
		return "Descanso (s)"
	default:
		return string(f)
	}
}

// FieldMapping declares which two or three fields a set layout shows, in order.
type FieldMapping struct {
	Fields []Field `json:"fields"`
}

// Routine is the session chosen to represent a calendar day.
type Routine struct {
	SessionID string     `json:"sessionId"`
	Name      string     `json:"name"`
	Exercises []Exercise `json:"exercises"`
}

// CalendarEntry is the flattened, date-indexed view of a plan day.
type CalendarEntry struct {
	Date         Date     `json:"date"`
	WeekdayLabel string   `json:"weekdayLabel"`
	DayID        string   `json:"dayId"`
	PlanID       string   `json:"planId"`
	Routine      *Routine `json:"routine,omitempty"`
	// AdditionalRoutines holds the extra same-day sessions, only filled
	// with SessionPolicyAll.
	AdditionalRoutines []Routine `json:"additionalRoutines,omitempty"`
}

func (e CalendarEntry) HasRoutine() bool {
	return e.Routine != nil
}
