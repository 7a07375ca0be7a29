package checkin

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/xarlytos/fitplanner/internal/planning"

	log "github.com/sirupsen/logrus"
)

const defaultRowsCount = 3

var ErrBufferClosed = errors.New("edit buffer closed")

// Row is the editable state of one set of the exercise being reviewed.
type Row struct {
	Index     int     `json:"index"`
	SetID     string  `json:"setId,omitempty"`
	SessionID string  `json:"sessionId,omitempty"`
	Weight    float64 `json:"weight"`
	Reps      int     `json:"reps"`
	Rest      int     `json:"rest"`
	Comment   string  `json:"comment,omitempty"`
	Touched   bool    `json:"touched"`
}

// Change is a single edit event coming from the UI.
type Change struct {
	Row   int
	Field planning.Field
	Value float64
}

// SetEdit is what gets checked in for a single set.
type SetEdit struct {
	// Index is the 0-based row index inside the exercise.
	Index   int
	SetID   string
	Weight  float64
	Reps    int
	Comment string
	// SessionID is the session id embedded in the set itself, if the backend sent one.
	SessionID string
}

type Payload struct {
	Edits []SetEdit
	// Excluded holds the 0-based indices of rows that have no set id and will not be sent.
	Excluded []int
}

// Buffer holds the in-progress edits for the exercise currently open.
// It is created when the exercise is opened, and discarded on navigation away or after a successful save.
type Buffer struct {
	exercise planning.Exercise
	columns  []planning.Field

	mu     sync.Mutex
	rows   []Row
	closed bool
}

func NewBuffer(exercise planning.Exercise) *Buffer {
	b := &Buffer{
		exercise: exercise,
		columns:  columnsOf(exercise),
	}

	if len(exercise.Sets) == 0 {
		count := rowsFromSeries(exercise.SeriesLabel)
		b.rows = make([]Row, count)
		for i := range b.rows {
			b.rows[i].Index = i
		}
		return b
	}

	b.rows = make([]Row, len(exercise.Sets))
	for i, set := range exercise.Sets {
		row := Row{
			Index:     i,
			SetID:     set.SetID,
			SessionID: set.SessionID,
		}
		if v, ok := set.Value(planning.FieldWeight); ok {
			row.Weight = v
		}
		if v, ok := set.Value(planning.FieldReps); ok {
			row.Reps = int(v)
		}
		if v, ok := set.Value(planning.FieldRest); ok {
			row.Rest = int(v)
		}
		b.rows[i] = row
	}
	return b
}

// columnsOf returns the fields shown for the exercise: the first set's mapping, or weight & reps.
func columnsOf(exercise planning.Exercise) []planning.Field {
	if len(exercise.Sets) == 0 || exercise.Sets[0].FieldMapping == nil {
		return planning.DefaultFields
	}

	var columns []planning.Field
	for _, f := range exercise.Sets[0].FieldMapping.Fields {
		if f.IsValid() {
			columns = append(columns, f)
		}
	}
	if len(columns) == 0 {
		return planning.DefaultFields
	}
	return columns
}

// rowsFromSeries reads the leading set count of labels like "4 x 10", "5x5" or "3 series".
func rowsFromSeries(series string) int {
	series = strings.TrimSpace(series)
	end := strings.IndexFunc(series, func(r rune) bool {
		return r < '0' || r > '9'
	})
	if end == -1 {
		end = len(series)
	}
	n, err := strconv.Atoi(series[:end])
	if err != nil || n <= 0 {
		return defaultRowsCount
	}
	return n
}

func (b *Buffer) Exercise() planning.Exercise {
	return b.exercise
}

func (b *Buffer) Columns() []planning.Field {
	return append([]planning.Field(nil), b.columns...)
}

func (b *Buffer) Rows() []Row {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Row(nil), b.rows...)
}

// Apply applies a single change event to the buffer.
func (b *Buffer) Apply(c Change) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBufferClosed
	}
	if c.Row < 0 || c.Row >= len(b.rows) {
		return fmt.Errorf("row %d out of range [0, %d)", c.Row, len(b.rows))
	}

	row := &b.rows[c.Row]
	switch c.Field {
	case planning.FieldWeight:
		row.Weight = c.Value
	case planning.FieldReps:
		row.Reps = int(c.Value)
	case planning.FieldRest:
		row.Rest = int(c.Value)
	default:
		return fmt.Errorf("unknown field: %s", c.Field)
	}
	row.Touched = true
	return nil
}

func (b *Buffer) SetWeight(row int, weight float64) error {
	return b.Apply(Change{Row: row, Field: planning.FieldWeight, Value: weight})
}

func (b *Buffer) SetReps(row int, reps int) error {
	return b.Apply(Change{Row: row, Field: planning.FieldReps, Value: float64(reps)})
}

func (b *Buffer) SetComment(row int, comment string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBufferClosed
	}
	if row < 0 || row >= len(b.rows) {
		return fmt.Errorf("row %d out of range [0, %d)", row, len(b.rows))
	}
	b.rows[row].Comment = comment
	b.rows[row].Touched = true
	return nil
}

// Payload returns the save payload: one edit per row, in row order.
// Rows without a set id can't be addressed on the backend. They stay in Edits with an empty SetID,
// so the synchronizer reports them as skipped, and their indices are listed in Excluded.
func (b *Buffer) Payload() Payload {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := Payload{
		Edits: make([]SetEdit, 0, len(b.rows)),
	}
	for _, row := range b.rows {
		if row.SetID == "" {
			p.Excluded = append(p.Excluded, row.Index)
		}
		p.Edits = append(p.Edits, SetEdit{
			Index:     row.Index,
			SetID:     row.SetID,
			Weight:    row.Weight,
			Reps:      row.Reps,
			Comment:   row.Comment,
			SessionID: row.SessionID,
		})
	}

	if len(p.Excluded) > 0 {
		log.Warnf("exercise [%s]: %d set row(s) without set id can't be saved: %v", b.exercise.DisplayName, len(p.Excluded), p.Excluded)
	}

	return p
}

func (b *Buffer) Discard() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

func (b *Buffer) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
