package calendar

import (
	"sync"

	"github.com/xarlytos/fitplanner/internal/clock"
	"github.com/xarlytos/fitplanner/internal/planning"
)

const DefaultWindowSize = 4

var weekdayLabels = [...]string{"DOM", "LUN", "MAR", "MIE", "JUE", "VIE", "SAB"}

// VisibleDay is one cell of the visible day strip.
type VisibleDay struct {
	Date         planning.Date `json:"date"`
	WeekdayLabel string        `json:"weekdayLabel"`
	DayOfMonth   int           `json:"dayOfMonth"`
	IsToday      bool          `json:"isToday"`
	IsSelected   bool          `json:"isSelected"`
}

// Navigator keeps the selected day and the visible window over an already loaded calendar.
// It never fetches anything: the whole plan is loaded once and navigated locally.
type Navigator struct {
	clock      clock.Clock
	windowSize int

	mu          sync.RWMutex
	windowStart planning.Date
	cursor      planning.Date
}

func NewNavigator(clk clock.Clock, windowSize int) *Navigator {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	n := &Navigator{
		clock:      clk,
		windowSize: windowSize,
	}
	n.ResetToToday()
	return n
}

func (n *Navigator) today() planning.Date {
	return planning.DateOf(n.clock.Now())
}

func (n *Navigator) WindowSize() int {
	return n.windowSize
}

func (n *Navigator) Cursor() planning.Date {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.cursor
}

func (n *Navigator) WindowStart() planning.Date {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.windowStart
}

// ShiftWindow moves the start of the visible window by deltaDays. The selected day stays.
func (n *Navigator) ShiftWindow(deltaDays int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.windowStart = n.windowStart.AddDays(deltaDays)
}

func (n *Navigator) NextWindow() {
	n.ShiftWindow(n.windowSize)
}

func (n *Navigator) PreviousWindow() {
	n.ShiftWindow(-n.windowSize)
}

// SelectDay moves the cursor to date, which may lie outside the visible window.
func (n *Navigator) SelectDay(date planning.Date) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cursor = date
}

// StepDay moves the cursor by delta days.
func (n *Navigator) StepDay(delta int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cursor = n.cursor.AddDays(delta)
}

func (n *Navigator) ResetToToday() {
	today := n.today()
	n.mu.Lock()
	defer n.mu.Unlock()
	n.windowStart = today
	n.cursor = today
}

func (n *Navigator) VisibleDays() []VisibleDay {
	n.mu.RLock()
	start, cursor := n.windowStart, n.cursor
	n.mu.RUnlock()

	today := n.today()
	days := make([]VisibleDay, 0, n.windowSize)
	for i := 0; i < n.windowSize; i++ {
		date := start.AddDays(i)
		dayOfMonth := 0
		if t, err := date.Time(); err == nil {
			dayOfMonth = t.Day()
		}
		days = append(days, VisibleDay{
			Date:         date,
			WeekdayLabel: weekdayLabels[date.Weekday()],
			DayOfMonth:   dayOfMonth,
			IsToday:      date == today,
			IsSelected:   date == cursor,
		})
	}
	return days
}

// ActiveEntry returns the calendar entry of the selected day.
// ok is false for a day with nothing planned, which is not an error.
func (n *Navigator) ActiveEntry(cal planning.Calendar) (planning.CalendarEntry, bool) {
	return cal.EntryAt(n.Cursor())
}
