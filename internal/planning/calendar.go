package planning

import "sort"

// Calendar is the aggregated plan: one entry per date, ascending by date.
type Calendar []CalendarEntry

// EntryAt returns the entry for the given date. A missing entry is a normal
// "nothing planned" day and is reported with ok == false.
func (c Calendar) EntryAt(date Date) (CalendarEntry, bool) {
	i := sort.Search(len(c), func(i int) bool {
		return c[i].Date >= date
	})
	if i < len(c) && c[i].Date == date {
		return c[i], true
	}
	return CalendarEntry{}, false
}

// UpcomingSessions returns the entries that have a routine, on or after from.
// An empty from returns every entry with a routine.
func (c Calendar) UpcomingSessions(from Date) []CalendarEntry {
	upcoming := make([]CalendarEntry, 0)
	for _, e := range c {
		if !e.HasRoutine() {
			continue
		}
		if !from.IsZero() && e.Date < from {
			continue
		}
		upcoming = append(upcoming, e)
	}
	return upcoming
}
