package component

import "time"

type RecurrenceType string

const (
	Daily   RecurrenceType = "daily"
	Weekly  RecurrenceType = "weekly"
	Monthly RecurrenceType = "monthly"
)

var RecurrenceTypes = map[RecurrenceType]bool{
	Daily:   true,
	Weekly:  true,
	Monthly: true,
}

func (r RecurrenceType) Valid() bool {
	return RecurrenceTypes[r]
}

// NextOccurrence returns the due date of the occurrence that follows due.
// Monthly keeps the day of month, clamped to the last day of the next month.
// The wall clock and location of due are preserved.
func NextOccurrence(due time.Time, r RecurrenceType) (time.Time, bool) {
	switch r {
	case Daily:
		return due.AddDate(0, 0, 1), true
	case Weekly:
		return due.AddDate(0, 0, 7), true
	case Monthly:
		y, m, d := due.Date()
		nextMonth := m + 1
		nextYear := y
		if nextMonth > time.December {
			nextMonth = time.January
			nextYear++
		}
		// day 0 of the month after next is the last day of next month
		last := time.Date(nextYear, nextMonth+1, 0, 0, 0, 0, 0, due.Location()).Day()
		if d > last {
			d = last
		}
		return time.Date(nextYear, nextMonth, d, due.Hour(), due.Minute(), due.Second(), due.Nanosecond(), due.Location()), true
	}
	return time.Time{}, false
}
