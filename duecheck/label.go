package duecheck

import (
	"fmt"
	"time"
)

const (
	LabelToday     = "Hoje"
	LabelTomorrow  = "Amanhã"
	LabelNoDueDate = "Sem data"
)

// civilDay maps the calendar date of t in loc onto a UTC midnight so that
// day differences are exact across DST changes.
func civilDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts calendar days from now to t in now's location.
// 23:59 today and 00:01 tomorrow are one day apart.
func daysBetween(t, now time.Time) int {
	loc := now.Location()
	return int(civilDay(t, loc).Sub(civilDay(now, loc)) / (24 * time.Hour))
}

func IsToday(t, now time.Time) bool {
	return daysBetween(t, now) == 0
}

func IsTomorrow(t, now time.Time) bool {
	return daysBetween(t, now) == 1
}

// IsPast reports whether t is at or before now.
func IsPast(t, now time.Time) bool {
	return !t.After(now)
}

// IsFuture reports whether t falls after the day after tomorrow.
func IsFuture(t, now time.Time) bool {
	return t.After(now.AddDate(0, 0, 2))
}

// FormatTaskDate renders t as "dd/MM/yyyy às HH:mm" in loc.
func FormatTaskDate(t time.Time, loc *time.Location) string {
	lt := t.In(loc)
	return fmt.Sprintf("%s às %s", lt.Format("02/01/2006"), lt.Format("15:04"))
}

// RelativeLabel classifies due against now's calendar day. Dates other than
// today and tomorrow are rendered with FormatTaskDate in now's location.
func RelativeLabel(due *time.Time, now time.Time) string {
	if due == nil || due.IsZero() {
		return LabelNoDueDate
	}
	switch daysBetween(*due, now) {
	case 0:
		return LabelToday
	case 1:
		return LabelTomorrow
	}
	return FormatTaskDate(*due, now.Location())
}
