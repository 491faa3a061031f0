package duecheck

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRelativeLabel_CalendarBoundary(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2025, time.June, 13, 23, 58, 0, 0, loc)

	lateToday := time.Date(2025, time.June, 13, 23, 59, 0, 0, loc)
	earlyTomorrow := time.Date(2025, time.June, 14, 0, 1, 0, 0, loc)

	assert.Equal(t, 2*time.Minute, earlyTomorrow.Sub(lateToday))
	assert.Equal(t, LabelToday, RelativeLabel(&lateToday, now))
	assert.Equal(t, LabelTomorrow, RelativeLabel(&earlyTomorrow, now))
}

func TestRelativeLabel_UsesNowLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2025, time.June, 13, 22, 0, 0, 0, loc)
	// 02:00 UTC on the 14th is still the 13th in UTC-3
	due := time.Date(2025, time.June, 14, 2, 0, 0, 0, time.UTC)

	assert.Equal(t, LabelToday, RelativeLabel(&due, now))
}

func TestRelativeLabel_OtherDates(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2025, time.June, 13, 10, 0, 0, 0, loc)
	later := time.Date(2025, time.June, 20, 9, 5, 0, 0, loc)
	yesterday := time.Date(2025, time.June, 12, 18, 30, 0, 0, loc)

	assert.Equal(t, "20/06/2025 às 09:05", RelativeLabel(&later, now))
	assert.Equal(t, "12/06/2025 às 18:30", RelativeLabel(&yesterday, now))
	assert.Equal(t, LabelNoDueDate, RelativeLabel(nil, now))
}

func TestRelativeLabel_AcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// clocks spring forward on 2025-03-09
	now := time.Date(2025, time.March, 8, 23, 30, 0, 0, loc)
	due := time.Date(2025, time.March, 9, 23, 30, 0, 0, loc)

	assert.Equal(t, LabelTomorrow, RelativeLabel(&due, now))
}

func TestDateHelpers(t *testing.T) {
	now := time.Date(2025, time.June, 13, 10, 0, 0, 0, time.UTC)

	assert.True(t, IsToday(now.Add(13*time.Hour), now))
	assert.True(t, IsTomorrow(now.Add(14*time.Hour), now))
	assert.True(t, IsPast(now, now))
	assert.False(t, IsPast(now.Add(time.Second), now))
	assert.False(t, IsFuture(now.Add(47*time.Hour), now))
	assert.True(t, IsFuture(now.Add(49*time.Hour), now))
}
