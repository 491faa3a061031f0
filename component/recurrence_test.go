package component

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextOccurrence(t *testing.T) {
	base := time.Date(2025, time.January, 31, 9, 30, 0, 0, ServerLocation)

	tests := []struct {
		name string
		due  time.Time
		typ  RecurrenceType
		want time.Time
	}{
		{"daily", base, Daily, time.Date(2025, time.February, 1, 9, 30, 0, 0, ServerLocation)},
		{"weekly", base, Weekly, time.Date(2025, time.February, 7, 9, 30, 0, 0, ServerLocation)},
		{"monthly clamps to february", base, Monthly, time.Date(2025, time.February, 28, 9, 30, 0, 0, ServerLocation)},
		{"monthly leap year", time.Date(2024, time.January, 30, 8, 0, 0, 0, ServerLocation), Monthly, time.Date(2024, time.February, 29, 8, 0, 0, 0, ServerLocation)},
		{"monthly december rolls year", time.Date(2025, time.December, 15, 8, 0, 0, 0, ServerLocation), Monthly, time.Date(2026, time.January, 15, 8, 0, 0, 0, ServerLocation)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextOccurrence(tt.due, tt.typ)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestNextOccurrence_UnknownType(t *testing.T) {
	_, ok := NextOccurrence(time.Now(), RecurrenceType("yearly"))
	assert.False(t, ok)
	assert.False(t, RecurrenceType("").Valid())
}

func TestRecurrenceLabel(t *testing.T) {
	assert.Equal(t, "Semanalmente", RecurrenceLabel(Weekly))
	assert.Equal(t, "Não recorrente", RecurrenceLabel(""))
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("2025-06-13T10:00:00.123456-03:00", nil)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Hour())

	naive, err := ParseTimestamp("2025-06-13T10:00", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, naive.Location())

	_, err = ParseTimestamp("not a date", nil)
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
}
