package planning_test

import (
	"testing"
	"time"

	"github.com/xarlytos/fitplanner/internal/planning"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	for raw, expected := range map[string]planning.Date{
		"2024-05-01":                "2024-05-01",
		"2024-05-01T00:00:00.000Z":  "2024-05-01",
		"2024-05-01T23:30:00+02:00": "2024-05-01",
		" 2024-12-31 ":              "2024-12-31",
		"2024-02-29 08:00:00":       "2024-02-29",
	} {
		d, err := planning.ParseDate(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, expected, d, raw)
	}

	for _, raw := range []string{"", "T10:00", "2023-02-29", "01/05/2024", "tomorrow"} {
		_, err := planning.ParseDate(raw)
		assert.Error(t, err, raw)
	}
}

func TestDate_AddDays(t *testing.T) {
	d := planning.MustParseDate("2024-02-27")
	assert.Equal(t, planning.Date("2024-02-29"), d.AddDays(2))
	assert.Equal(t, planning.Date("2024-03-01"), d.AddDays(3))
	assert.Equal(t, planning.Date("2023-12-31"), planning.Date("2024-01-01").AddDays(-1))
	assert.Equal(t, planning.Date("garbage"), planning.Date("garbage").AddDays(1))
}

func TestDateOf(t *testing.T) {
	madrid := time.FixedZone("CEST", 2*60*60)
	ts := time.Date(2024, 5, 1, 0, 30, 0, 0, madrid)
	assert.Equal(t, planning.Date("2024-05-01"), planning.DateOf(ts))
	assert.Equal(t, planning.Date("2024-04-30"), planning.DateOf(ts.UTC()))
}

func TestDate_Weekday(t *testing.T) {
	assert.Equal(t, time.Wednesday, planning.Date("2024-05-01").Weekday())
	assert.Equal(t, time.Sunday, planning.Date("2024-05-05").Weekday())
	assert.True(t, planning.Date("").IsZero())
}
