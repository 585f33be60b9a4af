package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatKRW(t *testing.T) {
	assert.Equal(t, "0원", FormatKRW(0))
	assert.Equal(t, "9,000원", FormatKRW(9000))
	assert.Equal(t, "1,234,000원", FormatKRW(1234000))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "0%", FormatPercent(0))
	assert.Equal(t, "7.5%", FormatPercent(7.5))
	assert.Equal(t, "75%", FormatPercent(75))
	assert.Equal(t, "120%", FormatPercent(120.4))
}

func TestParseTimestamp(t *testing.T) {
	for _, in := range []string{
		"2026-10-01T09:10:00",
		"2026-10-01T09:10:00.123456",
		"2026-10-01T09:10:00+09:00",
		"2026-10-01 09:10:00",
	} {
		ts, ok := ParseTimestamp(in)
		require.True(t, ok, in)
		assert.Equal(t, 2026, ts.Year())
		assert.Equal(t, 10, ts.Minute())
	}
	_, ok := ParseTimestamp("yesterday")
	assert.False(t, ok)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "Unknown", FormatDate(""))
	assert.Equal(t, "2026.09.01", FormatDate("2026-09-01"))
	assert.Equal(t, "2026.09.01", FormatDate("2026-09-01T12:00:00"))
	assert.Equal(t, "soon", FormatDate("soon"))
	assert.Equal(t, "2026.10.01 09:10", FormatTimestamp("2026-10-01T09:10:00"))
}

func TestFormatDateHuman(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.Local)
	assert.Equal(t, "Unknown", formatDateHumanAt("", now))
	assert.Equal(t, "3 days ago", formatDateHumanAt("2026-10-12T12:00:00", now))
	assert.Equal(t, "2026.09.01", formatDateHumanAt("2026-09-01T12:00:00", now))
}

func TestDaysLeft(t *testing.T) {
	now := time.Date(2026, 10, 15, 18, 0, 0, 0, time.Local)
	assert.Equal(t, 16, DaysLeft("2026-10-31", now))
	assert.Equal(t, 0, DaysLeft("2026-10-01", now))
	assert.Equal(t, -1, DaysLeft("", now))
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "█████░░░░░", ProgressBar(50, 10))
	assert.Equal(t, "██████████", ProgressBar(250, 10))
	assert.Equal(t, "", ProgressBar(50, 0))
}

func TestParseDateInput(t *testing.T) {
	got, err := ParseDateInput("2026.11.01")
	require.NoError(t, err)
	assert.Equal(t, "2026-11-01", got)

	got, err = ParseDateInput("  ")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseDateInput("next week")
	assert.Error(t, err)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "을지로 ...", TruncateString("을지로 순대국집", 7))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "us**@localfund.kr", MaskEmail("user@localfund.kr"))
	assert.Equal(t, "ab@x.kr", MaskEmail("ab@x.kr"))
	assert.Equal(t, "no****", MaskEmail("nomail"))
}
