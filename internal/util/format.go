package util

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Timestamp layouts the backend uses.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a backend timestamp. Zone-less values are local time.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatKRW formats an amount as "1,234,000원".
func FormatKRW(amount int64) string {
	return humanize.Comma(amount) + "원"
}

// FormatPercent formats funding progress as "75%" or "7.5%".
func FormatPercent(p float64) string {
	if p >= 10 || p == 0 {
		return fmt.Sprintf("%.0f%%", p)
	}
	return fmt.Sprintf("%.1f%%", p)
}

// FormatDate formats a date string (YYYY-MM-DD) for display.
func FormatDate(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return "Unknown"
	}
	t, ok := ParseTimestamp(date)
	if !ok {
		return date
	}
	return t.Format("2006.01.02")
}

// FormatTimestamp formats a backend timestamp as "2006.01.02 15:04".
func FormatTimestamp(ts string) string {
	t, ok := ParseTimestamp(ts)
	if !ok {
		return ts
	}
	return t.Format("2006.01.02 15:04")
}

// FormatDateHuman formats a timestamp relative to now.
// "just now", "5 minutes ago", "3 days ago", "2026.01.15"
func FormatDateHuman(ts string) string {
	return formatDateHumanAt(ts, time.Now())
}

func formatDateHumanAt(ts string, now time.Time) string {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return "Unknown"
	}
	t, ok := ParseTimestamp(ts)
	if !ok {
		return ts
	}
	if now.Sub(t) > 7*24*time.Hour {
		return t.Format("2006.01.02")
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// FundingPeriod formats a funding window, e.g. "2026.09.01 ~ 2026.11.30".
func FundingPeriod(start, end string) string {
	if strings.TrimSpace(start) == "" && strings.TrimSpace(end) == "" {
		return "—"
	}
	return FormatDate(start) + " ~ " + FormatDate(end)
}

// DaysLeft returns the whole days until end, or -1 when end is unknown.
func DaysLeft(end string, now time.Time) int {
	t, ok := ParseTimestamp(end)
	if !ok {
		return -1
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endDay := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
	days := int(math.Round(endDay.Sub(today).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

// ProgressBar renders p percent as a bar of width cells, capped at full.
func ProgressBar(p float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(p / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// TodayISO returns today's date in ISO 8601 format (YYYY-MM-DD).
func TodayISO() string {
	return time.Now().Format("2006-01-02")
}

// ValidateDate validates a date string in YYYY-MM-DD format.
func ValidateDate(date string) error {
	_, err := time.Parse("2006-01-02", date)
	return err
}

// ParseDateInput parses flexible user input and normalizes to ISO (YYYY-MM-DD).
// Empty input is allowed and returns "".
func ParseDateInput(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", nil
	}

	layouts := []string{
		"2006-01-02",
		"2006.01.02",
		"2006/01/02",
		"20060102",
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}

	return "", fmt.Errorf("invalid date format")
}

// TruncateString truncates a string to maxLen and adds "..." if needed.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// MaskEmail keeps the first two characters of the local part.
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	runes := []rune(local)
	if len(runes) > 2 {
		local = string(runes[:2]) + strings.Repeat("*", len(runes)-2)
	}
	if !ok {
		return local
	}
	return local + "@" + domain
}
