package order

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MonthLayout is the YYYY/MM form used to address one billing month.
const MonthLayout = "2006/01"

// ParseDate parses a canonical YYYY/MM/DD date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders a time in the canonical YYYY/MM/DD form.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// NextWeekdays returns Monday through Friday of the week after base, as
// canonical date strings. When base itself is a Monday the following Monday
// is used, so the result is always strictly in the future.
func NextWeekdays(base time.Time) []string {
	day := time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, base.Location())
	daysUntilMonday := (int(time.Monday) - int(day.Weekday()) + 7) % 7
	if daysUntilMonday == 0 {
		daysUntilMonday = 7
	}
	monday := day.AddDate(0, 0, daysUntilMonday)
	return weekdaysFrom(monday)
}

// CurrentWeekdays returns Monday through Friday of the week containing base.
func CurrentWeekdays(base time.Time) []string {
	day := time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, base.Location())
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7 // Sunday belongs to the week that just ended
	}
	monday := day.AddDate(0, 0, -offset)
	return weekdaysFrom(monday)
}

func weekdaysFrom(monday time.Time) []string {
	days := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		days = append(days, FormatDate(monday.AddDate(0, 0, i)))
	}
	return days
}

// PeriodKey derives the snapshot key for a week from its first and last
// dates, e.g. "2025.12.15-12.19". The end year is dropped: order weeks never
// span a year boundary in this domain.
func PeriodKey(startDate, endDate string) string {
	startParts := strings.Split(startDate, "/")
	endParts := strings.Split(endDate, "/")
	if len(startParts) != 3 || len(endParts) != 3 {
		return ""
	}
	return fmt.Sprintf("%s.%s.%s-%s.%s",
		startParts[0], startParts[1], startParts[2], endParts[1], endParts[2])
}

// GroupByMonth buckets canonical date strings by their YYYY.MM month key.
// A week that crosses a month boundary deliberately splits in two: the
// order card and the invoice aggregation are both monthly artifacts.
func GroupByMonth(dates []string) map[string][]string {
	grouped := make(map[string][]string)
	for _, d := range dates {
		parts := strings.Split(d, "/")
		if len(parts) != 3 {
			continue
		}
		key := parts[0] + "." + parts[1]
		grouped[key] = append(grouped[key], d)
	}
	return grouped
}

// MonthKeys returns the keys of a GroupByMonth result in ascending order.
func MonthKeys(grouped map[string][]string) []string {
	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WeekNumberInMonth returns which week-of-month block a date falls in,
// 1 through 5, by day number alone (days 1-7 are week 1 and so on).
func WeekNumberInMonth(t time.Time) int {
	return (t.Day()-1)/7 + 1
}

// MonthOf extracts the YYYY/MM billing month from a canonical date string.
func MonthOf(date string) string {
	if len(date) < 7 {
		return ""
	}
	return date[:7]
}
