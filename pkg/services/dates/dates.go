package dates

import (
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/consent-funnel/pkg/models/domain"
)

const (
	dayLayout   = "02_01_2006"
	monthLayout = "01_2006"
)

// Parse turns a textual date spec into a domain.DateSpec. Three forms are
// accepted: an exact day (dd_mm_yyyy), a month wildcard (*mm_yyyy), and an
// inclusive range (dd_mm_yyyy -> dd_mm_yyyy). A malformed spec is fatal for
// the whole run; callers must not retry.
func Parse(raw string) (domain.DateSpec, error) {
	trimmed := strings.TrimSpace(raw)

	if strings.Contains(trimmed, "->") {
		parts := strings.SplitN(trimmed, "->", 2)
		start, err := time.Parse(dayLayout, strings.TrimSpace(parts[0]))
		if err != nil {
			return domain.DateSpec{}, fmt.Errorf("failed to parse range start %q: %w", strings.TrimSpace(parts[0]), err)
		}
		end, err := time.Parse(dayLayout, strings.TrimSpace(parts[1]))
		if err != nil {
			return domain.DateSpec{}, fmt.Errorf("failed to parse range end %q: %w", strings.TrimSpace(parts[1]), err)
		}
		if end.Before(start) {
			return domain.DateSpec{}, fmt.Errorf("range start %s is after range end %s", parts[0], parts[1])
		}
		return domain.DateSpec{Kind: domain.DateRange, Start: start, End: end, Raw: trimmed}, nil
	}

	if strings.HasPrefix(trimmed, "*") {
		month, err := time.Parse(monthLayout, strings.TrimPrefix(trimmed, "*"))
		if err != nil {
			return domain.DateSpec{}, fmt.Errorf("failed to parse month spec %q: %w", trimmed, err)
		}
		return domain.DateSpec{Kind: domain.DateMonth, Start: month, Raw: trimmed}, nil
	}

	day, err := time.Parse(dayLayout, trimmed)
	if err != nil {
		return domain.DateSpec{}, fmt.Errorf("failed to parse date spec %q: %w", trimmed, err)
	}
	return domain.DateSpec{Kind: domain.DateSingle, Start: day, Raw: trimmed}, nil
}

// Single builds the spec for one exact day. Used for the yesterday default.
func Single(day time.Time) domain.DateSpec {
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return domain.DateSpec{Kind: domain.DateSingle, Start: day, Raw: day.Format(dayLayout)}
}

// DayToken formats a day the way the warehouse names its daily datasets.
func DayToken(day time.Time) string {
	return day.Format(dayLayout)
}

// MonthToken formats a month as the wildcard dataset name covering it.
func MonthToken(month time.Time) string {
	return "*" + month.Format(monthLayout)
}

// Days returns the ordered day tokens covered by the spec: exactly one for a
// single day, every day of the month for a month spec, and the inclusive
// gap-free day sequence for a range.
func Days(spec domain.DateSpec) []string {
	switch spec.Kind {
	case domain.DateSingle:
		return []string{DayToken(spec.Start)}
	case domain.DateMonth:
		first := time.Date(spec.Start.Year(), spec.Start.Month(), 1, 0, 0, 0, 0, time.UTC)
		return daysBetween(first, first.AddDate(0, 1, -1))
	default:
		return daysBetween(spec.Start, spec.End)
	}
}

// Months returns the ordered distinct month tokens covered by the spec.
// Used when a dataset only exists at month granularity.
func Months(spec domain.DateSpec) []string {
	switch spec.Kind {
	case domain.DateSingle, domain.DateMonth:
		return []string{MonthToken(spec.Start)}
	default:
		var out []string
		cur := time.Date(spec.Start.Year(), spec.Start.Month(), 1, 0, 0, 0, 0, time.UTC)
		for !cur.After(spec.End) {
			out = append(out, MonthToken(cur))
			cur = cur.AddDate(0, 1, 0)
		}
		return out
	}
}

func daysBetween(start, end time.Time) []string {
	var out []string
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
		out = append(out, DayToken(cur))
	}
	return out
}
