package reporting

import (
	"errors"
	"fmt"
	"time"
)

// Preset names a reporting period.
type Preset string

const (
	PresetToday     Preset = "today"
	PresetWeek      Preset = "week"
	PresetMonth     Preset = "month"
	PresetLastMonth Preset = "lastmonth"
	PresetQuarter   Preset = "quarter"
	PresetYear      Preset = "year"
	PresetCustom    Preset = "custom"
)

// ErrInvalidRange is returned for unknown presets and malformed custom ranges.
var ErrInvalidRange = errors.New("invalid date range")

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Preset Preset
	Start  time.Time
	End    time.Time
}

// StartDate formats the first day.
func (r DateRange) StartDate() string { return r.Start.Format(dateLayout) }

// EndDate formats the last day.
func (r DateRange) EndDate() string { return r.End.Format(dateLayout) }

// Days is the number of calendar days covered.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24+0.5) + 1
}

// Contains reports whether a YYYY-MM-DD date falls inside the range.
func (r DateRange) Contains(date string) bool {
	if len(date) > len(dateLayout) {
		date = date[:len(dateLayout)]
	}
	return date >= r.StartDate() && date <= r.EndDate()
}

// Previous is the span of equal length that ends the day before r starts.
func (r DateRange) Previous() DateRange {
	end := r.Start.AddDate(0, 0, -1)
	return DateRange{Preset: r.Preset, Start: end.AddDate(0, 0, -(r.Days() - 1)), End: end}
}

// ResolveRange turns a preset into dates relative to now. now should already
// be in the cooperative's timezone. An empty preset means the current month.
func ResolveRange(preset Preset, now time.Time, customStart, customEnd string) (DateRange, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	r := DateRange{Preset: preset, End: today}

	switch preset {
	case PresetToday:
		r.Start = today
	case PresetWeek:
		offset := (int(today.Weekday()) + 6) % 7
		r.Start = today.AddDate(0, 0, -offset)
	case PresetMonth, "":
		r.Preset = PresetMonth
		r.Start = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	case PresetLastMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		r.Start = first.AddDate(0, -1, 0)
		r.End = first.AddDate(0, 0, -1)
	case PresetQuarter:
		month := time.Month((int(today.Month())-1)/3*3 + 1)
		r.Start = time.Date(today.Year(), month, 1, 0, 0, 0, 0, today.Location())
	case PresetYear:
		r.Start = time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
	case PresetCustom:
		start, err := time.ParseInLocation(dateLayout, customStart, today.Location())
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: start date %q", ErrInvalidRange, customStart)
		}
		end, err := time.ParseInLocation(dateLayout, customEnd, today.Location())
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: end date %q", ErrInvalidRange, customEnd)
		}
		if end.Before(start) {
			return DateRange{}, fmt.Errorf("%w: end date before start date", ErrInvalidRange)
		}
		r.Start, r.End = start, end
	default:
		return DateRange{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidRange, preset)
	}
	return r, nil
}
