package notedate

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Unclassified is the folder name used in place of a missing month or day.
const Unclassified = "unclassified"

// ErrInvalidDate is returned when the input matches none of the known formats.
var ErrInvalidDate = errors.New("Invalid date format")

// Granularity tells which parts of a NoteDate were supplied.
type Granularity int

const (
	// GranularityYear is a date with only a year, filed under YYYY/unclassified.
	GranularityYear Granularity = iota
	// GranularityYearMonth has a year and month, filed under YYYY/MM/unclassified.
	GranularityYearMonth
	// GranularityFull has year, month and day, filed under YYYY/MM/DD.
	GranularityFull
)

// String returns "year", "year-month" or "full".
func (g Granularity) String() string {
	switch g {
	case GranularityYear:
		return "year"
	case GranularityYearMonth:
		return "year-month"
	case GranularityFull:
		return "full"
	}
	return "unknown"
}

// The separator is a single non-digit character, so "2021.03.04", "2021-03-04"
// and "2021/03/04" are all accepted while "20210304" is not.
var (
	fullDatePattern  = regexp.MustCompile(`^(\d{4})[^0-9](\d{2})[^0-9](\d{2})$`)
	yearMonthPattern = regexp.MustCompile(`^(\d{4})[^0-9](\d{2})$`)
	yearPattern      = regexp.MustCompile(`^(\d{4})$`)
)

// NoteDate is a partial calendar date. Month is set for year-month and full
// dates, Day only for full dates. Values are not checked against a calendar.
type NoteDate struct {
	Year        int
	Month       int
	Day         int
	Granularity Granularity
}

// YearOnly returns a date with only the year set.
func YearOnly(year int) NoteDate {
	return NoteDate{Year: year, Granularity: GranularityYear}
}

// YearMonth returns a date with year and month set.
func YearMonth(year, month int) NoteDate {
	return NoteDate{Year: year, Month: month, Granularity: GranularityYearMonth}
}

// FullDate returns a date with year, month and day set.
func FullDate(year, month, day int) NoteDate {
	return NoteDate{Year: year, Month: month, Day: day, Granularity: GranularityFull}
}

// HasMonth reports whether the month was supplied.
func (d NoteDate) HasMonth() bool {
	return d.Granularity == GranularityYearMonth || d.Granularity == GranularityFull
}

// HasDay reports whether the day was supplied.
func (d NoteDate) HasDay() bool {
	return d.Granularity == GranularityFull
}

// Parse recognizes, in order, a full date, a year-month and a bare year.
// Surrounding whitespace is ignored.
func Parse(text string) (NoteDate, error) {
	text = strings.TrimSpace(text)

	if m := fullDatePattern.FindStringSubmatch(text); m != nil {
		return FullDate(atoi(m[1]), atoi(m[2]), atoi(m[3])), nil
	}
	if m := yearMonthPattern.FindStringSubmatch(text); m != nil {
		return YearMonth(atoi(m[1]), atoi(m[2])), nil
	}
	if m := yearPattern.FindStringSubmatch(text); m != nil {
		return YearOnly(atoi(m[1])), nil
	}

	return NoteDate{}, ErrInvalidDate
}

// Segments returns the directory names the date maps to under the archive root.
func (d NoteDate) Segments() []string {
	segments := []string{strconv.Itoa(d.Year)}
	if !d.HasMonth() {
		return append(segments, Unclassified)
	}

	segments = append(segments, fmt.Sprintf("%02d", d.Month))
	if d.HasDay() {
		return append(segments, fmt.Sprintf("%02d", d.Day))
	}
	return append(segments, Unclassified)
}

// Path joins Segments with the OS path separator.
func (d NoteDate) Path() string {
	return filepath.Join(d.Segments()...)
}

func (d NoteDate) String() string {
	switch d.Granularity {
	case GranularityFull:
		return fmt.Sprintf("%04d.%02d.%02d", d.Year, d.Month, d.Day)
	case GranularityYearMonth:
		return fmt.Sprintf("%04d.%02d", d.Year, d.Month)
	default:
		return fmt.Sprintf("%04d", d.Year)
	}
}

// atoi is only called on regexp groups of ASCII digits.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
