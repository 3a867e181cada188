package dialect

import (
	"fmt"
	"regexp"
	"time"
)

// YearMonth is a calendar month in UTC.
type YearMonth struct {
	Year  int
	Month time.Month
}

// MonthOf returns the UTC calendar month containing t.
func MonthOf(t time.Time) YearMonth {
	u := t.UTC()
	return YearMonth{Year: u.Year(), Month: u.Month()}
}

// ParseYearMonth parses "YYYY-MM".
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid month %q (want YYYY-MM): %w", s, err)
	}
	return MonthOf(t), nil
}

// Start is the first instant of the month.
func (ym YearMonth) Start() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the first instant of the following month (exclusive bound).
func (ym YearMonth) End() time.Time {
	return ym.Start().AddDate(0, 1, 0)
}

// Contains reports whether t falls in [Start, End).
func (ym YearMonth) Contains(t time.Time) bool {
	u := t.UTC()
	return !u.Before(ym.Start()) && u.Before(ym.End())
}

// Compare returns -1, 0 or 1 ordering ym against other chronologically.
func (ym YearMonth) Compare(other YearMonth) int {
	switch {
	case ym.Year != other.Year:
		if ym.Year < other.Year {
			return -1
		}
		return 1
	case ym.Month != other.Month:
		if ym.Month < other.Month {
			return -1
		}
		return 1
	default:
		return 0
	}
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

func (ym YearMonth) suffix() string {
	return fmt.Sprintf("%04d_%02d", ym.Year, int(ym.Month))
}

var partitionSuffix = regexp.MustCompile(`_\d{4}_\d{2}$`)

// PartitionName returns base suffixed with _YYYY_MM for t's UTC month. A base
// that already carries such a suffix is returned unchanged.
func PartitionName(base string, t time.Time) string {
	if partitionSuffix.MatchString(base) {
		return base
	}
	return base + "_" + MonthOf(t).suffix()
}

// parsePartitionMonth extracts the month from a child table name of parent.
func parsePartitionMonth(parent, child string) (YearMonth, error) {
	prefix := parent + "_"
	if len(child) != len(prefix)+len("2006_01") || child[:len(prefix)] != prefix {
		return YearMonth{}, fmt.Errorf("partition %q does not belong to %q", child, parent)
	}
	t, err := time.Parse("2006_01", child[len(prefix):])
	if err != nil {
		return YearMonth{}, fmt.Errorf("partition %q: %w", child, err)
	}
	return MonthOf(t), nil
}
