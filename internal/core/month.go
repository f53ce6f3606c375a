package core

import (
	"fmt"
	"time"
)

// Month is a calendar month. Month comparisons go through Index so that
// year boundaries are handled with integer arithmetic only.
type Month struct {
	Year  int
	Month time.Month
}

func NewMonth(year int, month time.Month) Month {
	return Month{Year: year, Month: month}
}

// MonthOf returns the month t falls in, evaluated in t's own location.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// MonthFromIndex is the inverse of Month.Index.
func MonthFromIndex(idx int) Month {
	year := idx / 12
	m := idx % 12
	if m < 0 {
		m += 12
		year--
	}
	return Month{Year: year, Month: time.Month(m + 1)}
}

// Index returns year*12 + zero-based month.
func (m Month) Index() int {
	return m.Year*12 + int(m.Month) - 1
}

func (m Month) Previous() Month {
	return MonthFromIndex(m.Index() - 1)
}

// Days returns the number of calendar days in the month.
func (m Month) Days() int {
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (m Month) Validate() error {
	if m.Month < time.January || m.Month > time.December {
		return fmt.Errorf("%w: month must be between 1 and 12", ErrValidation)
	}
	return nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}
