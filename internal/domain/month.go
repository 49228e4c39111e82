package domain

import (
	"fmt"
	"sort"
	"time"
)

// Month is a three-letter English month code, e.g. "Jan".
type Month string

const (
	Jan Month = "Jan"
	Feb Month = "Feb"
	Mar Month = "Mar"
	Apr Month = "Apr"
	May Month = "May"
	Jun Month = "Jun"
	Jul Month = "Jul"
	Aug Month = "Aug"
	Sep Month = "Sep"
	Oct Month = "Oct"
	Nov Month = "Nov"
	Dec Month = "Dec"
)

// CanonicalMonths is the calendar display order shared by every monthly table.
var CanonicalMonths = []Month{Jan, Feb, Mar, Apr, May, Jun, Jul, Aug, Sep, Oct, Nov, Dec}

// Index returns the 1-based calendar position of m, or 0 if m is not a month code.
func (m Month) Index() int {
	for i, c := range CanonicalMonths {
		if c == m {
			return i + 1
		}
	}
	return 0
}

// Valid reports whether m is one of the 12 canonical codes.
func (m Month) Valid() bool { return m.Index() > 0 }

// ParseMonth validates a three-letter month code.
func ParseMonth(s string) (Month, error) {
	m := Month(s)
	if !m.Valid() {
		return "", fmt.Errorf("parse month: %q is not a three-letter month code", s)
	}
	return m, nil
}

// MonthOf returns the abbreviated month of t.
func MonthOf(t time.Time) Month {
	return Month(t.Format("Jan"))
}

// sortByMonth orders rows by calendar month, keeping the input order of rows
// that share a month.
func sortByMonth[T MonthlyRecord](rows []T) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Key().Index() < rows[j].Key().Index()
	})
}
