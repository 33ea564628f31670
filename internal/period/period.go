// Package period turns reporting shortcuts like "last-month" into date ranges.
package period

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/jipange/internal/model"
	"github.com/Veraticus/jipange/internal/service"
)

// Named periods.
const (
	ThisMonth = "this-month"
	LastMonth = "last-month"
	ThisYear  = "this-year"
	LastYear  = "last-year"
	All       = "all"
)

// Names lists the named periods accepted by Resolve.
var Names = []string{ThisMonth, LastMonth, ThisYear, LastYear, All}

var (
	// ErrUnknownPeriod is returned for a period name Resolve does not know.
	ErrUnknownPeriod = errors.New("unknown period")
	// ErrInvertedRange is returned when a custom range starts after it ends.
	ErrInvertedRange = errors.New("from date must not be after to date")
)

// Period is a resolved date range with a label for display.
type Period struct {
	Label string
	Range service.DateRange
}

// Resolve maps a period name to an inclusive date range relative to now.
// Ranges are expressed in calendar dates at midnight UTC, the same way
// transaction dates are stored.
func Resolve(name string, now time.Time) (Period, error) {
	y, m, _ := now.Date()
	firstOfMonth := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	firstOfYear := time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC)

	switch strings.ToLower(strings.TrimSpace(name)) {
	case ThisMonth:
		end := firstOfMonth.AddDate(0, 1, -1)
		return newPeriod(fmt.Sprintf("This month (%s)", firstOfMonth.Format("January 2006")), firstOfMonth, end), nil
	case LastMonth:
		start := firstOfMonth.AddDate(0, -1, 0)
		end := firstOfMonth.AddDate(0, 0, -1)
		return newPeriod(fmt.Sprintf("Last month (%s)", start.Format("January 2006")), start, end), nil
	case ThisYear:
		end := firstOfYear.AddDate(1, 0, -1)
		return newPeriod(fmt.Sprintf("This year (%d)", y), firstOfYear, end), nil
	case LastYear:
		start := firstOfYear.AddDate(-1, 0, 0)
		end := firstOfYear.AddDate(0, 0, -1)
		return newPeriod(fmt.Sprintf("Last year (%d)", y-1), start, end), nil
	case All, "":
		return Period{Label: "All time"}, nil
	default:
		return Period{}, fmt.Errorf("%w %q, expected one of %s",
			ErrUnknownPeriod, name, strings.Join(Names, ", "))
	}
}

// Between builds a custom period from optional YYYY-MM-DD bounds.
func Between(from, to string) (Period, error) {
	var p Period

	if from != "" {
		start, err := time.Parse(model.DateLayout, from)
		if err != nil {
			return Period{}, fmt.Errorf("invalid from date format (use YYYY-MM-DD): %w", err)
		}
		p.Range.Start = &start
	}
	if to != "" {
		end, err := time.Parse(model.DateLayout, to)
		if err != nil {
			return Period{}, fmt.Errorf("invalid to date format (use YYYY-MM-DD): %w", err)
		}
		p.Range.End = &end
	}

	if p.Range.Start != nil && p.Range.End != nil && p.Range.Start.After(*p.Range.End) {
		return Period{}, ErrInvertedRange
	}

	p.Label = label(p.Range)
	return p, nil
}

func newPeriod(label string, start, end time.Time) Period {
	return Period{
		Label: label,
		Range: service.DateRange{Start: &start, End: &end},
	}
}

func label(r service.DateRange) string {
	switch {
	case r.Start != nil && r.End != nil:
		return fmt.Sprintf("%s to %s", r.Start.Format(model.DateLayout), r.End.Format(model.DateLayout))
	case r.Start != nil:
		return "Since " + r.Start.Format(model.DateLayout)
	case r.End != nil:
		return "Through " + r.End.Format(model.DateLayout)
	default:
		return "All time"
	}
}
