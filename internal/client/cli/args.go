package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/dmitrijs2005/weekplanner/internal/timex"
)

// resolveID expands a unique prefix of one of ids. An exact match always
// wins.
func resolveID(kind, prefix string, ids []string) (string, error) {
	var found []string
	for _, id := range ids {
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(id, prefix) {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%s %q: %w", kind, prefix, common.ErrorNotFound)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%w: %s prefix %q is ambiguous (%d matches)", common.ErrorValidation, kind, prefix, len(found))
	}
}

// parseDay accepts YYYY-MM-DD, "today", "tomorrow", "yesterday" and weekday
// names, which refer to that day of the week starting at weekStart.
func parseDay(s string, today, weekStart timex.Date) (timex.Date, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDays(1), nil
	case "yesterday":
		return today.AddDays(-1), nil
	default:
		if wd, ok := weekdays[v]; ok {
			return weekStart.AddDays((int(wd) + 6) % 7), nil
		}
	}
	d, err := timex.ParseDate(s)
	if err != nil {
		return timex.Date{}, fmt.Errorf("%w: invalid date %q, use YYYY-MM-DD, today or a weekday", common.ErrorValidation, s)
	}
	return d, nil
}

var weekdays = map[string]time.Weekday{
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
	"sun": time.Sunday, "sunday": time.Sunday,
}
