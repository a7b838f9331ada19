package render

import (
	"fmt"
	"strconv"
	"time"
)

// FormatDuration renders a time window in the largest whole unit, e.g. "10 minutes" or "1 hour".
func FormatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0 minutes"
	case d%(24*time.Hour) == 0:
		return plural(int64(d/(24*time.Hour)), "day")
	case d%time.Hour == 0:
		return plural(int64(d/time.Hour), "hour")
	case d%time.Minute == 0:
		return plural(int64(d/time.Minute), "minute")
	default:
		return plural(int64(d/time.Second), "second")
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatValue renders a metric value without trailing zeros.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// AggregateText turns an aggregate function into the noun used after the metric value.
func AggregateText(aggregate string) string {
	switch aggregate {
	case "count()":
		return "events"
	case "count_unique(user)", "count_unique(tags[sentry:user])":
		return "users affected"
	default:
		return aggregate
	}
}

// Footer is the attribution line shown under chat and paging attachments.
func Footer(brand string, started time.Time) string {
	return fmt.Sprintf("%s Incident | %s", brand, started.Format("Jan 02"))
}
