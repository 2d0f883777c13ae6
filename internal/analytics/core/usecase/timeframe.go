package usecase

import (
	"encoding/json"
	"time"

	"marketing-analytics-service/internal/analytics/core/ports"
)

const defaultTimeframe = "30d"

var timeframeDays = map[string]int{
	"1d":  1,
	"7d":  7,
	"30d": 30,
	"90d": 90,
	"1y":  365,
}

// resolveTimeframe maps a timeframe token onto a concrete date range ending
// now. An empty token means the default window. The range covers exactly
// `days` calendar days including today, so a 7d window starts at midnight
// six days ago and charts as seven points.
func resolveTimeframe(now time.Time, timeframe string) (string, ports.DateRange, error) {
	if timeframe == "" {
		timeframe = defaultTimeframe
	}
	days, ok := timeframeDays[timeframe]
	if !ok {
		return "", ports.DateRange{}, ErrInvalidTimeframe
	}
	start := now.UTC().AddDate(0, 0, -(days - 1)).Truncate(24 * time.Hour)
	return timeframe, ports.DateRange{Start: start, End: now}, nil
}

// eachDay lists the calendar days covered by the range, formatted
// YYYY-MM-DD, both endpoints included.
func eachDay(rng ports.DateRange) []string {
	start := rng.Start.UTC().Truncate(24 * time.Hour)
	end := rng.End.UTC().Truncate(24 * time.Hour)

	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format("2006-01-02"))
	}
	return days
}

func dayCountMap(counts []ports.DayCount) map[string]int64 {
	m := make(map[string]int64, len(counts))
	for _, c := range counts {
		m[c.Day.UTC().Format("2006-01-02")] = c.Count
	}
	return m
}

// payloadSize approximates the serialized size of a result for tracking.
func payloadSize(v any) int {
	b, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return len(b)
}
