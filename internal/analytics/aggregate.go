// Package analytics folds event projections into the admin dashboard report.
package analytics

import (
	"sort"
	"time"

	"github.com/jwalitptl/eventflow-api/internal/model"
)

const (
	TrendWindow   = 365 * 24 * time.Hour
	PeakTimeLimit = 10
)

// Aggregate computes a report. periodRows are the events created inside the
// requested period; trailingRows are the events created inside the trailing
// trend window. Both must be ordered by creation time.
func Aggregate(period string, periodRows, trailingRows []model.AnalyticsRow) *model.AnalyticsReport {
	report := &model.AnalyticsReport{
		Period:           period,
		TotalEvents:      len(periodRows),
		EventsByStatus:   countBy(periodRows, func(r model.AnalyticsRow) string { return string(r.Status) }),
		EventsByCategory: countBy(periodRows, func(r model.AnalyticsRow) string { return string(r.Category) }),
		MonthlyTrends:    monthlyTrends(trailingRows),
		PeakTimes:        peakTimes(periodRows),
	}
	report.AverageRating, report.TotalFeedback = ratings(periodRows)
	return report
}

// countBy groups rows by key, largest group first, ties by key.
func countBy(rows []model.AnalyticsRow, key func(model.AnalyticsRow) string) []model.GroupCount {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[key(r)]++
	}

	out := make([]model.GroupCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, model.GroupCount{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// ratings averages every feedback entry, so an event with three ratings
// weighs three times as much as an event with one.
func ratings(rows []model.AnalyticsRow) (float64, int) {
	var sum, n int
	for _, r := range rows {
		for _, rating := range r.Ratings {
			sum += rating
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return float64(sum) / float64(n), n
}

func monthlyTrends(rows []model.AnalyticsRow) []model.MonthlyCount {
	counts := make(map[model.MonthKey]int)
	for _, r := range rows {
		t := r.CreatedAt.UTC()
		counts[model.MonthKey{Year: t.Year(), Month: int(t.Month())}]++
	}

	out := make([]model.MonthlyCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, model.MonthlyCount{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Year != out[j].Key.Year {
			return out[i].Key.Year < out[j].Key.Year
		}
		return out[i].Key.Month < out[j].Key.Month
	})
	return out
}

func peakTimes(rows []model.AnalyticsRow) []model.PeakTime {
	index := make(map[model.PeakKey]int)
	var out []model.PeakTime
	for _, r := range rows {
		k := PeakKeyFor(r.EventDate, r.EventTime)
		if i, ok := index[k]; ok {
			out[i].Count++
			continue
		}
		index[k] = len(out)
		out = append(out, model.PeakTime{Key: k, Count: 1})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if len(out) > PeakTimeLimit {
		out = out[:PeakTimeLimit]
	}
	if out == nil {
		out = []model.PeakTime{}
	}
	return out
}

// PeakKeyFor buckets an event by weekday (1 = Sunday) and the first two
// characters of its start time.
func PeakKeyFor(date time.Time, eventTime string) model.PeakKey {
	hour := eventTime
	if len(hour) > 2 {
		hour = hour[:2]
	}
	return model.PeakKey{
		DayOfWeek: int(date.UTC().Weekday()) + 1,
		Hour:      hour,
	}
}
