package analytics

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/eventflow-api/internal/model"
)

func row(created time.Time, status model.EventStatus, category model.EventCategory, date time.Time, at string, ratings ...int) model.AnalyticsRow {
	return model.AnalyticsRow{
		ID:        uuid.New(),
		CreatedAt: created,
		Status:    status,
		Category:  category,
		EventDate: date,
		EventTime: at,
		Ratings:   ratings,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAggregate_Counts(t *testing.T) {
	// 2024-03-04 is a Monday, 2024-03-10 a Sunday
	rows := []model.AnalyticsRow{
		row(day(2024, 3, 1), model.EventStatusApproved, model.CategoryWorkshop, day(2024, 3, 4), "09:00"),
		row(day(2024, 3, 2), model.EventStatusPending, model.CategoryWorkshop, day(2024, 3, 4), "09:30"),
		row(day(2024, 3, 3), model.EventStatusCompleted, model.CategoryMeeting, day(2024, 3, 10), "14:00", 4, 2),
		row(day(2024, 3, 4), model.EventStatusApproved, model.CategoryConference, day(2024, 3, 10), "14:15"),
	}

	report := Aggregate("2024-3", rows, nil)

	assert.Equal(t, "2024-3", report.Period)
	assert.Equal(t, 4, report.TotalEvents)
	assert.Equal(t, []model.GroupCount{
		{Key: "approved", Count: 2},
		{Key: "completed", Count: 1},
		{Key: "pending", Count: 1},
	}, report.EventsByStatus)
	assert.Equal(t, []model.GroupCount{
		{Key: "workshop", Count: 2},
		{Key: "conference", Count: 1},
		{Key: "meeting", Count: 1},
	}, report.EventsByCategory)

	assert.InDelta(t, 3.0, report.AverageRating, 1e-9)
	assert.Equal(t, 2, report.TotalFeedback)

	require.Len(t, report.PeakTimes, 2)
	assert.Equal(t, model.PeakKey{DayOfWeek: 2, Hour: "09"}, report.PeakTimes[0].Key)
	assert.Equal(t, 2, report.PeakTimes[0].Count)
	assert.Equal(t, model.PeakKey{DayOfWeek: 1, Hour: "14"}, report.PeakTimes[1].Key)
}

func TestAggregate_EmptyPeriod(t *testing.T) {
	report := Aggregate("2023", nil, nil)

	assert.Equal(t, 0, report.TotalEvents)
	assert.Equal(t, 0.0, report.AverageRating)
	assert.Equal(t, 0, report.TotalFeedback)
	assert.Empty(t, report.EventsByStatus)
	assert.NotNil(t, report.PeakTimes)
	assert.NotNil(t, report.MonthlyTrends)
}

func TestAggregate_RatingsWeightedByEntry(t *testing.T) {
	rows := []model.AnalyticsRow{
		row(day(2024, 1, 1), model.EventStatusCompleted, model.CategoryOther, day(2024, 1, 5), "10:00", 5, 5, 5),
		row(day(2024, 1, 2), model.EventStatusCompleted, model.CategoryOther, day(2024, 1, 6), "10:00", 1),
		row(day(2024, 1, 3), model.EventStatusPending, model.CategoryOther, day(2024, 1, 7), "10:00"),
	}

	report := Aggregate("2024", rows, nil)
	assert.InDelta(t, 4.0, report.AverageRating, 1e-9)
	assert.Equal(t, 4, report.TotalFeedback)
}

func TestAggregate_MonthlyTrendsIndependentOfPeriod(t *testing.T) {
	trailing := []model.AnalyticsRow{
		row(day(2023, 11, 20), model.EventStatusPending, model.CategoryOther, day(2023, 12, 1), "10:00"),
		row(day(2024, 2, 1), model.EventStatusPending, model.CategoryOther, day(2024, 2, 2), "10:00"),
		row(day(2023, 11, 2), model.EventStatusPending, model.CategoryOther, day(2023, 12, 1), "10:00"),
		row(day(2024, 2, 15), model.EventStatusPending, model.CategoryOther, day(2024, 2, 2), "10:00"),
		row(day(2024, 2, 28), model.EventStatusPending, model.CategoryOther, day(2024, 2, 2), "10:00"),
	}

	report := Aggregate("2021", nil, trailing)

	assert.Equal(t, 0, report.TotalEvents)
	assert.Equal(t, []model.MonthlyCount{
		{Key: model.MonthKey{Year: 2023, Month: 11}, Count: 2},
		{Key: model.MonthKey{Year: 2024, Month: 2}, Count: 3},
	}, report.MonthlyTrends)
}

func TestAggregate_PeakTimesTopTenByEncounterOrder(t *testing.T) {
	var rows []model.AnalyticsRow
	created := day(2024, 5, 1)
	// twelve distinct buckets seen once each, in hour order
	for h := 0; h < 12; h++ {
		rows = append(rows, row(created, model.EventStatusPending, model.CategoryOther, day(2024, 5, 6), time.Date(0, 1, 1, h+8, 0, 0, 0, time.UTC).Format("15:04")))
	}
	// the last bucket becomes the busiest
	rows = append(rows, row(created, model.EventStatusPending, model.CategoryOther, day(2024, 5, 6), "19:45"))

	report := Aggregate("2024-5", rows, nil)

	require.Len(t, report.PeakTimes, PeakTimeLimit)
	assert.Equal(t, "19", report.PeakTimes[0].Key.Hour)
	assert.Equal(t, 2, report.PeakTimes[0].Count)
	assert.Equal(t, "08", report.PeakTimes[1].Key.Hour)
	assert.Equal(t, "09", report.PeakTimes[2].Key.Hour)
	assert.Equal(t, "16", report.PeakTimes[9].Key.Hour)
}

func TestPeakKeyFor(t *testing.T) {
	// 2024-03-09 is a Saturday
	assert.Equal(t, model.PeakKey{DayOfWeek: 7, Hour: "23"}, PeakKeyFor(day(2024, 3, 9), "23:59"))
	assert.Equal(t, model.PeakKey{DayOfWeek: 7, Hour: "9"}, PeakKeyFor(day(2024, 3, 9), "9"))
}
