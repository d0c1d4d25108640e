package model

import (
	"time"

	"github.com/google/uuid"
)

// AnalyticsRow is the projection of an event the aggregator needs
type AnalyticsRow struct {
	ID        uuid.UUID     `db:"id"`
	CreatedAt time.Time     `db:"created_at"`
	Status    EventStatus   `db:"status"`
	Category  EventCategory `db:"category"`
	EventDate time.Time     `db:"event_date"`
	EventTime string        `db:"event_time"`
	Ratings   []int         `db:"-"`
}

type GroupCount struct {
	Key   string `json:"_id"`
	Count int    `json:"count"`
}

type MonthKey struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type MonthlyCount struct {
	Key   MonthKey `json:"_id"`
	Count int      `json:"count"`
}

// PeakKey identifies a (weekday, hour) bucket. DayOfWeek runs 1 (Sunday) to 7 (Saturday).
type PeakKey struct {
	DayOfWeek int    `json:"dayOfWeek"`
	Hour      string `json:"hour"`
}

type PeakTime struct {
	Key   PeakKey `json:"_id"`
	Count int     `json:"count"`
}

type AnalyticsReport struct {
	Period           string         `json:"period"`
	TotalEvents      int            `json:"totalEvents"`
	EventsByStatus   []GroupCount   `json:"eventsByStatus"`
	EventsByCategory []GroupCount   `json:"eventsByCategory"`
	AverageRating    float64        `json:"averageRating"`
	TotalFeedback    int            `json:"totalFeedback"`
	MonthlyTrends    []MonthlyCount `json:"monthlyTrends"`
	PeakTimes        []PeakTime     `json:"peakTimes"`
}

// Clone returns a copy that shares no slices with r
func (r *AnalyticsReport) Clone() *AnalyticsReport {
	if r == nil {
		return nil
	}
	c := *r
	c.EventsByStatus = append([]GroupCount(nil), r.EventsByStatus...)
	c.EventsByCategory = append([]GroupCount(nil), r.EventsByCategory...)
	c.MonthlyTrends = append([]MonthlyCount(nil), r.MonthlyTrends...)
	c.PeakTimes = append([]PeakTime(nil), r.PeakTimes...)
	return &c
}
