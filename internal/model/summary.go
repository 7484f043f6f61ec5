package model

import "time"

// DailySummary cached per-owner totals for one day, rebuildable from intervals
type DailySummary struct {
	UserID        int64     `json:"user_id"`
	Date          Date      `json:"date"`
	IntervalCount int       `json:"interval_count"`
	TotalTime     Duration  `json:"total_time"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CounterTotal aggregate of one counter over a range
type CounterTotal struct {
	CounterID     int64    `json:"counter_id"`
	Name          string   `json:"name"`
	Color         string   `json:"color"`
	Total         Duration `json:"total"`
	IntervalCount int      `json:"interval_count"`
}

// DayTotal aggregate of one day over a range
type DayTotal struct {
	Day   Date     `json:"day"`
	Total Duration `json:"total"`
}

// PeriodRollup live aggregation of finished intervals in [Start, End]
type PeriodRollup struct {
	Start      Date           `json:"start"`
	End        Date           `json:"end"`
	PerCounter []CounterTotal `json:"per_counter"`
	PerDay     []DayTotal     `json:"per_day"`
	Total      Duration       `json:"total"`
}

// Period summary period selector
type Period string

const (
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
	PeriodCustom Period = "custom"
)

// ParsePeriod unknown values fall back to week
func ParsePeriod(s string) Period {
	switch Period(s) {
	case PeriodMonth, PeriodCustom:
		return Period(s)
	default:
		return PeriodWeek
	}
}

// SummaryView period summary
type SummaryView struct {
	Period Period `json:"period"`
	PeriodRollup
}

// CounterStats one counter's figures on the dashboard date
type CounterStats struct {
	Counter        *Counter  `json:"counter"`
	TotalDuration  Duration  `json:"total_duration"`
	IntervalCount  int       `json:"interval_count"`
	ActiveInterval *Interval `json:"active_interval,omitempty"`
}

// ChartSeries dashboard chart, values in hours
type ChartSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Colors []string  `json:"colors"`
	Max    float64   `json:"max"`
	Total  float64   `json:"total"`
}

// Dashboard per-day overview for an owner
type Dashboard struct {
	SelectedDate     Date           `json:"selected_date"`
	Counters         []CounterStats `json:"counters"`
	OverallTotal     Duration       `json:"overall_total"`
	ActiveCounterID  *int64         `json:"active_counter_id,omitempty"`
	ActiveInterval   *Interval      `json:"active_interval,omitempty"`
	Chart            ChartSeries    `json:"chart"`
	PausedCounterIDs []int64        `json:"paused_counter_ids"`
	CounterTotal     int            `json:"counter_total"`
}

// HistoryPage one page of a counter's intervals
type HistoryPage struct {
	Counter        *Counter    `json:"counter"`
	FilterStart    *Date       `json:"filter_start,omitempty"`
	FilterEnd      *Date       `json:"filter_end,omitempty"`
	Intervals      []*Interval `json:"intervals"`
	Page           int         `json:"page"`
	PageSize       int         `json:"page_size"`
	TotalPages     int         `json:"total_pages"`
	TotalItems     int64       `json:"total_items"`
	HasPrevious    bool        `json:"has_previous"`
	HasNext        bool        `json:"has_next"`
	StartIndex     int         `json:"start_index"`
	IntervalCount  int64       `json:"interval_count"`
	TotalDuration  Duration    `json:"total_duration"`
	ActiveInterval *Interval   `json:"active_interval,omitempty"`
	ActiveTotal    Duration    `json:"active_total"`
}
