package service

import (
	"context"
	"math"
	"strconv"
	"strings"

	"timetrack/internal/model"
	"timetrack/pkg/clock"
	"timetrack/pkg/logger"
	"timetrack/pkg/store/mysql"
)

const defaultHistoryPageSize = 10

// ReportService builds dashboard, history and summary views.
// Invalid query parameters degrade to defaults instead of failing.
type ReportService struct {
	repo        *mysql.Repository
	aggregation *AggregationService
	paused      pausedStore
	clock       clock.Clock
	pageSize    int
}

// NewReportService creates a new report service
func NewReportService(repo *mysql.Repository, aggregation *AggregationService, paused pausedStore, clk clock.Clock, pageSize int) *ReportService {
	if pageSize <= 0 {
		pageSize = defaultHistoryPageSize
	}
	return &ReportService{
		repo:        repo,
		aggregation: aggregation,
		paused:      paused,
		clock:       clk,
		pageSize:    pageSize,
	}
}

// Dashboard per-counter totals of one day; an empty or invalid date means today
func (s *ReportService) Dashboard(ctx context.Context, ownerID int64, dateParam string) (*model.Dashboard, error) {
	today := model.DateOf(s.clock.Now())
	selected := today
	if d := parseDateParam(dateParam); d != nil {
		selected = *d
	}

	counters, err := s.repo.Counter.List(ctx, ownerID)
	if err != nil {
		return nil, model.StorageError("list counters", err)
	}
	totals, err := s.repo.Interval.TotalsByCounter(ctx, ownerID, selected, selected)
	if err != nil {
		return nil, model.StorageError("aggregate per counter", err)
	}
	open, err := s.repo.Interval.FindOpenByOwner(ctx, ownerID)
	if err != nil {
		return nil, model.StorageError("find open intervals", err)
	}

	totalByCounter := make(map[int64]mysql.CounterTotalRow, len(totals))
	for _, row := range totals {
		totalByCounter[row.CounterID] = row
	}
	openByCounter := make(map[int64]*mysql.Interval, len(open))
	for _, iv := range open {
		if _, ok := openByCounter[iv.CounterID]; !ok {
			openByCounter[iv.CounterID] = iv
		}
	}

	dashboard := &model.Dashboard{
		SelectedDate:     selected,
		Counters:         make([]model.CounterStats, 0, len(counters)),
		PausedCounterIDs: []int64{},
		CounterTotal:     len(counters),
		Chart: model.ChartSeries{
			Labels: []string{},
			Values: []float64{},
			Colors: []string{},
		},
	}

	for _, c := range counters {
		row := totalByCounter[c.ID]
		stats := model.CounterStats{
			Counter:       mysql.ToCounterDomain(c),
			TotalDuration: model.DurationOfSeconds(row.TotalSeconds),
			IntervalCount: row.IntervalCount,
		}
		if iv, ok := openByCounter[c.ID]; ok {
			stats.ActiveInterval = mysql.ToIntervalDomain(iv)
			stats.Counter.IsRunning = true
			if dashboard.ActiveCounterID == nil {
				id := c.ID
				dashboard.ActiveCounterID = &id
				dashboard.ActiveInterval = stats.ActiveInterval
			}
		}
		dashboard.Counters = append(dashboard.Counters, stats)
		dashboard.OverallTotal += stats.TotalDuration

		if stats.TotalDuration > 0 {
			hours := stats.TotalDuration.Hours()
			dashboard.Chart.Labels = append(dashboard.Chart.Labels, c.Name)
			dashboard.Chart.Values = append(dashboard.Chart.Values, hours)
			dashboard.Chart.Colors = append(dashboard.Chart.Colors, c.Color)
			dashboard.Chart.Max = math.Max(dashboard.Chart.Max, hours)
			dashboard.Chart.Total += hours
		}
	}
	dashboard.Chart.Total = math.Round(dashboard.Chart.Total*100) / 100

	paused, err := s.paused.List(ctx, ownerID)
	if err != nil {
		logger.WarnCtx(ctx, "failed to read paused hints of owner %d: %v", ownerID, err)
	}
	for _, id := range paused {
		if _, running := openByCounter[id]; running {
			continue
		}
		if counterListed(counters, id) {
			dashboard.PausedCounterIDs = append(dashboard.PausedCounterIDs, id)
		}
	}

	return dashboard, nil
}

// History pages a counter's intervals, optionally filtered by day range
func (s *ReportService) History(ctx context.Context, ownerID, counterID int64, startParam, endParam, pageParam string) (*model.HistoryPage, error) {
	counter, err := ownedCounter(ctx, s.repo, ownerID, counterID)
	if err != nil {
		return nil, err
	}

	filter := mysql.IntervalFilter{
		Start: parseDateParam(startParam),
		End:   parseDateParam(endParam),
	}

	totalItems, err := s.repo.Interval.CountByCounter(ctx, counterID, filter)
	if err != nil {
		return nil, model.StorageError("count intervals", err)
	}
	page, totalPages, offset := paginate(pageParam, totalItems, s.pageSize)

	rows, err := s.repo.Interval.ListByCounter(ctx, counterID, filter, offset, s.pageSize)
	if err != nil {
		return nil, model.StorageError("list intervals", err)
	}
	finishedCount, finishedSeconds, err := s.repo.Interval.SumFinishedByCounter(ctx, counterID, filter)
	if err != nil {
		return nil, model.StorageError("sum intervals", err)
	}

	result := &model.HistoryPage{
		Counter:       mysql.ToCounterDomain(counter),
		FilterStart:   filter.Start,
		FilterEnd:     filter.End,
		Intervals:     mysql.ToIntervalsDomain(rows),
		Page:          page,
		PageSize:      s.pageSize,
		TotalPages:    totalPages,
		TotalItems:    totalItems,
		HasPrevious:   page > 1,
		HasNext:       page < totalPages,
		IntervalCount: finishedCount,
		TotalDuration: model.DurationOfSeconds(finishedSeconds),
	}
	if len(rows) > 0 {
		result.StartIndex = offset + 1
	}

	active, err := s.repo.Interval.FindOpenByCounter(ctx, counterID)
	if err != nil {
		return nil, model.StorageError("find open interval", err)
	}
	if active != nil {
		result.ActiveInterval = mysql.ToIntervalDomain(active)
		result.Counter.IsRunning = true
		activeSeconds, err := s.repo.Interval.SumFinishedByCounterDay(ctx, counterID, active.Day)
		if err != nil {
			return nil, model.StorageError("sum active day", err)
		}
		result.ActiveTotal = model.DurationOfSeconds(activeSeconds)
	}

	return result, nil
}

// Summary rollup over week (default), month or a custom range
func (s *ReportService) Summary(ctx context.Context, ownerID int64, periodParam, startParam, endParam string) (*model.SummaryView, error) {
	period := model.ParsePeriod(periodParam)
	start, end := resolvePeriod(period, model.DateOf(s.clock.Now()), startParam, endParam)

	rollup, err := s.aggregation.PeriodRollup(ctx, ownerID, start, end)
	if err != nil {
		return nil, err
	}
	return &model.SummaryView{Period: period, PeriodRollup: *rollup}, nil
}

// resolvePeriod maps a period to an inclusive [start, end] ending today
func resolvePeriod(period model.Period, today model.Date, startParam, endParam string) (model.Date, model.Date) {
	switch period {
	case model.PeriodMonth:
		return today.FirstOfMonth(), today
	case model.PeriodCustom:
		start, end := today, today
		if d := parseDateParam(startParam); d != nil {
			start = *d
		}
		if d := parseDateParam(endParam); d != nil {
			end = *d
		}
		if end.Before(start) {
			start, end = end, start
		}
		return start, end
	default:
		return today.AddDays(-6), today
	}
}

// parseDateParam nil for empty or unparseable input
func parseDateParam(s string) *model.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return nil
	}
	return &d
}

// paginate clamps the requested page into [1, totalPages]; a non-numeric page is page 1
func paginate(pageParam string, totalItems int64, pageSize int) (page, totalPages, offset int) {
	totalPages = int((totalItems + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}
	page, err := strconv.Atoi(strings.TrimSpace(pageParam))
	if err != nil || page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return page, totalPages, (page - 1) * pageSize
}

func counterListed(counters []*mysql.Counter, id int64) bool {
	for _, c := range counters {
		if c.ID == id {
			return true
		}
	}
	return false
}
