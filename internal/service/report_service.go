package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/dafibh/tally/tally-backend/internal/util"
	"github.com/rs/zerolog/log"
)

// ReportService builds monthly budget reports from persisted decisions
type ReportService struct {
	decisionStore domain.DecisionStore
	reporter      *CategoryReporter
	users         []string
}

// NewReportService creates a new ReportService
func NewReportService(decisionStore domain.DecisionStore, reporter *CategoryReporter) *ReportService {
	return &ReportService{
		decisionStore: decisionStore,
		reporter:      reporter,
	}
}

// SetUsers restricts reports to the given users. An empty list allows anyone.
func (s *ReportService) SetUsers(users []string) {
	s.users = users
}

// MonthlyReport builds the report for the decisions stored under (year, month, user).
// It returns domain.ErrNoDecisions when nothing is stored for that key.
func (s *ReportService) MonthlyReport(ctx context.Context, year, month int, user string) (*domain.MonthlyReport, error) {
	if month < 1 || month > 12 {
		return nil, &domain.ValidationError{Field: "month", Message: "must be between 1 and 12"}
	}
	if err := domain.ValidateUser(user, s.users); err != nil {
		return nil, err
	}

	decisions, err := s.decisionStore.Read(ctx, year, month, user)
	if err != nil {
		return nil, fmt.Errorf("read decisions: %w", err)
	}
	if len(decisions) == 0 {
		return nil, domain.ErrNoDecisions
	}

	categories := s.reporter.CategoryReportsFrom(decisions)
	overview := s.reporter.OverviewFrom(categories)

	first, last := transactionRange(decisions)
	historical, err := s.historicalReports(ctx, first, user)
	if err != nil {
		return nil, err
	}
	aggregate := s.reporter.AggregatedOverviewFrom(overview, first, last, historical)

	return &domain.MonthlyReport{
		Year:              year,
		Month:             time.Month(month).String(),
		MonthNumber:       month,
		AggregateOverview: aggregate,
		Overview:          &overview,
		Categories:        categories,
	}, nil
}

// historicalReports folds each earlier cycle of the budget year covering
// firstTransaction into category reports, most recent cycle first
func (s *ReportService) historicalReports(ctx context.Context, firstTransaction time.Time, user string) ([][]domain.CategoryReport, error) {
	budget := s.reporter.CurrentBudgetFor(firstTransaction)
	if budget == nil {
		log.Debug().Str("date", firstTransaction.Format(domain.DateLayout)).Msg("No budget period covers report")
		return nil, nil
	}

	anchorDay := budget.StartDateInclusive.Day()
	if err := util.ValidateAnchorDay(anchorDay); err != nil {
		return nil, fmt.Errorf("budget starting %s: %w", budget.StartDateInclusive.Format(domain.DateLayout), err)
	}

	cycles := util.PriorCycles(firstTransaction, budget.StartDateInclusive, anchorDay)
	historical := make([][]domain.CategoryReport, 0, len(cycles))
	for _, cycle := range cycles {
		decisions, err := s.decisionStore.Read(ctx, cycle.Year, cycle.Month, user)
		if err != nil {
			return nil, fmt.Errorf("read decisions for %d-%02d: %w", cycle.Year, cycle.Month, err)
		}
		historical = append(historical, s.reporter.CategoryReportsFrom(decisions))
	}
	return historical, nil
}

func transactionRange(decisions []domain.Decision) (time.Time, time.Time) {
	first := decisions[0].Line.Date
	last := first
	for _, d := range decisions[1:] {
		if d.Line.Date.Before(first) {
			first = d.Line.Date
		}
		if d.Line.Date.After(last) {
			last = d.Line.Date
		}
	}
	return first, last
}
