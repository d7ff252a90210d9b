package service

import (
	"time"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/dafibh/tally/tally-backend/internal/util"
	"github.com/shopspring/decimal"
)

// OverviewTitle is the title of the overview and aggregate overview reports
const OverviewTitle = "Overview"

// CategoryReporter aggregates decisions into category, overview and budget reports
type CategoryReporter struct {
	schema  domain.CategorySchema
	budgets domain.AnnualBudgetProvider
}

// NewCategoryReporter creates a new CategoryReporter
func NewCategoryReporter(schema domain.CategorySchema, budgets domain.AnnualBudgetProvider) *CategoryReporter {
	return &CategoryReporter{
		schema:  schema,
		budgets: budgets,
	}
}

type subCategoryKey struct {
	category    string
	subCategory string
}

// CategoryReportsFrom totals resolved decisions per subcategory. Each total is
// rounded once, after summation. Reports follow schema order and only contain
// subcategories with at least one transaction; empty categories are dropped.
func (r *CategoryReporter) CategoryReportsFrom(decisions []domain.Decision) []domain.CategoryReport {
	totals := make(map[subCategoryKey]decimal.Decimal)
	for _, d := range decisions {
		res, ok := d.Resolved()
		if !ok {
			continue
		}
		key := subCategoryKey{category: res.Category, subCategory: res.SubCategory}
		totals[key] = totals[key].Add(d.Line.Amount)
	}

	reports := make([]domain.CategoryReport, 0)
	for _, category := range r.schema.All() {
		var data []domain.CategoryReportItem
		for _, sub := range category.SubCategories {
			total, ok := totals[subCategoryKey{category: category.Title, subCategory: sub.Name}]
			if !ok {
				continue
			}
			data = append(data, domain.CategoryReportItem{
				Name:   sub.Name,
				Actual: domain.NewAmount(total),
			})
		}
		if len(data) > 0 {
			reports = append(reports, domain.CategoryReport{Title: category.Title, Data: data})
		}
	}
	return reports
}

// OverviewFrom collapses each category report into a single category total
func (r *CategoryReporter) OverviewFrom(reports []domain.CategoryReport) domain.CategoryReport {
	data := make([]domain.CategoryReportItem, 0, len(reports))
	for _, report := range reports {
		data = append(data, domain.CategoryReportItem{
			Name:   report.Title,
			Actual: domain.NewAmount(report.Total()),
		})
	}
	return domain.CategoryReport{Title: OverviewTitle, Data: data}
}

// CurrentBudgetFor returns the budget period covering date, or nil when none does.
// Category-level periods are preferred over subcategory-level ones; categories
// are searched in schema order.
func (r *CategoryReporter) CurrentBudgetFor(date time.Time) *domain.AnnualBudget {
	for _, category := range r.schema.All() {
		if period := containing(r.budgets.PeriodsFor(category.Title, nil), date); period != nil {
			return period
		}
	}
	for _, category := range r.schema.All() {
		for _, sub := range category.SubCategories {
			name := sub.Name
			if period := containing(r.budgets.PeriodsFor(category.Title, &name), date); period != nil {
				return period
			}
		}
	}
	return nil
}

// AggregatedOverviewFrom compares this cycle and the earlier cycles of the budget
// year against the allocations in force at periodStart. historical holds the
// category reports of each earlier cycle. It returns nil when no budget period
// covers periodStart.
func (r *CategoryReporter) AggregatedOverviewFrom(
	overview domain.CategoryReport,
	periodStart, periodEnd time.Time,
	historical [][]domain.CategoryReport,
) *domain.AggregateOverviewReport {
	current := r.CurrentBudgetFor(periodStart)
	if current == nil {
		return nil
	}

	actuals := make(map[string]decimal.Decimal, len(overview.Data))
	for _, item := range overview.Data {
		actuals[item.Name] = item.Actual.Decimal
	}

	history := make(map[string]decimal.Decimal)
	for _, cycle := range historical {
		for _, report := range cycle {
			history[report.Title] = history[report.Title].Add(report.Total())
		}
	}

	elapsed := decimal.NewFromInt(int64(len(historical) + 1))
	var total figures
	data := make([]domain.AggregateOverviewItem, 0)

	for _, category := range r.schema.All() {
		actual, spent := actuals[category.Title]
		past, hadHistory := history[category.Title]
		periods := r.allocationsFor(category, periodStart)
		if !spent && !hadHistory && len(periods) == 0 {
			continue
		}

		f := figures{actual: actual, historical: past}
		for _, p := range periods {
			cycles := decimal.NewFromInt(int64(util.CyclesInPeriod(p.StartDateInclusive, p.EndDateInclusive)))
			f.annual = f.annual.Add(p.Allocated)
			f.budget = f.budget.Add(p.Allocated.Div(cycles))
			f.yearToDateBudget = f.yearToDateBudget.Add(p.Allocated.Mul(elapsed).Div(cycles))
		}

		total = total.add(f)
		data = append(data, f.item(category.Title))
	}

	return &domain.AggregateOverviewReport{
		Title:       OverviewTitle,
		BudgetStart: current.StartDateInclusive.Format(domain.DateLayout),
		BudgetEnd:   current.EndDateInclusive.Format(domain.DateLayout),
		PeriodStart: periodStart.Format(domain.DateLayout),
		PeriodEnd:   periodEnd.Format(domain.DateLayout),
		Cycles:      len(historical) + 1,
		Data:        data,
		Total:       total.item("Total"),
	}
}

// allocationsFor returns the category-level period covering date, or failing
// that every subcategory-level period of the category covering it
func (r *CategoryReporter) allocationsFor(category domain.Category, date time.Time) []domain.AnnualBudget {
	if period := containing(r.budgets.PeriodsFor(category.Title, nil), date); period != nil {
		return []domain.AnnualBudget{*period}
	}

	var periods []domain.AnnualBudget
	for _, sub := range category.SubCategories {
		name := sub.Name
		if period := containing(r.budgets.PeriodsFor(category.Title, &name), date); period != nil {
			periods = append(periods, *period)
		}
	}
	return periods
}

func containing(periods []domain.AnnualBudget, date time.Time) *domain.AnnualBudget {
	for i := range periods {
		if periods[i].Contains(date) {
			p := periods[i]
			return &p
		}
	}
	return nil
}

// figures holds unrounded aggregate values; rounding happens in item
type figures struct {
	actual           decimal.Decimal
	budget           decimal.Decimal
	historical       decimal.Decimal
	yearToDateBudget decimal.Decimal
	annual           decimal.Decimal
}

func (f figures) add(o figures) figures {
	return figures{
		actual:           f.actual.Add(o.actual),
		budget:           f.budget.Add(o.budget),
		historical:       f.historical.Add(o.historical),
		yearToDateBudget: f.yearToDateBudget.Add(o.yearToDateBudget),
		annual:           f.annual.Add(o.annual),
	}
}

func (f figures) item(name string) domain.AggregateOverviewItem {
	yearToDateActual := f.actual.Add(f.historical)
	return domain.AggregateOverviewItem{
		Name:             name,
		Actual:           domain.NewAmount(f.actual),
		Budget:           domain.NewAmount(f.budget),
		HistoricalActual: domain.NewAmount(f.historical),
		YearToDateActual: domain.NewAmount(yearToDateActual),
		YearToDateBudget: domain.NewAmount(f.yearToDateBudget),
		Variance:         domain.NewAmount(f.yearToDateBudget.Sub(yearToDateActual)),
		AnnualBudget:     domain.NewAmount(f.annual),
	}
}
