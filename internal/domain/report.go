package domain

import "github.com/shopspring/decimal"

// Amount is a report figure. It is rounded half-up to two places when created
// and always serialises as a JSON number with exactly two decimals.
type Amount struct {
	decimal.Decimal
}

// NewAmount rounds d half-up (away from zero) to two decimal places
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d.Round(2)}
}

// MarshalJSON implements json.Marshaler
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.StringFixed(2)), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.Decimal.UnmarshalJSON(data)
}

// CategoryReportItem is the actual spend of one subcategory (or of one category in an overview)
type CategoryReportItem struct {
	Name   string `json:"name"`
	Actual Amount `json:"actual"`
}

// CategoryReport groups report items under a title
type CategoryReport struct {
	Title string               `json:"title"`
	Data  []CategoryReportItem `json:"data"`
}

// Total sums the report's items
func (r CategoryReport) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Data {
		total = total.Add(item.Actual.Decimal)
	}
	return total
}

// AggregateOverviewItem compares spend against allocation for one category (or the total)
type AggregateOverviewItem struct {
	Name             string `json:"name"`
	Actual           Amount `json:"actual"`
	Budget           Amount `json:"budget"`
	HistoricalActual Amount `json:"historicalActual"`
	YearToDateActual Amount `json:"yearToDateActual"`
	YearToDateBudget Amount `json:"yearToDateBudget"`
	Variance         Amount `json:"variance"`
	AnnualBudget     Amount `json:"annualBudget"`
}

// AggregateOverviewReport is the overview enriched with the budget year to date
type AggregateOverviewReport struct {
	Title       string                  `json:"title"`
	BudgetStart string                  `json:"budgetStart"`
	BudgetEnd   string                  `json:"budgetEnd"`
	PeriodStart string                  `json:"periodStart"`
	PeriodEnd   string                  `json:"periodEnd"`
	Cycles      int                     `json:"cycles"`
	Data        []AggregateOverviewItem `json:"data"`
	Total       AggregateOverviewItem   `json:"total"`
}

// MonthlyReport is the JSON report for one (year, month, user)
type MonthlyReport struct {
	Year              int                      `json:"year"`
	Month             string                   `json:"month"`
	MonthNumber       int                      `json:"monthNumber"`
	AggregateOverview *AggregateOverviewReport `json:"aggregateOverview"`
	Overview          *CategoryReport          `json:"overview"`
	Categories        []CategoryReport         `json:"categories"`
}
