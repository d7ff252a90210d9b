package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AnnualBudget is an allocation for a category (or one of its subcategories)
// over an inclusive date range. Periods of the same category/subcategory do not
// overlap and are chronologically ordered.
type AnnualBudget struct {
	Category           string          `json:"category"`
	SubCategory        *string         `json:"subcategory,omitempty"`
	Allocated          decimal.Decimal `json:"allocated"`
	StartDateInclusive time.Time       `json:"startDateInclusive"`
	EndDateInclusive   time.Time       `json:"endDateInclusive"`
}

// Contains reports whether date falls inside the period, comparing calendar days only
func (b AnnualBudget) Contains(date time.Time) bool {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(b.StartDateInclusive) && !d.After(b.EndDateInclusive)
}

// AnnualBudgetProvider supplies budget periods. A nil subcategory selects
// category-level periods.
type AnnualBudgetProvider interface {
	PeriodsFor(category string, subCategory *string) []AnnualBudget
}
