package file

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/dafibh/tally/tally-backend/internal/util"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type budgetDocument struct {
	Budgets []struct {
		Category    string  `yaml:"category"`
		SubCategory *string `yaml:"subcategory"`
		Allocated   string  `yaml:"allocated"`
		Start       string  `yaml:"start"`
		End         string  `yaml:"end"`
	} `yaml:"budgets"`
}

type budgetKey struct {
	category    string
	subCategory string
	hasSub      bool
}

// BudgetFile provides annual budget periods loaded from a YAML document of the form
//
//	budgets:
//	  - category: Food
//	    allocated: 1200.00
//	    start: 2018-01-01
//	    end: 2018-12-31
//	  - category: Home
//	    subcategory: Rent
//	    allocated: 9000.00
//	    start: 2018-01-01
//	    end: 2018-12-31
type BudgetFile struct {
	periods map[budgetKey][]domain.AnnualBudget
}

// LoadBudgetFile reads the budgets at path and validates them against schema.
// A missing file yields an empty provider: reports then carry no aggregate overview.
func LoadBudgetFile(path string, schema domain.CategorySchema) (*BudgetFile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &BudgetFile{periods: make(map[budgetKey][]domain.AnnualBudget)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read budget file: %w", err)
	}
	return ParseBudgets(data, schema)
}

// ParseBudgets builds a provider from YAML. Every period must name a schema
// category (and subcategory, when given), start no later than it ends, start
// on day 1 to 28, and not overlap another period of the same category/subcategory.
func ParseBudgets(data []byte, schema domain.CategorySchema) (*BudgetFile, error) {
	var doc budgetDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("could not parse budget file: %w", err)
	}

	periods := make(map[budgetKey][]domain.AnnualBudget)
	for i, b := range doc.Budgets {
		entry := fmt.Sprintf("budget %d", i+1)

		category, ok := domain.FindCategory(schema, strings.TrimSpace(b.Category))
		if !ok {
			return nil, fmt.Errorf("%s: %w: %q", entry, domain.ErrUnknownCategory, b.Category)
		}

		key := budgetKey{category: category.Title}
		var subCategory *string
		if b.SubCategory != nil {
			name := strings.TrimSpace(*b.SubCategory)
			if !category.HasSubCategory(name) {
				return nil, fmt.Errorf("%s: %w: %q is not a subcategory of %q", entry, domain.ErrUnknownCategory, name, category.Title)
			}
			key.subCategory, key.hasSub = name, true
			subCategory = &name
		}

		allocated, err := decimal.NewFromString(strings.TrimSpace(b.Allocated))
		if err != nil {
			return nil, fmt.Errorf("%s: bad allocated amount: %w", entry, err)
		}
		start, err := time.Parse(domain.DateLayout, strings.TrimSpace(b.Start))
		if err != nil {
			return nil, fmt.Errorf("%s: bad start date: %w", entry, err)
		}
		end, err := time.Parse(domain.DateLayout, strings.TrimSpace(b.End))
		if err != nil {
			return nil, fmt.Errorf("%s: bad end date: %w", entry, err)
		}
		if end.Before(start) {
			return nil, fmt.Errorf("%s: ends before it starts", entry)
		}
		if err := util.ValidateAnchorDay(start.Day()); err != nil {
			return nil, fmt.Errorf("%s: %w", entry, err)
		}

		periods[key] = append(periods[key], domain.AnnualBudget{
			Category:           category.Title,
			SubCategory:        subCategory,
			Allocated:          allocated,
			StartDateInclusive: start,
			EndDateInclusive:   end,
		})
	}

	for key, list := range periods {
		sort.Slice(list, func(a, b int) bool {
			return list[a].StartDateInclusive.Before(list[b].StartDateInclusive)
		})
		for i := 1; i < len(list); i++ {
			if !list[i].StartDateInclusive.After(list[i-1].EndDateInclusive) {
				return nil, fmt.Errorf("budget periods for %s overlap at %s",
					key, list[i].StartDateInclusive.Format(domain.DateLayout))
			}
		}
	}

	return &BudgetFile{periods: periods}, nil
}

// PeriodsFor returns the chronologically ordered periods of a category, or of
// one of its subcategories when subCategory is non-nil
func (f *BudgetFile) PeriodsFor(category string, subCategory *string) []domain.AnnualBudget {
	key := budgetKey{category: category}
	if subCategory != nil {
		key.subCategory, key.hasSub = *subCategory, true
	}

	list := f.periods[key]
	out := make([]domain.AnnualBudget, len(list))
	copy(out, list)
	return out
}

func (k budgetKey) String() string {
	if k.hasSub {
		return k.category + "/" + k.subCategory
	}
	return k.category
}
