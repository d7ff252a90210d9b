package service

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/dafibh/tally/tally-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReporter(budgets *testutil.MockBudgetProvider) *CategoryReporter {
	if budgets == nil {
		budgets = &testutil.MockBudgetProvider{}
	}
	return NewCategoryReporter(testutil.DefaultSchema(), budgets)
}

func TestCategoryReportsFrom_TescoEndToEnd(t *testing.T) {
	decider := NewStatementDecider()
	lines, err := ParseLines([]string{
		"2018-03-10,Tesco,10.00",
		"2018-03-14,Tesco Metro,9.75",
	})
	require.NoError(t, err)

	decisions := decider.Process(lines, mappings("Tesco,Food,Groceries"))
	reports := newTestReporter(nil).CategoryReportsFrom(decisions)

	require.Len(t, reports, 1)
	assert.Equal(t, "Food", reports[0].Title)
	require.Len(t, reports[0].Data, 1)
	assert.Equal(t, "Groceries", reports[0].Data[0].Name)

	data, err := json.Marshal(reports[0].Data[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Groceries","actual":19.75}`, string(data))
	assert.Contains(t, string(data), `"actual":19.75`)
}

func TestCategoryReportsFrom_UnknownShopIsEmpty(t *testing.T) {
	decider := NewStatementDecider()
	lines, err := ParseLines([]string{"2018-03-10,Unknown Shop,12.00"})
	require.NoError(t, err)

	reports := newTestReporter(nil).CategoryReportsFrom(decider.Process(lines, mappings("Tesco,Food,Groceries")))

	require.NotNil(t, reports)
	assert.Empty(t, reports)
}

func TestCategoryReportsFrom_SchemaOrderAndRounding(t *testing.T) {
	day := testutil.Date(2018, 3, 1)
	decisions := []domain.Decision{
		domain.NewResolvedDecision(testutil.Line(day, "Shell", "30.005"), "Travel", "Fuel"),
		domain.NewResolvedDecision(testutil.Line(day, "Pizza", "12.50"), "Food", "Eating Out"),
		domain.NewResolvedDecision(testutil.Line(day, "Tesco", "0.333"), "Food", "Groceries"),
		domain.NewResolvedDecision(testutil.Line(day, "Tesco", "0.333"), "Food", "Groceries"),
		domain.NewResolvedDecision(testutil.Line(day, "Tesco", "0.333"), "Food", "Groceries"),
		domain.NewResolvedDecision(testutil.Line(day, "Mystery", "5.00"), "Hobbies", "Models"),
		domain.NewUnresolvedDecision(testutil.Line(day, "Corner Shop", "1.00")),
	}

	reports := newTestReporter(nil).CategoryReportsFrom(decisions)

	require.Len(t, reports, 2)
	assert.Equal(t, "Food", reports[0].Title)
	assert.Equal(t, "Travel", reports[1].Title)

	// Subcategories follow schema order, not first appearance
	require.Len(t, reports[0].Data, 2)
	assert.Equal(t, "Groceries", reports[0].Data[0].Name)
	assert.Equal(t, "1.00", reports[0].Data[0].Actual.StringFixed(2))
	assert.Equal(t, "Eating Out", reports[0].Data[1].Name)

	// Half-up rounding
	assert.Equal(t, "30.01", reports[1].Data[0].Actual.StringFixed(2))
}

func TestCategoryReportsFrom_PermutationInvariant(t *testing.T) {
	day := testutil.Date(2018, 3, 1)
	decisions := []domain.Decision{
		domain.NewResolvedDecision(testutil.Line(day, "Tesco", "0.10"), "Food", "Groceries"),
		domain.NewResolvedDecision(testutil.Line(day, "Tesco", "0.20"), "Food", "Groceries"),
		domain.NewResolvedDecision(testutil.Line(day, "Shell", "41.37"), "Travel", "Fuel"),
		domain.NewResolvedDecision(testutil.Line(day, "Rent", "750.00"), "Home", "Rent"),
		domain.NewResolvedDecision(testutil.Line(day, "Tesco", "-3.15"), "Food", "Groceries"),
		domain.NewResolvedDecision(testutil.Line(day, "Trainline", "12.345"), "Travel", "Trains"),
		domain.NewUnresolvedDecision(testutil.Line(day, "Corner Shop", "7.00")),
	}

	reporter := newTestReporter(nil)
	expected, err := json.Marshal(reporter.CategoryReportsFrom(decisions))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]domain.Decision, len(decisions))
		copy(shuffled, decisions)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, err := json.Marshal(reporter.CategoryReportsFrom(shuffled))
		require.NoError(t, err)
		assert.Equal(t, string(expected), string(got))
	}
}

func TestOverviewFrom(t *testing.T) {
	reports := []domain.CategoryReport{
		{Title: "Food", Data: []domain.CategoryReportItem{
			{Name: "Groceries", Actual: domain.NewAmount(testutil.Line(testutil.Date(2018, 1, 1), "x", "19.75").Amount)},
			{Name: "Eating Out", Actual: domain.NewAmount(testutil.Line(testutil.Date(2018, 1, 1), "x", "5.25").Amount)},
		}},
	}

	overview := newTestReporter(nil).OverviewFrom(reports)

	assert.Equal(t, OverviewTitle, overview.Title)
	require.Len(t, overview.Data, 1)
	assert.Equal(t, "Food", overview.Data[0].Name)
	assert.Equal(t, "25.00", overview.Data[0].Actual.StringFixed(2))
}

func TestCurrentBudgetFor(t *testing.T) {
	start := testutil.Date(2018, 1, 1)
	end := testutil.Date(2018, 12, 31)

	t.Run("category level preferred", func(t *testing.T) {
		budgets := &testutil.MockBudgetProvider{}
		budgets.AddSubCategoryBudget("Food", "Groceries", "600", testutil.Date(2018, 1, 15), testutil.Date(2019, 1, 14))
		budgets.AddCategoryBudget("Home", "9000", start, end)

		got := newTestReporter(budgets).CurrentBudgetFor(testutil.Date(2018, 3, 10))
		require.NotNil(t, got)
		assert.Equal(t, "Home", got.Category)
		assert.Nil(t, got.SubCategory)
	})

	t.Run("subcategory fallback", func(t *testing.T) {
		budgets := &testutil.MockBudgetProvider{}
		budgets.AddSubCategoryBudget("Travel", "Fuel", "600", start, end)

		got := newTestReporter(budgets).CurrentBudgetFor(testutil.Date(2018, 12, 31))
		require.NotNil(t, got)
		require.NotNil(t, got.SubCategory)
		assert.Equal(t, "Fuel", *got.SubCategory)
	})

	t.Run("no period covers date", func(t *testing.T) {
		budgets := &testutil.MockBudgetProvider{}
		budgets.AddCategoryBudget("Food", "1200", start, end)

		assert.Nil(t, newTestReporter(budgets).CurrentBudgetFor(testutil.Date(2019, 1, 1)))
	})
}

func TestAggregatedOverviewFrom(t *testing.T) {
	start := testutil.Date(2018, 1, 1)
	end := testutil.Date(2018, 12, 31)

	budgets := &testutil.MockBudgetProvider{}
	budgets.AddCategoryBudget("Food", "1200", start, end)
	budgets.AddSubCategoryBudget("Home", "Rent", "6000", start, end)
	budgets.AddSubCategoryBudget("Home", "Utilities", "1200", start, end)
	reporter := newTestReporter(budgets)

	overview := reporter.OverviewFrom([]domain.CategoryReport{
		{Title: "Food", Data: []domain.CategoryReportItem{{Name: "Groceries", Actual: amount("120")}}},
		{Title: "Travel", Data: []domain.CategoryReportItem{{Name: "Fuel", Actual: amount("50")}}},
	})
	historical := [][]domain.CategoryReport{
		{{Title: "Food", Data: []domain.CategoryReportItem{{Name: "Groceries", Actual: amount("80")}}}},
		{{Title: "Food", Data: []domain.CategoryReportItem{{Name: "Eating Out", Actual: amount("90")}}}},
	}

	report := reporter.AggregatedOverviewFrom(overview, testutil.Date(2018, 3, 1), testutil.Date(2018, 3, 28), historical)
	require.NotNil(t, report)

	assert.Equal(t, OverviewTitle, report.Title)
	assert.Equal(t, "2018-01-01", report.BudgetStart)
	assert.Equal(t, "2018-12-31", report.BudgetEnd)
	assert.Equal(t, "2018-03-01", report.PeriodStart)
	assert.Equal(t, "2018-03-28", report.PeriodEnd)
	assert.Equal(t, 3, report.Cycles)

	require.Len(t, report.Data, 3)
	assertAggregate(t, report.Data[0], "Food", "120.00", "100.00", "170.00", "290.00", "300.00", "10.00", "1200.00")
	assertAggregate(t, report.Data[1], "Home", "0.00", "600.00", "0.00", "0.00", "1800.00", "1800.00", "7200.00")
	assertAggregate(t, report.Data[2], "Travel", "50.00", "0.00", "0.00", "50.00", "0.00", "-50.00", "0.00")
	assertAggregate(t, report.Total, "Total", "170.00", "700.00", "170.00", "340.00", "2100.00", "1760.00", "8400.00")
}

func TestAggregatedOverviewFrom_RoundsOnce(t *testing.T) {
	budgets := &testutil.MockBudgetProvider{}
	budgets.AddCategoryBudget("Food", "1000", testutil.Date(2018, 1, 1), testutil.Date(2018, 12, 31))
	reporter := newTestReporter(budgets)

	report := reporter.AggregatedOverviewFrom(domain.CategoryReport{Title: OverviewTitle}, testutil.Date(2018, 1, 5), testutil.Date(2018, 1, 20), nil)
	require.NotNil(t, report)
	require.Len(t, report.Data, 1)

	assert.Equal(t, "83.33", report.Data[0].Budget.StringFixed(2))
	assert.Equal(t, "83.33", report.Data[0].YearToDateBudget.StringFixed(2))
	assert.Equal(t, 1, report.Cycles)
}

func TestAggregatedOverviewFrom_NoBudget(t *testing.T) {
	reporter := newTestReporter(nil)
	overview := reporter.OverviewFrom([]domain.CategoryReport{
		{Title: "Food", Data: []domain.CategoryReportItem{{Name: "Groceries", Actual: amount("10")}}},
	})

	assert.Nil(t, reporter.AggregatedOverviewFrom(overview, testutil.Date(2018, 3, 1), testutil.Date(2018, 3, 2), nil))
}

func amount(s string) domain.Amount {
	return domain.NewAmount(testutil.Line(testutil.Date(2018, 1, 1), "x", s).Amount)
}

func assertAggregate(t *testing.T, item domain.AggregateOverviewItem, name, actual, budget, historical, ytdActual, ytdBudget, variance, annual string) {
	t.Helper()
	assert.Equal(t, name, item.Name)
	assert.Equal(t, actual, item.Actual.StringFixed(2), "actual")
	assert.Equal(t, budget, item.Budget.StringFixed(2), "budget")
	assert.Equal(t, historical, item.HistoricalActual.StringFixed(2), "historicalActual")
	assert.Equal(t, ytdActual, item.YearToDateActual.StringFixed(2), "yearToDateActual")
	assert.Equal(t, ytdBudget, item.YearToDateBudget.StringFixed(2), "yearToDateBudget")
	assert.Equal(t, variance, item.Variance.StringFixed(2), "variance")
	assert.Equal(t, annual, item.AnnualBudget.StringFixed(2), "annualBudget")
}
