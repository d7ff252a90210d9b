package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dafibh/tally/tally-backend/internal/service"
	"github.com/dafibh/tally/tally-backend/internal/testutil"
	"github.com/labstack/echo/v4"
)

// testApp wires the services over in-memory doubles
type testApp struct {
	store     *testutil.MockDecisionStore
	mappings  *testutil.MockMappingPersistence
	budgets   *testutil.MockBudgetProvider
	publisher *testutil.MockEventPublisher

	mappingService   *service.MappingService
	statementService *service.StatementService
	reportService    *service.ReportService
}

func newTestApp(mappingRecords ...string) *testApp {
	schema := testutil.DefaultSchema()
	app := &testApp{
		store:     testutil.NewMockDecisionStore(),
		mappings:  testutil.NewMockMappingPersistence(mappingRecords...),
		budgets:   &testutil.MockBudgetProvider{},
		publisher: &testutil.MockEventPublisher{},
	}
	app.mappingService = service.NewMappingService(app.mappings, schema)
	app.statementService = service.NewStatementService(service.NewStatementDecider(), app.mappingService, app.store, schema, []string{"alice", "bob"})
	app.statementService.SetEventPublisher(app.publisher)
	app.reportService = service.NewReportService(app.store, service.NewCategoryReporter(schema, app.budgets))
	app.reportService.SetUsers([]string{"alice", "bob"})
	return app
}

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withPeriod(c echo.Context, year, month string) {
	c.SetParamNames("year", "month")
	c.SetParamValues(year, month)
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal problem: %v", err)
	}
	return problem
}
