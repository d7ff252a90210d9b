package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/dafibh/tally/tally-backend/internal/testutil"
)

func TestUploadStatement_Persisted(t *testing.T) {
	app := newTestApp("Tesco,Food,Groceries", "Shell,Travel,Fuel")
	h := NewStatementHandler(app.statementService)

	body := `{"year":2018,"month":3,"user":"alice","statementName":"march.csv",
		"lines":["2018-03-10,Tesco Metro,10.50","2018-03-12,Shell,30"]}`
	c, rec := newJSONContext(http.MethodPost, "/api/v1/statements", body)

	if err := h.UploadStatement(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response UploadStatementResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Status != "persisted" {
		t.Errorf("Expected status persisted, got %s", response.Status)
	}
	if response.MappingVersion != 2 {
		t.Errorf("Expected mapping version 2, got %d", response.MappingVersion)
	}
	if response.BatchID == "" {
		t.Error("Expected a batch id")
	}
	if len(response.UnknownMerchants) != 0 {
		t.Errorf("Expected no unknown merchants, got %v", response.UnknownMerchants)
	}
	if len(response.Decisions) != 2 {
		t.Fatalf("Expected 2 decisions, got %d", len(response.Decisions))
	}
	first := response.Decisions[0]
	if !first.Resolved || *first.Category != "Food" || *first.SubCategory != "Groceries" || first.Amount != "10.5" {
		t.Errorf("Unexpected first decision %+v", first)
	}
	if app.store.Writes != 1 {
		t.Errorf("Expected one write, got %d", app.store.Writes)
	}
}

func TestUploadStatement_AwaitingMapping(t *testing.T) {
	app := newTestApp("Tesco,Food,Groceries")
	h := NewStatementHandler(app.statementService)

	body := `{"year":2018,"month":3,"user":"alice","statementName":"march.csv",
		"lines":["2018-03-10,Bakery,1.00","2018-03-11,Tesco,2.00","2018-03-12,Bakery,3.00"]}`
	c, rec := newJSONContext(http.MethodPost, "/api/v1/statements", body)

	if err := h.UploadStatement(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", rec.Code)
	}

	var response UploadStatementResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Status != "awaiting_mapping" {
		t.Errorf("Expected status awaiting_mapping, got %s", response.Status)
	}
	if len(response.UnknownMerchants) != 1 || response.UnknownMerchants[0] != "Bakery" {
		t.Errorf("Expected [Bakery], got %v", response.UnknownMerchants)
	}
	if response.Decisions[0].Resolved || response.Decisions[0].Category != nil {
		t.Errorf("Expected first decision to be unresolved, got %+v", response.Decisions[0])
	}
	if app.store.Writes != 0 {
		t.Error("Expected nothing to be persisted")
	}
	if types := app.publisher.Types(); len(types) != 1 || types[0] != "statement.awaiting_mapping" {
		t.Errorf("Unexpected events %v", types)
	}
}

func TestUploadStatement_ParseError(t *testing.T) {
	app := newTestApp("Tesco,Food,Groceries")
	h := NewStatementHandler(app.statementService)

	body := `{"year":2018,"month":3,"user":"alice","statementName":"march.csv",
		"lines":["2018-03-10,Tesco,1.00","10/03/2018,Tesco,2.00"]}`
	c, rec := newJSONContext(http.MethodPost, "/api/v1/statements", body)

	if err := h.UploadStatement(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}

	problem := decodeProblem(t, rec)
	if problem.Type != ErrorTypeParse {
		t.Errorf("Expected parse error type, got %s", problem.Type)
	}
	if problem.Line != 2 {
		t.Errorf("Expected line 2, got %d", problem.Line)
	}
	if len(problem.Errors) != 1 || problem.Errors[0].Field != "date" {
		t.Errorf("Expected a date field error, got %+v", problem.Errors)
	}
}

func TestUploadStatement_InvalidMetadata(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"bad month", `{"year":2018,"month":13,"user":"alice","statementName":"s.csv","lines":["2018-03-10,Tesco,1"]}`, "month"},
		{"unknown user", `{"year":2018,"month":3,"user":"mallory","statementName":"s.csv","lines":["2018-03-10,Tesco,1"]}`, "user"},
		{"no lines", `{"year":2018,"month":3,"user":"alice","statementName":"s.csv","lines":["  "]}`, "lines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp("Tesco,Food,Groceries")
			h := NewStatementHandler(app.statementService)

			c, rec := newJSONContext(http.MethodPost, "/api/v1/statements", tt.body)
			if err := h.UploadStatement(c); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", rec.Code)
			}
			problem := decodeProblem(t, rec)
			if len(problem.Errors) != 1 || problem.Errors[0].Field != tt.field {
				t.Errorf("Expected error on %q, got %+v", tt.field, problem.Errors)
			}
		})
	}
}

func TestUploadStatement_StoreFailure(t *testing.T) {
	app := newTestApp("Tesco,Food,Groceries")
	app.store.WriteErr = errors.New("disk full")
	h := NewStatementHandler(app.statementService)

	body := `{"year":2018,"month":3,"user":"alice","statementName":"march.csv","lines":["2018-03-10,Tesco,1.00"]}`
	c, rec := newJSONContext(http.MethodPost, "/api/v1/statements", body)

	if err := h.UploadStatement(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
}

func TestGetDecisions(t *testing.T) {
	app := newTestApp()
	app.store.AddDecisions(2018, 3, "alice",
		domain.NewResolvedDecision(testutil.Line(testutil.Date(2018, 3, 10), "Tesco", "10.00"), "Food", "Groceries"),
	)
	h := NewStatementHandler(app.statementService)

	c, rec := newJSONContext(http.MethodGet, "/api/v1/decisions/2018/3?user=alice", "")
	withPeriod(c, "2018", "3")
	if err := h.GetDecisions(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response DecisionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.User != "alice" || len(response.Decisions) != 1 {
		t.Fatalf("Unexpected response %+v", response)
	}
	if response.Decisions[0].Date != "2018-03-10" {
		t.Errorf("Expected date 2018-03-10, got %s", response.Decisions[0].Date)
	}

	// Another user's key is empty, not an error
	c, rec = newJSONContext(http.MethodGet, "/api/v1/decisions/2018/3?user=bob", "")
	withPeriod(c, "2018", "3")
	if err := h.GetDecisions(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"decisions":[]`) {
		t.Errorf("Expected empty decisions, got %s", rec.Body.String())
	}
}

func TestGetDecisions_InvalidPeriod(t *testing.T) {
	app := newTestApp()
	h := NewStatementHandler(app.statementService)

	c, rec := newJSONContext(http.MethodGet, "/api/v1/decisions/2018/0?user=alice", "")
	withPeriod(c, "2018", "0")
	if err := h.GetDecisions(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestGetDecisions_UnknownUser(t *testing.T) {
	app := newTestApp()
	h := NewStatementHandler(app.statementService)

	c, rec := newJSONContext(http.MethodGet, "/api/v1/decisions/2018/3?user=mallory", "")
	withPeriod(c, "2018", "3")
	if err := h.GetDecisions(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}
	if len(app.store.Reads) != 0 {
		t.Error("Expected the store not to be read")
	}
}

func TestSubmitDecisions_Success(t *testing.T) {
	app := newTestApp()
	h := NewStatementHandler(app.statementService)

	body := `{"user":"alice","statementName":"march.csv","decisions":[
		{"date":"2018-03-10","merchant":"Bakery","amount":"3.20","category":"Food","subcategory":"Eating Out"}]}`
	c, rec := newJSONContext(http.MethodPut, "/api/v1/decisions/2018/3", body)
	withPeriod(c, "2018", "3")

	if err := h.SubmitDecisions(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if app.store.Writes != 1 {
		t.Errorf("Expected one write, got %d", app.store.Writes)
	}
	if types := app.publisher.Types(); len(types) != 1 || types[0] != "decisions.persisted" {
		t.Errorf("Unexpected events %v", types)
	}
}

func TestSubmitDecisions_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{
			"bad date",
			`{"user":"alice","statementName":"s","decisions":[{"date":"10/03/2018","merchant":"A","amount":"1","category":"Food","subcategory":"Groceries"}]}`,
			"decisions[0].date",
		},
		{
			"bad amount",
			`{"user":"alice","statementName":"s","decisions":[{"date":"2018-03-10","merchant":"A","amount":"x","category":"Food","subcategory":"Groceries"}]}`,
			"decisions[0].amount",
		},
		{
			"unresolved",
			`{"user":"alice","statementName":"s","decisions":[{"date":"2018-03-10","merchant":"A","amount":"1"}]}`,
			"decisions[0]",
		},
		{
			"unknown subcategory",
			`{"user":"alice","statementName":"s","decisions":[{"date":"2018-03-10","merchant":"A","amount":"1","category":"Food","subcategory":"Rent"}]}`,
			"decisions[0]",
		},
		{
			"empty batch",
			`{"user":"alice","statementName":"s","decisions":[]}`,
			"decisions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp()
			h := NewStatementHandler(app.statementService)

			c, rec := newJSONContext(http.MethodPut, "/api/v1/decisions/2018/3", tt.body)
			withPeriod(c, "2018", "3")
			if err := h.SubmitDecisions(c); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", rec.Code)
			}
			problem := decodeProblem(t, rec)
			if len(problem.Errors) == 0 || problem.Errors[0].Field != tt.field {
				t.Errorf("Expected error on %q, got %+v", tt.field, problem.Errors)
			}
			if app.store.Writes != 0 {
				t.Error("Expected nothing to be persisted")
			}
		})
	}
}
