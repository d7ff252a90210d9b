package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/dafibh/tally/tally-backend/internal/domain"
)

func TestCreateMapping_Success(t *testing.T) {
	app := newTestApp()
	h := NewMappingHandler(app.mappingService)

	c, rec := newJSONContext(http.MethodPost, "/api/v1/mappings", `{"mapping":"Tesco,Food,Groceries"}`)
	if err := h.CreateMapping(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rec.Code)
	}

	var mapping domain.CategoryMapping
	if err := json.Unmarshal(rec.Body.Bytes(), &mapping); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if mapping.MerchantPattern != "Tesco" || mapping.SubCategory != "Groceries" {
		t.Errorf("Unexpected mapping %+v", mapping)
	}
	if len(app.mappings.Lines) != 1 {
		t.Errorf("Expected one stored mapping, got %v", app.mappings.Lines)
	}
}

func TestCreateMapping_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"wrong field count", `{"mapping":"Tesco,Food"}`, "mapping"},
		{"unknown category", `{"mapping":"Tesco,Hobbies,Models"}`, "category"},
		{"missing body field", `{}`, "mapping"},
		{"oversized record", `{"mapping":"` + strings.Repeat("A", 70*1024) + `,Food,Groceries"}`, "mapping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp()
			h := NewMappingHandler(app.mappingService)

			c, rec := newJSONContext(http.MethodPost, "/api/v1/mappings", tt.body)
			if err := h.CreateMapping(c); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", rec.Code)
			}
			problem := decodeProblem(t, rec)
			if len(problem.Errors) != 1 || problem.Errors[0].Field != tt.field {
				t.Errorf("Expected error on %q, got %+v", tt.field, problem.Errors)
			}
			if len(app.mappings.Lines) != 0 {
				t.Error("Expected nothing to be stored")
			}
		})
	}
}

func TestCreateMapping_StorageFailure(t *testing.T) {
	app := newTestApp()
	app.mappings.AppendErr = errors.New("read-only file system")
	h := NewMappingHandler(app.mappingService)

	c, rec := newJSONContext(http.MethodPost, "/api/v1/mappings", `{"mapping":"Tesco,Food,Groceries"}`)
	if err := h.CreateMapping(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
}

func TestGetMappings(t *testing.T) {
	app := newTestApp("Tesco,Food,Groceries", "Shell,Travel,Fuel")
	h := NewMappingHandler(app.mappingService)

	c, rec := newJSONContext(http.MethodGet, "/api/v1/mappings", "")
	if err := h.GetMappings(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var snapshot domain.MappingSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if snapshot.Version != 2 || snapshot.Mappings[1].MerchantPattern != "Shell" {
		t.Errorf("Unexpected snapshot %+v", snapshot)
	}
}
