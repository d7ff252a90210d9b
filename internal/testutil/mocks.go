package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/dafibh/tally/tally-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

type decisionKey struct {
	year  int
	month int
	user  string
}

// MockDecisionStore is an in-memory implementation of domain.DecisionStore
type MockDecisionStore struct {
	mu       sync.Mutex
	batches  map[decisionKey][]domain.Decision
	Metadata map[string]domain.StatementMetadata
	Reads    []string
	Writes   int
	ReadErr  error
	WriteErr error
}

// NewMockDecisionStore creates a new MockDecisionStore
func NewMockDecisionStore() *MockDecisionStore {
	return &MockDecisionStore{
		batches:  make(map[decisionKey][]domain.Decision),
		Metadata: make(map[string]domain.StatementMetadata),
	}
}

// Read returns the stored batch, recording the key as yyyy-mm/user
func (m *MockDecisionStore) Read(ctx context.Context, year, month int, user string) ([]domain.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Reads = append(m.Reads, fmt.Sprintf("%04d-%02d/%s", year, month, user))
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}

	stored := m.batches[decisionKey{year: year, month: month, user: user}]
	out := make([]domain.Decision, len(stored))
	copy(out, stored)
	return out, nil
}

// Write replaces the batch stored for the metadata's key
func (m *MockDecisionStore) Write(ctx context.Context, meta domain.StatementMetadata, decisions []domain.Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Writes++

	stored := make([]domain.Decision, len(decisions))
	copy(stored, decisions)
	m.batches[decisionKey{year: meta.Year, month: meta.Month, user: meta.User}] = stored
	m.Metadata[fmt.Sprintf("%04d-%02d/%s", meta.Year, meta.Month, meta.User)] = meta
	return nil
}

// AddDecisions stores a batch directly, bypassing Write bookkeeping
func (m *MockDecisionStore) AddDecisions(year, month int, user string, decisions ...domain.Decision) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches[decisionKey{year: year, month: month, user: user}] = decisions
}

// MockMappingPersistence is an in-memory implementation of domain.MappingPersistence
type MockMappingPersistence struct {
	mu        sync.Mutex
	Lines     []string
	AppendErr error
	ReadErr   error
}

// NewMockMappingPersistence creates a MockMappingPersistence holding lines
func NewMockMappingPersistence(lines ...string) *MockMappingPersistence {
	return &MockMappingPersistence{Lines: lines}
}

// Append adds a line to the end of the log
func (m *MockMappingPersistence) Append(ctx context.Context, line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.Lines = append(m.Lines, line)
	return nil
}

// ReadAll returns a copy of every line
func (m *MockMappingPersistence) ReadAll(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	out := make([]string, len(m.Lines))
	copy(out, m.Lines)
	return out, nil
}

// StaticSchema is a fixed domain.CategorySchema
type StaticSchema []domain.Category

// All returns the categories in order
func (s StaticSchema) All() []domain.Category {
	return s
}

// NewCategory builds a category with the named subcategories
func NewCategory(title string, subCategories ...string) domain.Category {
	subs := make([]domain.SubCategory, len(subCategories))
	for i, name := range subCategories {
		subs[i] = domain.SubCategory{Name: name}
	}
	return domain.Category{Title: title, SubCategories: subs}
}

// DefaultSchema returns a small schema used across tests
func DefaultSchema() StaticSchema {
	return StaticSchema{
		NewCategory("Food", "Groceries", "Eating Out"),
		NewCategory("Home", "Rent", "Utilities"),
		NewCategory("Travel", "Fuel", "Trains"),
	}
}

// MockBudgetProvider is an in-memory domain.AnnualBudgetProvider
type MockBudgetProvider struct {
	Periods []domain.AnnualBudget
}

// PeriodsFor returns the periods matching category and subCategory in insertion order
func (m *MockBudgetProvider) PeriodsFor(category string, subCategory *string) []domain.AnnualBudget {
	var out []domain.AnnualBudget
	for _, p := range m.Periods {
		if p.Category != category {
			continue
		}
		if (subCategory == nil) != (p.SubCategory == nil) {
			continue
		}
		if subCategory != nil && *subCategory != *p.SubCategory {
			continue
		}
		out = append(out, p)
	}
	return out
}

// AddCategoryBudget adds a category-level period
func (m *MockBudgetProvider) AddCategoryBudget(category, allocated string, start, end time.Time) {
	m.Periods = append(m.Periods, domain.AnnualBudget{
		Category:           category,
		Allocated:          decimal.RequireFromString(allocated),
		StartDateInclusive: start,
		EndDateInclusive:   end,
	})
}

// AddSubCategoryBudget adds a subcategory-level period
func (m *MockBudgetProvider) AddSubCategoryBudget(category, subCategory, allocated string, start, end time.Time) {
	sub := subCategory
	m.Periods = append(m.Periods, domain.AnnualBudget{
		Category:           category,
		SubCategory:        &sub,
		Allocated:          decimal.RequireFromString(allocated),
		StartDateInclusive: start,
		EndDateInclusive:   end,
	})
}

// MockStatementArchive records stored statements
type MockStatementArchive struct {
	mu       sync.Mutex
	Contents map[string][]byte
	StoreErr error
}

// NewMockStatementArchive creates a new MockStatementArchive
func NewMockStatementArchive() *MockStatementArchive {
	return &MockStatementArchive{Contents: make(map[string][]byte)}
}

// Store keeps content under user/year-month/statementName
func (m *MockStatementArchive) Store(ctx context.Context, meta domain.StatementMetadata, content []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StoreErr != nil {
		return "", m.StoreErr
	}
	key := fmt.Sprintf("%s/%04d-%02d/%s", meta.User, meta.Year, meta.Month, meta.StatementName)
	m.Contents[key] = content
	return key, nil
}

// PublishedEvent is an event captured by MockEventPublisher
type PublishedEvent struct {
	User  string
	Event websocket.Event
}

// MockEventPublisher captures published events
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

// Publish records the event
func (m *MockEventPublisher) Publish(user string, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{User: user, Event: event})
}

// Types returns the type of each published event in order
func (m *MockEventPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.Events))
	for i, e := range m.Events {
		types[i] = e.Event.Type
	}
	return types
}

// Date returns midnight UTC on the given day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Line builds a statement line with the amount parsed from a string
func Line(date time.Time, merchant, amount string) domain.Line {
	return domain.Line{Date: date, Merchant: merchant, Amount: decimal.RequireFromString(amount)}
}
