package service

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// StatementDecider assigns categories to statement lines using merchant mappings
type StatementDecider struct{}

// NewStatementDecider creates a new StatementDecider
func NewStatementDecider() *StatementDecider {
	return &StatementDecider{}
}

// Process decides every line in order. The result has one decision per line.
func (d *StatementDecider) Process(lines []domain.Line, mappings []domain.CategoryMapping) []domain.Decision {
	decisions := make([]domain.Decision, len(lines))
	for i, line := range lines {
		decisions[i] = d.Decide(line, mappings)
	}
	return decisions
}

// Decide resolves a line with the first mapping, in stored order, whose pattern
// is a case-sensitive substring of the merchant. An unmatched merchant is not an
// error: the decision is simply unresolved.
func (d *StatementDecider) Decide(line domain.Line, mappings []domain.CategoryMapping) domain.Decision {
	for _, m := range mappings {
		if strings.Contains(line.Merchant, m.MerchantPattern) {
			return domain.NewResolvedDecision(line, m.Category, m.SubCategory)
		}
	}
	return domain.NewUnresolvedDecision(line)
}

var (
	errFieldCount    = errors.New("expected date,merchant,amount")
	errEmptyMerchant = errors.New("merchant is empty")
)

// ParseLines parses normalised statement lines of the form yyyy-mm-dd,merchant,amount.
// Merchants containing commas must be quoted. Blank lines are skipped. The first
// malformed line fails the whole batch with a *domain.ParseError.
func ParseLines(raw []string) ([]domain.Line, error) {
	lines := make([]domain.Line, 0, len(raw))
	for i, text := range raw {
		if strings.TrimSpace(text) == "" {
			continue
		}
		line, err := parseLine(text)
		if err != nil {
			err.Line = i + 1
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func parseLine(text string) (domain.Line, *domain.ParseError) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true

	record, err := r.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return domain.Line{}, &domain.ParseError{Raw: text, Err: err}
	}
	if len(record) != 3 {
		return domain.Line{}, &domain.ParseError{Raw: text, Err: errFieldCount}
	}

	date, err := time.Parse(domain.DateLayout, strings.TrimSpace(record[0]))
	if err != nil {
		return domain.Line{}, &domain.ParseError{Raw: text, Field: "date", Err: err}
	}

	merchant := strings.TrimSpace(record[1])
	if merchant == "" {
		return domain.Line{}, &domain.ParseError{Raw: text, Field: "merchant", Err: errEmptyMerchant}
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(record[2]))
	if err != nil {
		return domain.Line{}, &domain.ParseError{Raw: text, Field: "amount", Err: err}
	}

	return domain.Line{Date: date, Merchant: merchant, Amount: amount}, nil
}

// unknownMerchants lists the merchants of unresolved decisions, distinct and in first-seen order
func unknownMerchants(decisions []domain.Decision) []string {
	seen := make(map[string]bool)
	var merchants []string
	for _, d := range decisions {
		if d.IsResolved() || seen[d.Line.Merchant] {
			continue
		}
		seen[d.Line.Merchant] = true
		merchants = append(merchants, d.Line.Merchant)
	}
	return merchants
}
