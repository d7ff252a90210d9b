package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// DecisionPayload is the wire form of a decision. Category and subcategory are
// absent for an unresolved decision.
type DecisionPayload struct {
	Date        string  `json:"date"`
	Merchant    string  `json:"merchant"`
	Amount      string  `json:"amount"`
	Category    *string `json:"category,omitempty"`
	SubCategory *string `json:"subcategory,omitempty"`
	Resolved    bool    `json:"resolved"`
}

func toDecisionPayload(d domain.Decision) DecisionPayload {
	payload := DecisionPayload{
		Date:     d.Line.Date.Format(domain.DateLayout),
		Merchant: d.Line.Merchant,
		Amount:   d.Line.Amount.String(),
	}
	if res, ok := d.Resolved(); ok {
		payload.Category = &res.Category
		payload.SubCategory = &res.SubCategory
		payload.Resolved = true
	}
	return payload
}

func toDecisionPayloads(decisions []domain.Decision) []DecisionPayload {
	out := make([]DecisionPayload, len(decisions))
	for i, d := range decisions {
		out[i] = toDecisionPayload(d)
	}
	return out
}

// toDomainDecisions converts submitted payloads. Missing category fields yield
// an unresolved decision; the service decides whether that is acceptable.
func toDomainDecisions(payloads []DecisionPayload) ([]domain.Decision, []ValidationError) {
	decisions := make([]domain.Decision, 0, len(payloads))
	var errs []ValidationError

	for i, p := range payloads {
		field := fmt.Sprintf("decisions[%d]", i)

		date, err := time.Parse(domain.DateLayout, strings.TrimSpace(p.Date))
		if err != nil {
			errs = append(errs, ValidationError{Field: field + ".date", Message: "must be yyyy-mm-dd"})
			continue
		}
		merchant := strings.TrimSpace(p.Merchant)
		if merchant == "" {
			errs = append(errs, ValidationError{Field: field + ".merchant", Message: "is required"})
			continue
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(p.Amount))
		if err != nil {
			errs = append(errs, ValidationError{Field: field + ".amount", Message: "must be a decimal number"})
			continue
		}

		line := domain.Line{Date: date, Merchant: merchant, Amount: amount}
		if p.Category != nil && p.SubCategory != nil {
			decisions = append(decisions, domain.NewResolvedDecision(line, strings.TrimSpace(*p.Category), strings.TrimSpace(*p.SubCategory)))
		} else {
			decisions = append(decisions, domain.NewUnresolvedDecision(line))
		}
	}
	return decisions, errs
}
