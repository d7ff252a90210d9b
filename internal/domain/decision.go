package domain

import "context"

// Resolution is the categorisation outcome of a line: Resolved or Unresolved.
type Resolution interface {
	isResolution()
}

// Resolved carries the category and subcategory assigned to a line
type Resolved struct {
	Category    string
	SubCategory string
}

// Unresolved marks a line whose merchant matched no mapping
type Unresolved struct{}

func (Resolved) isResolution()   {}
func (Unresolved) isResolution() {}

// Decision is the categorisation outcome for one statement line
type Decision struct {
	Line       Line
	Resolution Resolution
}

// NewResolvedDecision creates a decision assigned to category/subcategory
func NewResolvedDecision(line Line, category, subCategory string) Decision {
	return Decision{Line: line, Resolution: Resolved{Category: category, SubCategory: subCategory}}
}

// NewUnresolvedDecision creates an uncategorised decision
func NewUnresolvedDecision(line Line) Decision {
	return Decision{Line: line, Resolution: Unresolved{}}
}

// Resolved returns the resolution when the decision is categorised.
// A zero Decision is unresolved.
func (d Decision) Resolved() (Resolved, bool) {
	r, ok := d.Resolution.(Resolved)
	return r, ok
}

// IsResolved reports whether the decision carries a category
func (d Decision) IsResolved() bool {
	_, ok := d.Resolved()
	return ok
}

// DecisionStore persists decision batches keyed by (year, month, user).
// Read returns an empty slice when nothing is stored for the key.
// Write replaces whatever was stored for the key.
type DecisionStore interface {
	Read(ctx context.Context, year, month int, user string) ([]Decision, error)
	Write(ctx context.Context, meta StatementMetadata, decisions []Decision) error
}
