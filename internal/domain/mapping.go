package domain

import (
	"context"
	"fmt"
	"strings"
)

// MaxMappingLength is the longest raw mapping record accepted, in bytes
const MaxMappingLength = 512

// CategoryMapping associates a merchant substring with a category and subcategory.
// Mappings are append-only; duplicates are allowed and the first match wins.
type CategoryMapping struct {
	MerchantPattern string `json:"merchantPattern"`
	Category        string `json:"category"`
	SubCategory     string `json:"subcategory"`
}

// String returns the persisted record form: merchantPattern,category,subcategory
func (m CategoryMapping) String() string {
	return strings.Join([]string{m.MerchantPattern, m.Category, m.SubCategory}, ",")
}

// MappingSnapshot is a point-in-time view of the mapping log.
// Version is the number of records in the log when the snapshot was taken;
// an older snapshot is always a prefix of a newer one.
type MappingSnapshot struct {
	Version  int               `json:"version"`
	Mappings []CategoryMapping `json:"mappings"`
}

// MappingPersistence stores raw mapping records in insertion order
type MappingPersistence interface {
	Append(ctx context.Context, line string) error
	ReadAll(ctx context.Context) ([]string, error)
}

// ParseCategoryMapping splits a raw record into its three fields.
// It does not check the fields against a category schema.
func ParseCategoryMapping(raw string) (CategoryMapping, error) {
	if len(raw) > MaxMappingLength {
		return CategoryMapping{}, &ValidationError{
			Field:   "mapping",
			Message: fmt.Sprintf("must be at most %d bytes", MaxMappingLength),
		}
	}
	if strings.ContainsAny(raw, "\r\n") {
		return CategoryMapping{}, &ValidationError{Field: "mapping", Message: "must be a single line"}
	}

	fields := strings.Split(raw, ",")
	if len(fields) != 3 {
		return CategoryMapping{}, &ValidationError{
			Field:   "mapping",
			Message: fmt.Sprintf("expected 3 comma-separated fields, got %d", len(fields)),
		}
	}

	names := [3]string{"merchantPattern", "category", "subcategory"}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
		if fields[i] == "" {
			return CategoryMapping{}, &ValidationError{Field: names[i], Message: "must not be empty"}
		}
	}

	return CategoryMapping{
		MerchantPattern: fields[0],
		Category:        fields[1],
		SubCategory:     fields[2],
	}, nil
}
