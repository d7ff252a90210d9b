package service

import (
	"context"
	"fmt"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// MappingService owns the append-only merchant mapping log
type MappingService struct {
	persistence domain.MappingPersistence
	schema      domain.CategorySchema
}

// NewMappingService creates a new MappingService
func NewMappingService(persistence domain.MappingPersistence, schema domain.CategorySchema) *MappingService {
	return &MappingService{
		persistence: persistence,
		schema:      schema,
	}
}

// Append validates a raw merchantPattern,category,subcategory record and adds it
// to the end of the log. A rejected record leaves the log unchanged.
func (s *MappingService) Append(ctx context.Context, raw string) (*domain.CategoryMapping, error) {
	mapping, err := domain.ParseCategoryMapping(raw)
	if err != nil {
		return nil, err
	}

	category, ok := domain.FindCategory(s.schema, mapping.Category)
	if !ok {
		return nil, &domain.ValidationError{Field: "category", Message: fmt.Sprintf("%q is not a known category", mapping.Category)}
	}
	if !category.HasSubCategory(mapping.SubCategory) {
		return nil, &domain.ValidationError{
			Field:   "subcategory",
			Message: fmt.Sprintf("%q is not a subcategory of %q", mapping.SubCategory, mapping.Category),
		}
	}

	if err := s.persistence.Append(ctx, mapping.String()); err != nil {
		return nil, fmt.Errorf("append mapping: %w", err)
	}

	log.Info().
		Str("pattern", mapping.MerchantPattern).
		Str("category", mapping.Category).
		Str("subcategory", mapping.SubCategory).
		Msg("Mapping appended")

	return &mapping, nil
}

// Snapshot returns every mapping in insertion order
func (s *MappingService) Snapshot(ctx context.Context) (*domain.MappingSnapshot, error) {
	lines, err := s.persistence.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read mappings: %w", err)
	}

	mappings := make([]domain.CategoryMapping, 0, len(lines))
	for i, line := range lines {
		m, err := domain.ParseCategoryMapping(line)
		if err != nil {
			return nil, fmt.Errorf("stored mapping %d: %w", i+1, err)
		}
		mappings = append(mappings, m)
	}

	return &domain.MappingSnapshot{
		Version:  len(mappings),
		Mappings: mappings,
	}, nil
}
