package file

import (
	"fmt"
	"os"
	"strings"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"gopkg.in/yaml.v3"
)

type schemaDocument struct {
	Categories []struct {
		Title         string   `yaml:"title"`
		SubCategories []string `yaml:"subcategories"`
	} `yaml:"categories"`
}

// SchemaFile is the category schema loaded from a YAML document of the form
//
//	categories:
//	  - title: Food
//	    subcategories: [Groceries, Eating Out]
type SchemaFile struct {
	categories []domain.Category
}

// LoadSchemaFile reads and validates the schema at path
func LoadSchemaFile(path string) (*SchemaFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read schema file: %w", err)
	}
	return ParseSchema(data)
}

// ParseSchema builds a schema from YAML. Titles must be unique, and each category
// needs at least one subcategory with no duplicates.
func ParseSchema(data []byte) (*SchemaFile, error) {
	var doc schemaDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("could not parse schema file: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("schema defines no categories")
	}

	titles := make(map[string]bool)
	categories := make([]domain.Category, 0, len(doc.Categories))
	for i, c := range doc.Categories {
		title := strings.TrimSpace(c.Title)
		if title == "" {
			return nil, fmt.Errorf("category %d has no title", i+1)
		}
		if titles[title] {
			return nil, fmt.Errorf("category %q is defined twice", title)
		}
		titles[title] = true

		if len(c.SubCategories) == 0 {
			return nil, fmt.Errorf("category %q has no subcategories", title)
		}
		seen := make(map[string]bool)
		subs := make([]domain.SubCategory, 0, len(c.SubCategories))
		for _, name := range c.SubCategories {
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				return nil, fmt.Errorf("category %q has an empty or duplicate subcategory %q", title, name)
			}
			if strings.Contains(name, ",") || strings.Contains(title, ",") {
				return nil, fmt.Errorf("category %q: names must not contain commas", title)
			}
			seen[name] = true
			subs = append(subs, domain.SubCategory{Name: name})
		}
		categories = append(categories, domain.Category{Title: title, SubCategories: subs})
	}

	return &SchemaFile{categories: categories}, nil
}

// All returns the categories in file order
func (s *SchemaFile) All() []domain.Category {
	out := make([]domain.Category, len(s.categories))
	copy(out, s.categories)
	return out
}
