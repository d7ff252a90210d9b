package domain

// SubCategory is the second level of the spending classification.
type SubCategory struct {
	Name string `json:"name" yaml:"name"`
}

// Category is a top-level spending category and its ordered subcategories.
type Category struct {
	Title         string        `json:"title" yaml:"title"`
	SubCategories []SubCategory `json:"subcategories" yaml:"subcategories"`
}

// HasSubCategory reports whether name is one of the category's subcategories
func (c Category) HasSubCategory(name string) bool {
	for _, sub := range c.SubCategories {
		if sub.Name == name {
			return true
		}
	}
	return false
}

// CategorySchema provides the canonical, ordered set of categories
type CategorySchema interface {
	All() []Category
}

// FindCategory looks up a category by title
func FindCategory(schema CategorySchema, title string) (Category, bool) {
	for _, c := range schema.All() {
		if c.Title == title {
			return c, true
		}
	}
	return Category{}, false
}
