// Package taxonomy describes the two-level macro/subcat category tree.
package taxonomy

import "github.com/SamuelPereira26/Finhouse/internal/normalize"

// Well-known macros the pipeline treats specially.
const (
	Utilities     = "Suministros"
	Home          = "Casa"
	Transport     = "Transporte"
	Groceries     = "Supermercado"
	Leisure       = "Ocio"
	Subscriptions = "Suscripciones"
	Health        = "Cuidado y salud"
	Other         = "Otros"
	Donations     = "Donaciones"
	Contributions = "Aportaciones"
	Income        = "Ingresos"

	OtherIncome   = "Otros ingresos"
	Uncategorized = "No clasificado"
)

// Category is one macro with its subcategories.
type Category struct {
	Name         string   `yaml:"name" json:"name"`
	Subcats      []string `yaml:"subcats" json:"subcats"`
	LifeExpense  bool     `yaml:"life_expense" json:"isLifeExpense"`
	RequiresNote bool     `yaml:"requires_note" json:"requiresNote"`
}

// Taxonomy is an ordered set of categories. Order is the display order.
type Taxonomy struct {
	categories []Category
	byName     map[string]Category
}

// New builds a Taxonomy from categories in display order.
func New(categories []Category) *Taxonomy {
	byName := make(map[string]Category, len(categories))
	for _, c := range categories {
		byName[normalize.CleanText(c.Name)] = c
	}
	return &Taxonomy{categories: categories, byName: byName}
}

// Categories returns all categories in display order.
func (t *Taxonomy) Categories() []Category {
	return t.categories
}

// Order returns macro names in display order.
func (t *Taxonomy) Order() []string {
	names := make([]string, len(t.categories))
	for i, c := range t.categories {
		names[i] = c.Name
	}
	return names
}

// Get looks up a macro case- and accent-insensitively.
func (t *Taxonomy) Get(macro string) (Category, bool) {
	c, ok := t.byName[normalize.CleanText(macro)]
	return c, ok
}

// Exists reports whether macro is a known category.
func (t *Taxonomy) Exists(macro string) bool {
	_, ok := t.Get(macro)
	return ok
}

// RequiresNote reports whether transactions in macro need a user note.
func (t *Taxonomy) RequiresNote(macro string) bool {
	c, ok := t.Get(macro)
	return ok && c.RequiresNote
}

// IsLifeExpense reports whether macro counts towards day-to-day living costs.
func (t *Taxonomy) IsLifeExpense(macro string) bool {
	c, ok := t.Get(macro)
	return ok && c.LifeExpense
}

// FirstSubcat returns the first listed subcat of macro, or fallback.
func (t *Taxonomy) FirstSubcat(macro, fallback string) string {
	if c, ok := t.Get(macro); ok && len(c.Subcats) > 0 {
		return c.Subcats[0]
	}
	return fallback
}

// HasSubcat reports whether subcat belongs to macro.
func (t *Taxonomy) HasSubcat(macro, subcat string) bool {
	c, ok := t.Get(macro)
	if !ok {
		return false
	}
	want := normalize.CleanText(subcat)
	for _, s := range c.Subcats {
		if normalize.CleanText(s) == want {
			return true
		}
	}
	return false
}
