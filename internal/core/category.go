package core

import "strings"

// CategoryType splits the taxonomy into income and expense halves. A child
// always has the type of its parent.
type CategoryType string

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
)

// MaxCategoryDepth bounds the tree: root categories plus one level of
// children, nothing deeper.
const MaxCategoryDepth = 2

type (
	// Category is a row of the global template taxonomy. Templates are
	// immutable seed data, copied into every new ledger.
	Category struct {
		ID       int64
		Name     string
		Type     CategoryType
		ParentID *int64
	}

	// LedgerCategory is the per-ledger mutable copy of a template node.
	LedgerCategory struct {
		ID       int64
		LedgerID int64
		Name     string
		Type     CategoryType
		ParentID *int64
	}
)

// IsRoot reports whether the node sits at the top of its tree.
func (c LedgerCategory) IsRoot() bool { return c.ParentID == nil }

// ValidateCategoryName applies the shared naming rules for category nodes.
func ValidateCategoryName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if len([]rune(name)) > 64 {
		return ErrNameTooLong
	}
	return nil
}
