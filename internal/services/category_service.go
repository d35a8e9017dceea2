package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tally/internal/core"
	"tally/internal/storage"
)

// CategoryService performs the structural operations on a ledger's category
// tree. The tree is at most two levels deep and a child always has its
// parent's type; every operation rejects a would-be violation before
// touching the database.
type CategoryService struct {
	store  *storage.Repository
	events EventPublisher
}

// NewCategoryService creates a CategoryService. events may be nil.
func NewCategoryService(store *storage.Repository, events EventPublisher) *CategoryService {
	return &CategoryService{store: store, events: events}
}

// copyTemplateTree copies the global template taxonomy into a fresh ledger:
// roots first, then their children under the freshly assigned parent IDs.
// Runs inside the ledger-creation transaction.
func copyTemplateTree(ctx context.Context, q *storage.Queries, ledgerID int64) ([]core.LedgerCategory, error) {
	tpl, err := q.ListTemplateCategories(ctx)
	if err != nil {
		return nil, err
	}

	// Template ID -> copied node ID, filled as roots are inserted. The
	// template is ordered roots-first, so parents always resolve.
	copied := make(map[int64]int64, len(tpl))
	var out []core.LedgerCategory
	for _, t := range tpl {
		node := core.LedgerCategory{LedgerID: ledgerID, Name: t.Name, Type: t.Type}
		if t.ParentID != nil {
			parentID, ok := copied[*t.ParentID]
			if !ok {
				return nil, fmt.Errorf("template category %d: parent %d not copied yet", t.ID, *t.ParentID)
			}
			node.ParentID = &parentID
		}
		node, err := q.CreateLedgerCategory(ctx, node)
		if err != nil {
			return nil, err
		}
		copied[t.ID] = node.ID
		out = append(out, node)
	}
	return out, nil
}

// Promote turns a child category into a root. Valid only for nodes that
// currently have a parent.
func (s *CategoryService) Promote(ctx context.Context, userID, categoryID int64) error {
	err := s.store.ExecTx(ctx, func(q *storage.Queries) error {
		c, err := requireCategory(ctx, q, userID, categoryID)
		if err != nil {
			return err
		}
		if c.IsRoot() {
			return core.ErrNotChild
		}
		c.ParentID = nil
		return q.UpdateLedgerCategory(ctx, c)
	})
	if err != nil {
		return err
	}
	publish(ctx, s.events, "category", categoryID, "updated")
	return nil
}

// Demote moves a root category under another root of the same type. The
// node must be childless-at-top: demoting keeps the depth bound because
// both the node and its new parent must currently be roots.
func (s *CategoryService) Demote(ctx context.Context, userID, categoryID, newParentID int64) error {
	err := s.store.ExecTx(ctx, func(q *storage.Queries) error {
		c, err := requireCategory(ctx, q, userID, categoryID)
		if err != nil {
			return err
		}
		if !c.IsRoot() {
			return core.ErrNotRoot
		}
		children, err := q.ListChildCategories(ctx, c.ID)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return core.ErrCategoryDepth
		}
		return s.attach(ctx, q, userID, c, newParentID)
	})
	if err != nil {
		return err
	}
	publish(ctx, s.events, "category", categoryID, "updated")
	return nil
}

// Reparent moves an existing child under a different root of the same type.
func (s *CategoryService) Reparent(ctx context.Context, userID, categoryID, newParentID int64) error {
	err := s.store.ExecTx(ctx, func(q *storage.Queries) error {
		c, err := requireCategory(ctx, q, userID, categoryID)
		if err != nil {
			return err
		}
		if c.IsRoot() {
			return core.ErrNotChild
		}
		return s.attach(ctx, q, userID, c, newParentID)
	})
	if err != nil {
		return err
	}
	publish(ctx, s.events, "category", categoryID, "updated")
	return nil
}

// attach points c at newParent after checking the shared preconditions:
// same ledger, same type, parent is a root.
func (s *CategoryService) attach(ctx context.Context, q *storage.Queries, userID int64, c core.LedgerCategory, newParentID int64) error {
	if newParentID == c.ID {
		return core.ErrCategoryDepth
	}
	parent, err := requireCategory(ctx, q, userID, newParentID)
	if err != nil {
		return fmt.Errorf("new parent: %w", err)
	}
	if parent.LedgerID != c.LedgerID {
		return core.ErrNotFound
	}
	if !parent.IsRoot() {
		return core.ErrCategoryDepth
	}
	if parent.Type != c.Type {
		return core.ErrTypeMismatch
	}
	c.ParentID = &parent.ID
	return q.UpdateLedgerCategory(ctx, c)
}

// Rename changes a node's name, rejecting empty names and exact duplicates
// among its siblings.
func (s *CategoryService) Rename(ctx context.Context, userID, categoryID int64, newName string) error {
	newName = strings.TrimSpace(newName)
	if err := core.ValidateCategoryName(newName); err != nil {
		return err
	}
	err := s.store.ExecTx(ctx, func(q *storage.Queries) error {
		c, err := requireCategory(ctx, q, userID, categoryID)
		if err != nil {
			return err
		}
		dup, err := q.SiblingExists(ctx, c, newName)
		if err != nil {
			return err
		}
		if dup {
			return core.ErrDuplicateName
		}
		c.Name = newName
		return q.UpdateLedgerCategory(ctx, c)
	})
	if err != nil {
		return err
	}
	publish(ctx, s.events, "category", categoryID, "updated")
	return nil
}

// Delete removes a category node and its children. Transactions referencing
// the subtree are either deleted outright (cascade true) or re-pointed at
// migrateTarget. Type agreement between the node and the target is not
// checked; both halves of the taxonomy are accepted.
func (s *CategoryService) Delete(ctx context.Context, userID, categoryID int64, cascade bool, migrateTarget *int64) error {
	err := s.store.ExecTx(ctx, func(q *storage.Queries) error {
		c, err := requireCategory(ctx, q, userID, categoryID)
		if err != nil {
			return err
		}
		children, err := q.ListChildCategories(ctx, c.ID)
		if err != nil {
			return err
		}
		subtree := make([]int64, 0, len(children)+1)
		subtree = append(subtree, c.ID)
		for _, child := range children {
			subtree = append(subtree, child.ID)
		}

		switch {
		case cascade:
			txs, err := q.ListCategoryTransactions(ctx, subtree)
			if err != nil {
				return err
			}
			for _, t := range txs {
				if err := reverseEffect(ctx, q, userID, t); err != nil {
					return err
				}
			}
			if err := q.DeleteTransactionsByCategory(ctx, subtree); err != nil {
				return err
			}
		case migrateTarget != nil:
			target, err := requireCategory(ctx, q, userID, *migrateTarget)
			if err != nil {
				return fmt.Errorf("migrate target: %w", err)
			}
			if target.LedgerID != c.LedgerID {
				return core.ErrNotFound
			}
			for _, id := range subtree {
				if id == target.ID {
					return core.ErrNotFound
				}
			}
			if err := q.ReassignTransactionCategory(ctx, subtree, target.ID); err != nil {
				return err
			}
		default:
			// No cascade and no target: transactions keep their rows and
			// lose the tag through the schema's ON DELETE SET NULL.
		}
		return q.DeleteLedgerCategory(ctx, c.ID)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Category deleted", "id", categoryID, "cascade", cascade)
	publish(ctx, s.events, "category", categoryID, "deleted")
	return nil
}

// Tree returns every category node of a ledger, roots first.
func (s *CategoryService) Tree(ctx context.Context, userID, ledgerID int64) ([]core.LedgerCategory, error) {
	if _, err := requireLedger(ctx, s.store.Queries, userID, ledgerID); err != nil {
		return nil, err
	}
	return s.store.ListLedgerCategories(ctx, ledgerID)
}
