package core

import "errors"

var (
	// Validation failures: malformed input, rejected before any write.
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeAmount = errors.New("negative amount")
	ErrEmptyName      = errors.New("empty name")
	ErrNameTooLong    = errors.New("name too long")
	ErrMissingAccount = errors.New("missing account for transaction type")
	ErrSameAccount    = errors.New("transfer accounts must differ")
	ErrInvalidDate    = errors.New("invalid date")
	ErrUnknownKind    = errors.New("unknown account kind")
	ErrKindMismatch   = errors.New("operation not valid for this account kind")
	ErrSettled        = errors.New("all periods already paid")

	// Structural invariant violations on the category tree.
	ErrCategoryDepth = errors.New("category tree depth limit exceeded")
	ErrTypeMismatch  = errors.New("category type mismatch")
	ErrNotRoot       = errors.New("category is not a root category")
	ErrNotChild      = errors.New("category has no parent")
	ErrDuplicateName = errors.New("duplicate category name")

	// ErrNotFound covers entities that do not exist or are outside the
	// caller's scope. Ownership failures map here on purpose: callers
	// never learn whether a foreign ledger exists.
	ErrNotFound = errors.New("not found")
)
