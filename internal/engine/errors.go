package engine

import (
	"github.com/shopspring/decimal"
)

// RejectionKind classifies a local validation failure. Every kind is raised
// before any network call; the calling form maps kinds to fields.
type RejectionKind string

const (
	// NoValidBudgetItems means the selected project has no usable items.
	NoValidBudgetItems RejectionKind = "NO_VALID_BUDGET_ITEMS"
	// NoNewBudgetItems means the submission restates only already-recorded
	// items and carries no new financial commitment.
	NoNewBudgetItems RejectionKind = "NO_NEW_BUDGET_ITEMS"
	// ExpenseExceedsBalance means the actual expense is over the year's
	// remaining balance.
	ExpenseExceedsBalance RejectionKind = "EXPENSE_EXCEEDS_BALANCE"
	// NegativeExpense means the actual expense is below zero.
	NegativeExpense RejectionKind = "NEGATIVE_EXPENSE"
	// DateOutsideTargetYear means the entry datetime does not fall within
	// the selected budget year.
	DateOutsideTargetYear RejectionKind = "DATE_OUTSIDE_TARGET_YEAR"
	// NoBudgetForYear means no ledger exists for the selected year.
	NoBudgetForYear RejectionKind = "NO_BUDGET_FOR_YEAR"
)

// Rejection is a structured validation failure. Rejections are returned as
// values, never panicked, so callers can attach each to a form field.
type Rejection struct {
	Kind    RejectionKind `json:"kind"`
	Field   string        `json:"field,omitempty"`
	Message string        `json:"message"`
	// RemainingBalance carries the balance the expense was compared against,
	// set only for ExpenseExceedsBalance.
	RemainingBalance *decimal.Decimal `json:"remaining_balance,omitempty"`
}

func reject(kind RejectionKind, field, message string) Rejection {
	return Rejection{Kind: kind, Field: field, Message: message}
}
