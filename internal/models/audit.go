package models

import (
	"github.com/shopspring/decimal"
)

// AuditRecord is one row of the submission audit trail, written by the
// queue-triggered processor after an entry create, update or delete.
type AuditRecord struct {
	ID               string          `json:"id"` // RowKey
	Year             string          `json:"year"`
	EntryID          string          `json:"entry_id"`
	Action           string          `json:"action"` // created | updated | deleted
	ActualExpense    decimal.Decimal `json:"actual_expense"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	RecordedAt       string          `json:"recorded_at"` // RFC 3339
}
