package models

import (
	"github.com/shopspring/decimal"
)

// ProjectRef links an entry back to the proposal its items came from.
type ProjectRef struct {
	ProjectID string `json:"project_id"`
	ItemIndex int    `json:"item_index"`
}

// BudgetEntry is one expense event against a year ledger and, optionally, a
// project proposal. SelectedItems is the union of items recorded by earlier
// entries for the same project and the items newly added in this entry;
// once spent against, an item is frozen and later edits cannot remove it.
type BudgetEntry struct {
	ID                       string          `json:"id"` // RowKey
	Year                     string          `json:"year"`
	Datetime                 string          `json:"datetime"` // RFC 3339, within Year
	Notes                    string          `json:"notes,omitempty"`
	SelectedItems            []BudgetItem    `json:"selected_items"`
	ProposedBudget           decimal.Decimal `json:"proposed_budget"`
	ActualExpense            decimal.Decimal `json:"actual_expense"`
	ReferenceNumber          string          `json:"reference_number,omitempty"`
	RemainingBalanceSnapshot decimal.Decimal `json:"remaining_balance_snapshot"`
	IsArchived               bool            `json:"is_archived"`
	ProjectRef               *ProjectRef     `json:"project_ref,omitempty"`
	Attachments              []Attachment    `json:"attachments"`
}
