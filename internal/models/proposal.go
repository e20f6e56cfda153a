package models

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// BudgetItem is a single line of an approved project proposal. Pax is a
// head-count token kept as the string the proposal was captured with;
// unparsable values count as 1.
type BudgetItem struct {
	Name   string          `json:"name"` // unique within a proposal
	Pax    string          `json:"pax"`
	Amount decimal.Decimal `json:"amount"` // per-unit
}

// PaxCount parses the pax token as a multiplier, never below 1.
func (b BudgetItem) PaxCount() int {
	n, err := strconv.Atoi(strings.TrimSpace(b.Pax))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// LineTotal is amount multiplied by the pax count.
func (b BudgetItem) LineTotal() decimal.Decimal {
	return b.Amount.Mul(decimal.NewFromInt(int64(b.PaxCount())))
}

// ProjectProposal is an approved budget-item source for a year. The
// recorded/unrecorded partition is computed server-side: a name in
// RecordedItemNames has already been spent against by a previous entry.
type ProjectProposal struct {
	ID                string       `json:"id"` // RowKey
	Year              string       `json:"year"`
	Title             string       `json:"title"`
	BudgetItems       []BudgetItem `json:"budget_items"`
	RecordedItemNames []string     `json:"recorded_item_names"`
	UnrecordedItems   []BudgetItem `json:"unrecorded_items"` // Calculated
}

// PopulateUnrecordedItems fills UnrecordedItems with every budget item whose
// name is not in RecordedItemNames, preserving catalog order.
func (p *ProjectProposal) PopulateUnrecordedItems() {
	recorded := make(map[string]bool, len(p.RecordedItemNames))
	for _, name := range p.RecordedItemNames {
		recorded[name] = true
	}

	p.UnrecordedItems = []BudgetItem{}
	for _, item := range p.BudgetItems {
		if !recorded[item.Name] {
			p.UnrecordedItems = append(p.UnrecordedItems, item)
		}
	}
}
