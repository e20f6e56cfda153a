package models

import (
	"github.com/shopspring/decimal"
)

// YearLedger is the per-year aggregate of allocated budget and cumulative
// expenses. One ledger exists per calendar year; it is created
// administratively and maintained by the entry write path.
type YearLedger struct {
	Year               string          `json:"year"` // 4-digit year string, RowKey
	AllocatedBudget    decimal.Decimal `json:"allocated_budget"`
	CumulativeExpenses decimal.Decimal `json:"cumulative_expenses"`
	RemainingBalance   float64         `json:"remaining_balance"` // Calculated
}

// CalculateRemainingBalance returns allocated minus cumulative. Persisted
// data may be over-budget, so the result can be negative.
func (l *YearLedger) CalculateRemainingBalance() decimal.Decimal {
	return l.AllocatedBudget.Sub(l.CumulativeExpenses)
}

// PopulateCalculatedFields populates the float64 fields for JSON output.
func (l *YearLedger) PopulateCalculatedFields() {
	l.RemainingBalance = l.CalculateRemainingBalance().InexactFloat64()
}
