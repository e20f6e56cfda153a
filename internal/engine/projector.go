package engine

import (
	"fmt"
	"time"

	"github.com/lgudev/gadtrack/internal/models"
	"github.com/shopspring/decimal"
)

// RemainingBalance returns the year's remaining balance from the freshest
// fetched ledger. A missing ledger projects to zero; the caller surfaces
// NoBudgetForYear separately.
func RemainingBalance(ledger *models.YearLedger) decimal.Decimal {
	if ledger == nil {
		return decimal.Zero
	}
	return ledger.CalculateRemainingBalance()
}

// ProjectedRemaining is the balance the ledger would show after this
// submission. The prior expense is the amount this entry already holds on
// the ledger (zero on create); adding it back first keeps an edit from
// double-counting its own previous draw-down.
func ProjectedRemaining(ledger *models.YearLedger, actual, prior decimal.Decimal) decimal.Decimal {
	return RemainingBalance(ledger).Add(prior).Sub(actual)
}

// ValidateExpense runs the balance checks for a submission. The returned
// rejections are empty when the expense is acceptable.
func ValidateExpense(ledger *models.YearLedger, actual, prior decimal.Decimal) []Rejection {
	var rejections []Rejection

	if ledger == nil {
		rejections = append(rejections, reject(NoBudgetForYear, "year",
			"no budget ledger exists for the selected year"))
	}

	if actual.IsNegative() {
		rejections = append(rejections, reject(NegativeExpense, "actual_expense",
			"actual expense cannot be negative"))
		return rejections
	}

	effective := RemainingBalance(ledger).Add(prior)
	if actual.GreaterThan(effective) {
		r := reject(ExpenseExceedsBalance, "actual_expense",
			fmt.Sprintf("actual expense %s exceeds remaining balance %s",
				actual.StringFixed(2), effective.StringFixed(2)))
		r.RemainingBalance = &effective
		rejections = append(rejections, r)
	}

	return rejections
}

// ValidateEntryDate checks that the entry datetime falls within the target
// budget year. The datetime is RFC 3339; a plain date is accepted too.
func ValidateEntryDate(datetime, year string) []Rejection {
	t, err := time.Parse(time.RFC3339, datetime)
	if err != nil {
		t, err = time.Parse("2006-01-02", datetime)
	}
	if err != nil {
		return []Rejection{reject(DateOutsideTargetYear, "datetime",
			fmt.Sprintf("invalid entry datetime: %s", datetime))}
	}

	if fmt.Sprintf("%04d", t.Year()) != year {
		return []Rejection{reject(DateOutsideTargetYear, "datetime",
			fmt.Sprintf("entry date %s is outside budget year %s", datetime, year))}
	}
	return nil
}
