package services

import (
	"fmt"
	"strings"

	"github.com/lgudev/gadtrack/internal/models"
)

// RenderReceiptBody renders the HTML body for a submission receipt.
func RenderReceiptBody(entry models.BudgetEntry, action string) string {
	var items strings.Builder
	for _, item := range entry.SelectedItems {
		items.WriteString(fmt.Sprintf("<li>%s (pax %s) — ₱%s</li>", item.Name, item.Pax, item.Amount.StringFixed(2)))
	}
	if items.Len() == 0 {
		items.WriteString("<li>No budget items</li>")
	}

	return fmt.Sprintf(`
		<html>
		<body style="font-family: 'Segoe UI', sans-serif; color: #333; line-height: 1.6; background-color: #f4f4f4; margin: 0; padding: 20px;">
			<div style="max-width: 600px; margin: 0 auto; background: white; border-radius: 8px; overflow: hidden; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
				<div style="background-color: #0f6cbd; padding: 20px; text-align: center; color: white;">
					<h2 style="margin: 0;">Budget Entry %s</h2>
				</div>
				<div style="padding: 20px;">
					<p>Entry <b>%s</b> for budget year <b>%s</b>.</p>
					<ul style="padding-left: 20px;">%s</ul>
					<p>Actual expense: <b>₱%s</b></p>
					<p>Remaining balance after this entry: <b>₱%s</b></p>
				</div>
			</div>
		</body>
		</html>
	`, action, entry.ID, entry.Year, items.String(),
		entry.ActualExpense.StringFixed(2),
		entry.RemainingBalanceSnapshot.StringFixed(2))
}

// RenderLowBalanceSection renders one ledger line of the nightly digest.
func RenderLowBalanceSection(ledger models.YearLedger) string {
	remaining := ledger.CalculateRemainingBalance()
	color := "#ca5010"
	if remaining.IsNegative() {
		color = "#d13438"
	}
	return fmt.Sprintf(`
		<div style="background-color: #fff4f4; border-left: 5px solid %s; padding: 15px; margin-bottom: 20px;">
			<h3 style="color: %s; margin-top: 0; font-size: 18px;">Budget year %s</h3>
			<p style="margin-bottom: 0;">Allocated ₱%s, spent ₱%s — remaining <b>₱%s</b></p>
		</div>
	`, color, color, ledger.Year,
		ledger.AllocatedBudget.StringFixed(2),
		ledger.CumulativeExpenses.StringFixed(2),
		remaining.StringFixed(2))
}

// RenderLowBalanceBody renders the full HTML body for the nightly
// low-balance digest.
func RenderLowBalanceBody(ledgers []models.YearLedger) string {
	var sections strings.Builder
	for _, ledger := range ledgers {
		sections.WriteString(RenderLowBalanceSection(ledger))
	}

	return fmt.Sprintf(`
		<html>
		<body style="font-family: 'Segoe UI', sans-serif; color: #333; line-height: 1.6; background-color: #f4f4f4; margin: 0; padding: 20px;">
			<div style="max-width: 600px; margin: 0 auto; background: white; border-radius: 8px; overflow: hidden; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
				<div style="background-color: #d13438; padding: 20px; text-align: center; color: white;">
					<h2 style="margin: 0;">⚠️ Budget Balance Warning</h2>
				</div>
				<div style="padding: 20px;">
					<p>The following budget years are at or below the configured balance threshold:</p>
					%s
				</div>
			</div>
		</body>
		</html>
	`, sections.String())
}
