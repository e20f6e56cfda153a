package handlers

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/lgudev/gadtrack/internal/models"
	"github.com/lgudev/gadtrack/internal/services"
	"github.com/shopspring/decimal"
)

// HandleNightlyTrigger emails a digest of every budget year whose remaining
// balance is at or below the configured threshold.
func (d *Dependencies) HandleNightlyTrigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slog.Info("starting nightly balance check")

	reportEmail := os.Getenv("REPORT_EMAIL")
	if reportEmail == "" {
		slog.Warn("REPORT_EMAIL environment variable is not set; skipping balance digest")
		w.WriteHeader(http.StatusOK)
		return
	}
	if d.Email == nil {
		slog.Warn("email service is not configured; skipping balance digest")
		w.WriteHeader(http.StatusOK)
		return
	}

	threshold := decimal.Zero
	if raw := os.Getenv("LOW_BALANCE_THRESHOLD"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			slog.Warn("invalid LOW_BALANCE_THRESHOLD, using zero", "value", raw, "error", err)
		} else {
			threshold = parsed
		}
	}

	ledgers, err := d.Database.ListYearLedgers(ctx)
	if err != nil {
		slog.Error("failed to list ledgers for balance check", "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to list ledgers: "+err.Error())
		return
	}

	var low []models.YearLedger
	for _, ledger := range ledgers {
		remaining := ledger.CalculateRemainingBalance()
		if remaining.LessThanOrEqual(threshold) {
			slog.Info("ledger below balance threshold",
				"year", ledger.Year,
				"remaining", remaining.StringFixed(2),
				"threshold", threshold.StringFixed(2))
			low = append(low, ledger)
		}
	}

	if len(low) == 0 {
		slog.Info("nightly balance check complete, all ledgers above threshold", "ledgers", len(ledgers))
		w.WriteHeader(http.StatusOK)
		return
	}

	subject := "GAD Budget Tracker — Low Balance Warning"
	body := services.RenderLowBalanceBody(low)
	if err := d.Email.SendEmail(ctx, []string{reportEmail}, subject, body); err != nil {
		slog.Error("failed to send balance digest", "email", reportEmail, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to send digest: "+err.Error())
		return
	}

	slog.Info("nightly balance digest sent", "email", reportEmail, "low_ledgers", len(low))
	w.WriteHeader(http.StatusOK)
}
