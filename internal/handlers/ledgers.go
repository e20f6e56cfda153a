package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/lgudev/gadtrack/internal/models"
	"github.com/lgudev/gadtrack/internal/services"
)

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// HandleLedgers handles GET and POST requests for year ledgers.
func (d *Dependencies) HandleLedgers(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		year := r.URL.Query().Get("year")
		if year == "" {
			ledgers, err := d.Database.ListYearLedgers(r.Context())
			if err != nil {
				slog.Error("failed to list ledgers", "error", err)
				WriteError(w, http.StatusInternalServerError, "Failed to list ledgers: "+err.Error())
				return
			}
			for i := range ledgers {
				ledgers[i].PopulateCalculatedFields()
			}
			WriteJSON(w, http.StatusOK, ledgers)
			return
		}

		ledger, err := d.Database.GetYearLedger(r.Context(), year)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				WriteError(w, http.StatusNotFound, "No budget ledger for year "+year)
				return
			}
			slog.Error("failed to get ledger", "year", year, "error", err)
			WriteError(w, http.StatusInternalServerError, "Failed to get ledger: "+err.Error())
			return
		}
		ledger.PopulateCalculatedFields()
		WriteJSON(w, http.StatusOK, ledger)
		return
	}

	if r.Method == http.MethodPost {
		var ledger models.YearLedger
		if err := json.NewDecoder(r.Body).Decode(&ledger); err != nil {
			slog.Warn("invalid ledger request body", "error", err)
			WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if !yearPattern.MatchString(ledger.Year) {
			WriteError(w, http.StatusBadRequest, "Year must be a 4-digit string")
			return
		}
		if ledger.AllocatedBudget.IsNegative() || ledger.CumulativeExpenses.IsNegative() {
			WriteError(w, http.StatusBadRequest, "Budget amounts cannot be negative")
			return
		}

		if err := d.Database.SaveYearLedger(r.Context(), ledger); err != nil {
			slog.Error("failed to save ledger", "year", ledger.Year, "error", err)
			WriteError(w, http.StatusInternalServerError, "Failed to save ledger: "+err.Error())
			return
		}

		slog.Info("saved year ledger", "year", ledger.Year, "allocated", ledger.AllocatedBudget.String())
		WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
		return
	}

	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
