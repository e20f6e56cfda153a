package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/lgudev/gadtrack/internal/models"
)

// HandleProposals handles GET and POST requests for project proposals. The
// GET response carries the server-computed recorded/unrecorded partition the
// entry forms select items from.
func (d *Dependencies) HandleProposals(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		year := r.URL.Query().Get("year")
		if !yearPattern.MatchString(year) {
			WriteError(w, http.StatusBadRequest, "Year must be a 4-digit string")
			return
		}

		proposals, err := d.Database.ListProposals(r.Context(), year)
		if err != nil {
			slog.Error("failed to list proposals", "year", year, "error", err)
			WriteError(w, http.StatusInternalServerError, "Failed to list proposals: "+err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, proposals)
		return
	}

	if r.Method == http.MethodPost {
		var p models.ProjectProposal
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			slog.Warn("invalid proposal request body", "error", err)
			WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if !yearPattern.MatchString(p.Year) {
			WriteError(w, http.StatusBadRequest, "Year must be a 4-digit string")
			return
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}

		seen := make(map[string]bool, len(p.BudgetItems))
		for _, item := range p.BudgetItems {
			if item.Name == "" {
				WriteError(w, http.StatusBadRequest, "Budget item name cannot be empty")
				return
			}
			if seen[item.Name] {
				WriteError(w, http.StatusBadRequest, "Duplicate budget item name: "+item.Name)
				return
			}
			if item.Amount.IsNegative() {
				WriteError(w, http.StatusBadRequest, "Budget item amount cannot be negative")
				return
			}
			seen[item.Name] = true
		}

		if err := d.Database.SaveProposal(r.Context(), p); err != nil {
			slog.Error("failed to save proposal", "proposal_id", p.ID, "error", err)
			WriteError(w, http.StatusInternalServerError, "Failed to save proposal: "+err.Error())
			return
		}

		slog.Info("saved project proposal", "proposal_id", p.ID, "year", p.Year, "items", len(p.BudgetItems))
		WriteJSON(w, http.StatusOK, map[string]string{"status": "success", "id": p.ID})
		return
	}

	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
