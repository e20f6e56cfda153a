package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lgudev/gadtrack/internal/models"
	"github.com/lgudev/gadtrack/internal/services"
)

// invokeRequest represents the payload from the Azure Functions custom
// handler host for non-HTTP triggers.
type invokeRequest struct {
	Data     map[string]any `json:"Data"`
	Metadata map[string]any `json:"Metadata"`
}

// ProcessQueue consumes a submission audit event: it writes the audit trail
// row and emails a receipt. Runs after the entry itself is committed, so
// failures here never undo a submission.
func (d *Dependencies) ProcessQueue(w http.ResponseWriter, r *http.Request) {
	var invokeReq invokeRequest
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Error("failed to read queue request body", "error", err)
		WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	if err := json.Unmarshal(bodyBytes, &invokeReq); err != nil {
		slog.Error("failed to unmarshal queue request", "error", err)
		WriteError(w, http.StatusBadRequest, "Failed to unmarshal request")
		return
	}

	queueItemVal, ok := invokeReq.Data["queueItem"]
	if !ok {
		queueItemVal, ok = invokeReq.Data["queueitem"]
		if !ok {
			WriteError(w, http.StatusBadRequest, "Missing queueItem in Data")
			return
		}
	}

	queueItemStr, ok := queueItemVal.(string)
	if !ok {
		WriteError(w, http.StatusBadRequest, "queueItem is not a string")
		return
	}

	var event auditEvent
	if err := json.Unmarshal([]byte(queueItemStr), &event); err != nil {
		slog.Error("failed to unmarshal audit event", "error", err)
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid queueItem JSON: %v", err))
		return
	}
	if event.EntryID == "" || event.Year == "" {
		slog.Warn("audit event missing entry reference", "event", event)
		WriteError(w, http.StatusBadRequest, "Missing entry_id or year")
		return
	}

	slog.Info("processing audit event", "entry_id", event.EntryID, "year", event.Year, "action", event.Action)

	var entry *models.BudgetEntry
	if event.Action != "deleted" {
		entry, err = d.Database.GetEntry(r.Context(), event.Year, event.EntryID)
		if err != nil && !errors.Is(err, services.ErrNotFound) {
			slog.Error("failed to load entry for audit", "entry_id", event.EntryID, "error", err)
			WriteError(w, http.StatusInternalServerError, "Failed to load entry: "+err.Error())
			return
		}
	}
	if entry == nil {
		// Deleted (or already gone): audit with what the event carries.
		entry = &models.BudgetEntry{ID: event.EntryID, Year: event.Year}
	}

	remaining := entry.RemainingBalanceSnapshot
	if ledger, err := d.Database.GetYearLedger(r.Context(), event.Year); err == nil {
		remaining = ledger.CalculateRemainingBalance()
	}

	rec := models.AuditRecord{
		ID:               uuid.NewString(),
		Year:             event.Year,
		EntryID:          event.EntryID,
		Action:           event.Action,
		ActualExpense:    entry.ActualExpense,
		RemainingBalance: remaining,
		RecordedAt:       time.Now().UTC().Format(time.RFC3339),
	}
	if err := d.Database.SaveAuditRecord(r.Context(), rec); err != nil {
		slog.Error("failed to save audit record", "entry_id", event.EntryID, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to save audit record: "+err.Error())
		return
	}

	reportEmail := os.Getenv("REPORT_EMAIL")
	if reportEmail != "" && d.Email != nil && event.Action != "deleted" {
		subject := fmt.Sprintf("GAD Budget Entry %s — %s", event.Action, event.Year)
		body := services.RenderReceiptBody(*entry, event.Action)
		if err := d.Email.SendEmail(r.Context(), []string{reportEmail}, subject, body); err != nil {
			// Receipt only; the audit row is already written.
			slog.Error("failed to send receipt email", "entry_id", event.EntryID, "error", err)
		}
	}

	slog.Info("audit event processed", "entry_id", event.EntryID, "action", event.Action)
	w.WriteHeader(http.StatusOK)
}
