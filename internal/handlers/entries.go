package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/lgudev/gadtrack/internal/services"
)

// HandleListEntries handles GET /api/entries. Archived entries are hidden
// unless the archived query parameter is set.
func (d *Dependencies) HandleListEntries(w http.ResponseWriter, r *http.Request) {
	year := r.URL.Query().Get("year")
	if !yearPattern.MatchString(year) {
		WriteError(w, http.StatusBadRequest, "Year must be a 4-digit string")
		return
	}
	includeArchived := r.URL.Query().Get("archived") == "true"

	entries, err := d.Database.ListEntries(r.Context(), year, includeArchived)
	if err != nil {
		slog.Error("failed to list entries", "year", year, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to list entries: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, entries)
}

// HandleGetEntry handles GET /api/entries/{id}, used to seed an edit
// session. The returned attachment set is the session's original snapshot.
func (d *Dependencies) HandleGetEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	year := r.URL.Query().Get("year")
	if year == "" {
		WriteError(w, http.StatusBadRequest, "Missing year query parameter")
		return
	}

	entry, err := d.Database.GetEntry(r.Context(), year, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Entry not found")
			return
		}
		slog.Error("failed to get entry", "entry_id", id, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to get entry: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, entry)
}

// HandleArchiveEntry handles POST /api/entries/{id}/archive.
func (d *Dependencies) HandleArchiveEntry(w http.ResponseWriter, r *http.Request) {
	d.setArchived(w, r, true)
}

// HandleRestoreEntry handles POST /api/entries/{id}/restore.
func (d *Dependencies) HandleRestoreEntry(w http.ResponseWriter, r *http.Request) {
	d.setArchived(w, r, false)
}

func (d *Dependencies) setArchived(w http.ResponseWriter, r *http.Request, archived bool) {
	id := r.PathValue("id")
	year := r.URL.Query().Get("year")
	if year == "" {
		WriteError(w, http.StatusBadRequest, "Missing year query parameter")
		return
	}

	if err := d.Database.SetEntryArchived(r.Context(), year, id, archived); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Entry not found")
			return
		}
		slog.Error("failed to change archived flag", "entry_id", id, "archived", archived, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to update entry: "+err.Error())
		return
	}

	slog.Info("changed entry archived flag", "entry_id", id, "archived", archived)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// HandleDeleteEntry handles DELETE /api/entries/{id}. Deleting an entry
// releases its expense back to the year ledger and removes its blobs.
func (d *Dependencies) HandleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	year := r.URL.Query().Get("year")
	if year == "" {
		WriteError(w, http.StatusBadRequest, "Missing year query parameter")
		return
	}

	entry, err := d.Database.GetEntry(r.Context(), year, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Entry not found")
			return
		}
		slog.Error("failed to get entry", "entry_id", id, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to get entry: "+err.Error())
		return
	}

	for _, att := range entry.Attachments {
		if err := d.Blob.DeleteFile(r.Context(), attachmentContainer(), attachmentBlobName(id, att.ID)); err != nil {
			// The entry row still wins; stray blobs are logged, not fatal.
			slog.Error("failed to delete attachment blob", "entry_id", id, "file_id", att.ID, "error", err)
		}
	}

	if err := d.Database.DeleteEntry(r.Context(), year, id); err != nil {
		slog.Error("failed to delete entry", "entry_id", id, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to delete entry: "+err.Error())
		return
	}

	if err := d.Database.UpdateLedgerExpenses(r.Context(), year, entry.ActualExpense.Neg()); err != nil {
		slog.Error("failed to release ledger expenses", "year", year, "entry_id", id, "error", err)
		WriteError(w, http.StatusBadGateway, "Entry deleted but ledger update failed: "+err.Error())
		return
	}

	d.enqueueAudit(r, *entry, "deleted")

	slog.Info("deleted budget entry", "entry_id", id, "year", year,
		"released_expense", entry.ActualExpense.String())
	WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
