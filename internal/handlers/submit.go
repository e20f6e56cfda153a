package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/lgudev/gadtrack/internal/engine"
	"github.com/lgudev/gadtrack/internal/models"
	"github.com/lgudev/gadtrack/internal/services"
	"github.com/shopspring/decimal"
)

// entryForm is the working form state a client submits. Attachment content
// rides as base64 for staged files; persisted files carry only id and URL.
type entryForm struct {
	Year            string              `json:"year"`
	ProjectID       string              `json:"project_id,omitempty"`
	ItemIndex       int                 `json:"item_index,omitempty"`
	Datetime        string              `json:"datetime"`
	Notes           string              `json:"notes"`
	ActualExpense   decimal.Decimal     `json:"actual_expense"`
	ReferenceNumber string              `json:"reference_number"`
	AddedItemNames  []string            `json:"added_item_names"`
	Attachments     []models.Attachment `json:"attachments"`
}

type auditEvent struct {
	EntryID string `json:"entry_id"`
	Year    string `json:"year"`
	Action  string `json:"action"`
}

// HandleCreateEntry validates a new budget entry submission and sequences
// its side effects: entry write first, then attachment uploads. The order is
// a correctness requirement — files are associated by entry id, and a failed
// entry write must not leave orphaned uploads.
func (d *Dependencies) HandleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var form entryForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		slog.Warn("invalid entry request body", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if form.Year == "" {
		WriteError(w, http.StatusBadRequest, "Missing year")
		return
	}

	ledger, err := d.fetchLedger(r, form.Year)
	if err != nil {
		WriteError(w, http.StatusBadGateway, "Failed to fetch ledger: "+err.Error())
		return
	}

	var items *engine.Reconciler
	var projectRef *models.ProjectRef
	if form.ProjectID != "" {
		proposal, err := d.Database.GetProposal(r.Context(), form.Year, form.ProjectID)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				WriteError(w, http.StatusNotFound, "Project proposal not found")
				return
			}
			slog.Error("failed to get proposal", "proposal_id", form.ProjectID, "error", err)
			WriteError(w, http.StatusBadGateway, "Failed to fetch proposal: "+err.Error())
			return
		}

		items = engine.NewReconciler()
		items.SelectProject(*proposal)
		for _, name := range form.AddedItemNames {
			items.AddItem(name)
		}
		projectRef = &models.ProjectRef{ProjectID: form.ProjectID, ItemIndex: form.ItemIndex}
	}

	working := stampStagingIDs(form.Attachments)

	submission, rejections := engine.Assemble(engine.SubmissionInput{
		Mode:               engine.ModeCreate,
		Year:               form.Year,
		Ledger:             ledger,
		Items:              items,
		ProjectRef:         projectRef,
		Datetime:           form.Datetime,
		Notes:              form.Notes,
		ActualExpense:      form.ActualExpense,
		ReferenceNumber:    form.ReferenceNumber,
		PriorExpense:       decimal.Zero,
		WorkingAttachments: working,
	})
	if len(rejections) > 0 {
		slog.Info("entry submission rejected", "year", form.Year, "rejections", len(rejections))
		WriteRejections(w, rejections)
		return
	}

	entry := models.BudgetEntry{
		ID:                       uuid.NewString(),
		Year:                     form.Year,
		Datetime:                 submission.Payload.Datetime,
		Notes:                    form.Notes,
		SelectedItems:            submission.Payload.SelectedItems,
		ProposedBudget:           submission.Payload.ProposedBudget,
		ActualExpense:            submission.Payload.ActualExpense,
		ReferenceNumber:          form.ReferenceNumber,
		RemainingBalanceSnapshot: submission.Payload.RemainingBalanceSnapshot,
		ProjectRef:               submission.Payload.ProjectRef,
		Attachments:              []models.Attachment{},
	}

	if err := d.Database.CreateEntry(r.Context(), entry); err != nil {
		slog.Error("failed to create entry", "entry_id", entry.ID, "error", err)
		WriteError(w, http.StatusBadGateway, "Failed to create entry: "+err.Error())
		return
	}
	slog.Info("created budget entry", "entry_id", entry.ID, "year", entry.Year,
		"actual_expense", entry.ActualExpense.String())

	if err := d.uploadAttachments(r, entry.Year, entry.ID, submission.ToUpload); err != nil {
		WriteError(w, http.StatusBadGateway, "Entry saved but attachment upload failed: "+err.Error())
		return
	}

	if err := d.Database.UpdateLedgerExpenses(r.Context(), entry.Year, entry.ActualExpense); err != nil {
		slog.Error("failed to update ledger expenses", "year", entry.Year, "error", err)
		WriteError(w, http.StatusBadGateway, "Entry saved but ledger update failed: "+err.Error())
		return
	}

	if entry.ProjectRef != nil {
		names := make([]string, 0, len(entry.SelectedItems))
		for _, item := range entry.SelectedItems {
			names = append(names, item.Name)
		}
		if err := d.Database.MarkItemsRecorded(r.Context(), entry.Year, entry.ProjectRef.ProjectID, names); err != nil {
			slog.Error("failed to mark items recorded", "project_id", entry.ProjectRef.ProjectID, "error", err)
			WriteError(w, http.StatusBadGateway, "Entry saved but item freeze failed: "+err.Error())
			return
		}
	}

	d.enqueueAudit(r, entry, "created")

	WriteJSON(w, http.StatusCreated, map[string]any{
		"id":                         entry.ID,
		"remaining_balance_snapshot": entry.RemainingBalanceSnapshot,
		"warnings":                   submission.Warnings,
	})
}

// HandleUpdateEntry validates an edit of an existing entry and sequences
// its side effects: attachment deletions first, then the entry write, then
// new uploads. Deletions are not compensated if the write fails; that
// window is accepted and logged.
func (d *Dependencies) HandleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var form entryForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		slog.Warn("invalid entry request body", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if form.Year == "" {
		WriteError(w, http.StatusBadRequest, "Missing year")
		return
	}

	existing, err := d.Database.GetEntry(r.Context(), form.Year, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Entry not found")
			return
		}
		slog.Error("failed to get entry", "entry_id", id, "error", err)
		WriteError(w, http.StatusBadGateway, "Failed to fetch entry: "+err.Error())
		return
	}

	ledger, err := d.fetchLedger(r, form.Year)
	if err != nil {
		WriteError(w, http.StatusBadGateway, "Failed to fetch ledger: "+err.Error())
		return
	}

	working := stampStagingIDs(form.Attachments)

	// The item set is frozen once spent against, so edits reconcile nothing;
	// the prior expense keeps the balance check from counting this entry's
	// previous draw-down twice.
	submission, rejections := engine.Assemble(engine.SubmissionInput{
		Mode:                engine.ModeEdit,
		Year:                form.Year,
		Ledger:              ledger,
		ProjectRef:          existing.ProjectRef,
		Datetime:            form.Datetime,
		Notes:               form.Notes,
		ActualExpense:       form.ActualExpense,
		ReferenceNumber:     form.ReferenceNumber,
		PriorExpense:        existing.ActualExpense,
		OriginalAttachments: existing.Attachments,
		WorkingAttachments:  working,
	})
	if len(rejections) > 0 {
		slog.Info("entry update rejected", "entry_id", id, "rejections", len(rejections))
		WriteRejections(w, rejections)
		return
	}

	for _, fileID := range submission.ToDelete {
		if err := d.Blob.DeleteFile(r.Context(), attachmentContainer(), attachmentBlobName(id, fileID)); err != nil {
			slog.Error("failed to delete attachment blob", "entry_id", id, "file_id", fileID, "error", err)
			WriteError(w, http.StatusBadGateway, "Failed to delete attachment: "+err.Error())
			return
		}
		if err := d.Database.RemoveEntryAttachment(r.Context(), form.Year, id, fileID); err != nil {
			slog.Error("failed to remove attachment metadata", "entry_id", id, "file_id", fileID, "error", err)
			WriteError(w, http.StatusBadGateway, "Failed to remove attachment: "+err.Error())
			return
		}
	}

	updated := *existing
	updated.Datetime = submission.Payload.Datetime
	updated.Notes = form.Notes
	updated.ActualExpense = submission.Payload.ActualExpense
	updated.ReferenceNumber = form.ReferenceNumber
	updated.RemainingBalanceSnapshot = submission.Payload.RemainingBalanceSnapshot

	if err := d.Database.UpdateEntry(r.Context(), updated); err != nil {
		slog.Error("failed to update entry", "entry_id", id, "deleted_files", len(submission.ToDelete), "error", err)
		WriteError(w, http.StatusBadGateway, "Failed to update entry: "+err.Error())
		return
	}
	slog.Info("updated budget entry", "entry_id", id, "year", form.Year)

	if err := d.uploadAttachments(r, form.Year, id, submission.ToUpload); err != nil {
		WriteError(w, http.StatusBadGateway, "Entry updated but attachment upload failed: "+err.Error())
		return
	}

	delta := form.ActualExpense.Sub(existing.ActualExpense)
	if !delta.IsZero() {
		if err := d.Database.UpdateLedgerExpenses(r.Context(), form.Year, delta); err != nil {
			slog.Error("failed to update ledger expenses", "year", form.Year, "delta", delta.String(), "error", err)
			WriteError(w, http.StatusBadGateway, "Entry updated but ledger update failed: "+err.Error())
			return
		}
	}

	d.enqueueAudit(r, updated, "updated")

	WriteJSON(w, http.StatusOK, map[string]any{
		"id":                         id,
		"remaining_balance_snapshot": updated.RemainingBalanceSnapshot,
		"warnings":                   submission.Warnings,
	})
}

// fetchLedger returns nil without error when the year has no ledger; the
// engine reports NoBudgetForYear from the nil value.
func (d *Dependencies) fetchLedger(r *http.Request, year string) (*models.YearLedger, error) {
	ledger, err := d.Database.GetYearLedger(r.Context(), year)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, nil
		}
		slog.Error("failed to get ledger", "year", year, "error", err)
		return nil, err
	}
	return ledger, nil
}

// uploadAttachments pushes staged bytes to blob storage and persists the
// resulting metadata. Runs strictly after the entry write.
func (d *Dependencies) uploadAttachments(r *http.Request, year, entryID string, toUpload []models.Attachment) error {
	for _, att := range toUpload {
		blobName := attachmentBlobName(entryID, att.ID)
		url, err := d.Blob.UploadFile(r.Context(), attachmentContainer(), blobName, att.Content, att.MimeType)
		if err != nil {
			slog.Error("failed to upload attachment", "entry_id", entryID, "file_id", att.ID, "error", err)
			return err
		}

		att.RemoteURL = url
		if err := d.Database.AddEntryAttachment(r.Context(), year, entryID, att); err != nil {
			slog.Error("failed to save attachment metadata", "entry_id", entryID, "file_id", att.ID, "error", err)
			return err
		}
	}
	return nil
}

// enqueueAudit posts the audit event for the queue processor. The entry is
// already committed, so a queue failure is logged rather than surfaced.
func (d *Dependencies) enqueueAudit(r *http.Request, entry models.BudgetEntry, action string) {
	event := auditEvent{EntryID: entry.ID, Year: entry.Year, Action: action}
	if err := d.Queue.EnqueueMessage(r.Context(), auditQueue(), event); err != nil {
		slog.Error("failed to enqueue audit event", "entry_id", entry.ID, "action", action, "error", err)
	}
}

// stampStagingIDs assigns a local id to staged attachments that arrived
// without one, so the diff and the blob path have a stable key.
func stampStagingIDs(attachments []models.Attachment) []models.Attachment {
	out := make([]models.Attachment, len(attachments))
	copy(out, attachments)
	for i := range out {
		if out[i].ID == "" && out[i].IsStaged() {
			out[i].ID = "local-" + uuid.NewString()
		}
	}
	return out
}
