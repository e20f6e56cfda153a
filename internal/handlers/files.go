package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/lgudev/gadtrack/internal/services"
)

// HandleDownloadFile handles GET /api/entries/{id}/files/{fileID}, serving
// attachment bytes from blob storage.
func (d *Dependencies) HandleDownloadFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	fileID := r.PathValue("fileID")
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

	contentType := "application/octet-stream"
	found := false
	for _, att := range entry.Attachments {
		if att.ID == fileID {
			found = true
			if att.MimeType != "" {
				contentType = att.MimeType
			}
			break
		}
	}
	if !found {
		WriteError(w, http.StatusNotFound, "Attachment not found")
		return
	}

	data, err := d.Blob.DownloadFile(r.Context(), attachmentContainer(), attachmentBlobName(id, fileID))
	if err != nil {
		slog.Error("failed to download attachment", "entry_id", id, "file_id", fileID, "error", err)
		WriteError(w, http.StatusBadGateway, "Failed to download attachment: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write attachment response", "entry_id", id, "file_id", fileID, "error", err)
	}
}
