package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/lgudev/gadtrack/internal/engine"
)

// Dependencies holds the services required by the handlers.
type Dependencies struct {
	Database DatabaseClient
	Blob     BlobClient
	Queue    QueueClient
	Email    EmailClient
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WriteRejections writes the structured validation result for a submission
// the engine refused. 422 keeps these distinct from malformed requests.
func WriteRejections(w http.ResponseWriter, rejections []engine.Rejection) {
	WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{"rejections": rejections})
}

// attachmentContainer returns the blob container holding entry attachments.
func attachmentContainer() string {
	if c := os.Getenv("ATTACHMENT_CONTAINER"); c != "" {
		return c
	}
	return "gad-attachments"
}

// auditQueue returns the queue name for submission audit events.
func auditQueue() string {
	if q := os.Getenv("AUDIT_QUEUE"); q != "" {
		return q
	}
	return "entry-audit"
}

// attachmentBlobName returns the blob path for one entry attachment.
func attachmentBlobName(entryID, fileID string) string {
	return fmt.Sprintf("entries/%s/%s", entryID, fileID)
}
