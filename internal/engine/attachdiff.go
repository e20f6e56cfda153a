package engine

import (
	"fmt"
	"log/slog"

	"github.com/lgudev/gadtrack/internal/models"
)

// AttachmentDiff is the add/remove set between an entry's persisted files
// and its in-session working files. The storage protocol has no replace
// operation, only additive upload and explicit deletion, so unchanged
// attachments never appear in either list.
type AttachmentDiff struct {
	ToUpload []models.Attachment
	ToDelete []string // persisted attachment ids removed by the user
	// Warnings holds non-fatal integrity notices for staged attachments that
	// were skipped because their bytes were not retrievable.
	Warnings []string
}

// BuildAttachmentDiff compares the attachment set captured at session start
// against the working set at submit time. Uploads are best-effort relative
// to the entry write: a staged attachment without content is excluded and
// logged rather than failing the submission.
func BuildAttachmentDiff(original, working []models.Attachment) AttachmentDiff {
	workingIDs := make(map[string]bool, len(working))
	for _, a := range working {
		workingIDs[a.ID] = true
	}

	diff := AttachmentDiff{ToUpload: []models.Attachment{}, ToDelete: []string{}}

	for _, a := range original {
		if !workingIDs[a.ID] {
			diff.ToDelete = append(diff.ToDelete, a.ID)
		}
	}

	for _, a := range working {
		if !a.IsStaged() {
			continue
		}
		if !a.HasContent() {
			slog.Warn("staged attachment has no retrievable content, skipping upload",
				"attachment_id", a.ID, "name", a.Name)
			diff.Warnings = append(diff.Warnings,
				fmt.Sprintf("attachment %q had no retrievable content and was not uploaded", a.Name))
			continue
		}
		diff.ToUpload = append(diff.ToUpload, a)
	}

	return diff
}
