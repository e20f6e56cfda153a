package models

// Attachment is a file tied to a budget entry. It is either persisted
// (RemoteURL set, no Content) or staged (Content set, no RemoteURL), never
// both. Staged attachments carry a locally generated id until uploaded.
type Attachment struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MimeType  string `json:"mime_type"`
	Content   []byte `json:"content,omitempty"`
	RemoteURL string `json:"remote_url,omitempty"`
}

// IsStaged reports whether the attachment has not been uploaded yet.
func (a Attachment) IsStaged() bool {
	return a.RemoteURL == ""
}

// HasContent reports whether staged bytes are actually retrievable. A picker
// can hand back a reference without data; such attachments are skipped at
// upload time.
func (a Attachment) HasContent() bool {
	return len(a.Content) > 0
}
