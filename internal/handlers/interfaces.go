package handlers

import (
	"context"

	"github.com/lgudev/gadtrack/internal/models"
	"github.com/shopspring/decimal"
)

// DatabaseClient defines the interface for database operations used by handlers.
type DatabaseClient interface {
	GetYearLedger(ctx context.Context, year string) (*models.YearLedger, error)
	ListYearLedgers(ctx context.Context) ([]models.YearLedger, error)
	SaveYearLedger(ctx context.Context, ledger models.YearLedger) error
	UpdateLedgerExpenses(ctx context.Context, year string, delta decimal.Decimal) error

	ListProposals(ctx context.Context, year string) ([]models.ProjectProposal, error)
	GetProposal(ctx context.Context, year, id string) (*models.ProjectProposal, error)
	SaveProposal(ctx context.Context, p models.ProjectProposal) error
	MarkItemsRecorded(ctx context.Context, year, projectID string, names []string) error

	ListEntries(ctx context.Context, year string, includeArchived bool) ([]models.BudgetEntry, error)
	GetEntry(ctx context.Context, year, id string) (*models.BudgetEntry, error)
	CreateEntry(ctx context.Context, e models.BudgetEntry) error
	UpdateEntry(ctx context.Context, e models.BudgetEntry) error
	SetEntryArchived(ctx context.Context, year, id string, archived bool) error
	DeleteEntry(ctx context.Context, year, id string) error
	AddEntryAttachment(ctx context.Context, year, entryID string, att models.Attachment) error
	RemoveEntryAttachment(ctx context.Context, year, entryID, fileID string) error

	SaveAuditRecord(ctx context.Context, rec models.AuditRecord) error
}

// BlobClient defines the interface for blob storage operations used by handlers.
type BlobClient interface {
	UploadFile(ctx context.Context, containerName, blobName string, content []byte, contentType string) (string, error)
	DownloadFile(ctx context.Context, containerName, blobName string) ([]byte, error)
	DeleteFile(ctx context.Context, containerName, blobName string) error
}

// QueueClient defines the interface for queue operations used by handlers.
type QueueClient interface {
	EnqueueMessage(ctx context.Context, queueName string, message any) error
}

// EmailClient defines the interface for email operations used by handlers.
type EmailClient interface {
	SendEmail(ctx context.Context, to []string, subject, body string) error
}
