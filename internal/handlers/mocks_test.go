package handlers

import (
	"context"

	"github.com/lgudev/gadtrack/internal/models"
	"github.com/lgudev/gadtrack/internal/services"
	"github.com/shopspring/decimal"
)

// MockDatabaseClient is a mock implementation of DatabaseClient
type MockDatabaseClient struct {
	GetYearLedgerFunc         func(ctx context.Context, year string) (*models.YearLedger, error)
	ListYearLedgersFunc       func(ctx context.Context) ([]models.YearLedger, error)
	SaveYearLedgerFunc        func(ctx context.Context, ledger models.YearLedger) error
	UpdateLedgerExpensesFunc  func(ctx context.Context, year string, delta decimal.Decimal) error
	ListProposalsFunc         func(ctx context.Context, year string) ([]models.ProjectProposal, error)
	GetProposalFunc           func(ctx context.Context, year, id string) (*models.ProjectProposal, error)
	SaveProposalFunc          func(ctx context.Context, p models.ProjectProposal) error
	MarkItemsRecordedFunc     func(ctx context.Context, year, projectID string, names []string) error
	ListEntriesFunc           func(ctx context.Context, year string, includeArchived bool) ([]models.BudgetEntry, error)
	GetEntryFunc              func(ctx context.Context, year, id string) (*models.BudgetEntry, error)
	CreateEntryFunc           func(ctx context.Context, e models.BudgetEntry) error
	UpdateEntryFunc           func(ctx context.Context, e models.BudgetEntry) error
	SetEntryArchivedFunc      func(ctx context.Context, year, id string, archived bool) error
	DeleteEntryFunc           func(ctx context.Context, year, id string) error
	AddEntryAttachmentFunc    func(ctx context.Context, year, entryID string, att models.Attachment) error
	RemoveEntryAttachmentFunc func(ctx context.Context, year, entryID, fileID string) error
	SaveAuditRecordFunc       func(ctx context.Context, rec models.AuditRecord) error
}

func (m *MockDatabaseClient) GetYearLedger(ctx context.Context, year string) (*models.YearLedger, error) {
	if m.GetYearLedgerFunc != nil {
		return m.GetYearLedgerFunc(ctx, year)
	}
	return nil, services.ErrNotFound
}

func (m *MockDatabaseClient) ListYearLedgers(ctx context.Context) ([]models.YearLedger, error) {
	if m.ListYearLedgersFunc != nil {
		return m.ListYearLedgersFunc(ctx)
	}
	return nil, nil
}

func (m *MockDatabaseClient) SaveYearLedger(ctx context.Context, ledger models.YearLedger) error {
	if m.SaveYearLedgerFunc != nil {
		return m.SaveYearLedgerFunc(ctx, ledger)
	}
	return nil
}

func (m *MockDatabaseClient) UpdateLedgerExpenses(ctx context.Context, year string, delta decimal.Decimal) error {
	if m.UpdateLedgerExpensesFunc != nil {
		return m.UpdateLedgerExpensesFunc(ctx, year, delta)
	}
	return nil
}

func (m *MockDatabaseClient) ListProposals(ctx context.Context, year string) ([]models.ProjectProposal, error) {
	if m.ListProposalsFunc != nil {
		return m.ListProposalsFunc(ctx, year)
	}
	return nil, nil
}

func (m *MockDatabaseClient) GetProposal(ctx context.Context, year, id string) (*models.ProjectProposal, error) {
	if m.GetProposalFunc != nil {
		return m.GetProposalFunc(ctx, year, id)
	}
	return nil, nil
}

func (m *MockDatabaseClient) SaveProposal(ctx context.Context, p models.ProjectProposal) error {
	if m.SaveProposalFunc != nil {
		return m.SaveProposalFunc(ctx, p)
	}
	return nil
}

func (m *MockDatabaseClient) MarkItemsRecorded(ctx context.Context, year, projectID string, names []string) error {
	if m.MarkItemsRecordedFunc != nil {
		return m.MarkItemsRecordedFunc(ctx, year, projectID, names)
	}
	return nil
}

func (m *MockDatabaseClient) ListEntries(ctx context.Context, year string, includeArchived bool) ([]models.BudgetEntry, error) {
	if m.ListEntriesFunc != nil {
		return m.ListEntriesFunc(ctx, year, includeArchived)
	}
	return nil, nil
}

func (m *MockDatabaseClient) GetEntry(ctx context.Context, year, id string) (*models.BudgetEntry, error) {
	if m.GetEntryFunc != nil {
		return m.GetEntryFunc(ctx, year, id)
	}
	return nil, nil
}

func (m *MockDatabaseClient) CreateEntry(ctx context.Context, e models.BudgetEntry) error {
	if m.CreateEntryFunc != nil {
		return m.CreateEntryFunc(ctx, e)
	}
	return nil
}

func (m *MockDatabaseClient) UpdateEntry(ctx context.Context, e models.BudgetEntry) error {
	if m.UpdateEntryFunc != nil {
		return m.UpdateEntryFunc(ctx, e)
	}
	return nil
}

func (m *MockDatabaseClient) SetEntryArchived(ctx context.Context, year, id string, archived bool) error {
	if m.SetEntryArchivedFunc != nil {
		return m.SetEntryArchivedFunc(ctx, year, id, archived)
	}
	return nil
}

func (m *MockDatabaseClient) DeleteEntry(ctx context.Context, year, id string) error {
	if m.DeleteEntryFunc != nil {
		return m.DeleteEntryFunc(ctx, year, id)
	}
	return nil
}

func (m *MockDatabaseClient) AddEntryAttachment(ctx context.Context, year, entryID string, att models.Attachment) error {
	if m.AddEntryAttachmentFunc != nil {
		return m.AddEntryAttachmentFunc(ctx, year, entryID, att)
	}
	return nil
}

func (m *MockDatabaseClient) RemoveEntryAttachment(ctx context.Context, year, entryID, fileID string) error {
	if m.RemoveEntryAttachmentFunc != nil {
		return m.RemoveEntryAttachmentFunc(ctx, year, entryID, fileID)
	}
	return nil
}

func (m *MockDatabaseClient) SaveAuditRecord(ctx context.Context, rec models.AuditRecord) error {
	if m.SaveAuditRecordFunc != nil {
		return m.SaveAuditRecordFunc(ctx, rec)
	}
	return nil
}

// MockBlobClient is a mock implementation of BlobClient
type MockBlobClient struct {
	UploadFileFunc   func(ctx context.Context, containerName, blobName string, content []byte, contentType string) (string, error)
	DownloadFileFunc func(ctx context.Context, containerName, blobName string) ([]byte, error)
	DeleteFileFunc   func(ctx context.Context, containerName, blobName string) error
}

func (m *MockBlobClient) UploadFile(ctx context.Context, containerName, blobName string, content []byte, contentType string) (string, error) {
	if m.UploadFileFunc != nil {
		return m.UploadFileFunc(ctx, containerName, blobName, content, contentType)
	}
	return "https://store/" + containerName + "/" + blobName, nil
}

func (m *MockBlobClient) DownloadFile(ctx context.Context, containerName, blobName string) ([]byte, error) {
	if m.DownloadFileFunc != nil {
		return m.DownloadFileFunc(ctx, containerName, blobName)
	}
	return nil, nil
}

func (m *MockBlobClient) DeleteFile(ctx context.Context, containerName, blobName string) error {
	if m.DeleteFileFunc != nil {
		return m.DeleteFileFunc(ctx, containerName, blobName)
	}
	return nil
}

// MockQueueClient is a mock implementation of QueueClient
type MockQueueClient struct {
	EnqueueMessageFunc func(ctx context.Context, queueName string, message any) error
}

func (m *MockQueueClient) EnqueueMessage(ctx context.Context, queueName string, message any) error {
	if m.EnqueueMessageFunc != nil {
		return m.EnqueueMessageFunc(ctx, queueName, message)
	}
	return nil
}

// MockEmailClient is a mock implementation of EmailClient
type MockEmailClient struct {
	SendEmailFunc func(ctx context.Context, to []string, subject, body string) error
}

func (m *MockEmailClient) SendEmail(ctx context.Context, to []string, subject, body string) error {
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, to, subject, body)
	}
	return nil
}
