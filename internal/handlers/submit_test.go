package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lgudev/gadtrack/internal/engine"
	"github.com/lgudev/gadtrack/internal/models"
	"github.com/lgudev/gadtrack/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func testLedger() *models.YearLedger {
	return &models.YearLedger{
		Year:               "2025",
		AllocatedBudget:    decimal.NewFromInt(100000),
		CumulativeExpenses: decimal.NewFromInt(80000),
	}
}

func testProposal() *models.ProjectProposal {
	p := &models.ProjectProposal{
		ID:   "p1",
		Year: "2025",
		BudgetItems: []models.BudgetItem{
			{Name: "Venue", Pax: "1", Amount: decimal.NewFromInt(5000)},
			{Name: "Food", Pax: "50", Amount: decimal.NewFromInt(100)},
		},
		RecordedItemNames: []string{"Venue"},
	}
	p.PopulateUnrecordedItems()
	return p
}

func createBody(t *testing.T, form map[string]any) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(form)
	assert.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestHandleCreateEntry_Success(t *testing.T) {
	mockDb := &MockDatabaseClient{}
	mockBlob := &MockBlobClient{}
	mockQueue := &MockQueueClient{}
	deps := &Dependencies{Database: mockDb, Blob: mockBlob, Queue: mockQueue}

	var calls []string

	mockDb.GetYearLedgerFunc = func(ctx context.Context, year string) (*models.YearLedger, error) {
		assert.Equal(t, "2025", year)
		return testLedger(), nil
	}
	mockDb.GetProposalFunc = func(ctx context.Context, year, id string) (*models.ProjectProposal, error) {
		return testProposal(), nil
	}

	var created models.BudgetEntry
	mockDb.CreateEntryFunc = func(ctx context.Context, e models.BudgetEntry) error {
		calls = append(calls, "create")
		created = e
		return nil
	}
	mockBlob.UploadFileFunc = func(ctx context.Context, containerName, blobName string, content []byte, contentType string) (string, error) {
		calls = append(calls, "upload")
		return "https://store/" + blobName, nil
	}
	mockDb.AddEntryAttachmentFunc = func(ctx context.Context, year, entryID string, att models.Attachment) error {
		assert.NotEmpty(t, att.RemoteURL)
		assert.Nil(t, att.Content)
		return nil
	}
	mockDb.UpdateLedgerExpensesFunc = func(ctx context.Context, year string, delta decimal.Decimal) error {
		calls = append(calls, "ledger")
		assert.True(t, delta.Equal(decimal.NewFromInt(4500)))
		return nil
	}
	mockDb.MarkItemsRecordedFunc = func(ctx context.Context, year, projectID string, names []string) error {
		calls = append(calls, "record")
		assert.Equal(t, "p1", projectID)
		assert.Contains(t, names, "Food")
		return nil
	}
	mockQueue.EnqueueMessageFunc = func(ctx context.Context, queueName string, message any) error {
		calls = append(calls, "audit")
		return nil
	}

	form := map[string]any{
		"year":           "2025",
		"project_id":     "p1",
		"datetime":       "2025-06-15T10:00:00Z",
		"actual_expense": 4500,
		"attachments": []map[string]any{
			{"name": "receipt.jpg", "mime_type": "image/jpeg", "content": []byte("fake-bytes")},
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/entries", createBody(t, form))
	w := httptest.NewRecorder()

	deps.HandleCreateEntry(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	// Entry write strictly precedes uploads; ledger and freeze follow.
	assert.Equal(t, []string{"create", "upload", "ledger", "record", "audit"}, calls)

	assert.Len(t, created.SelectedItems, 2)
	assert.True(t, created.ProposedBudget.Equal(decimal.NewFromInt(5000)))
	assert.True(t, created.RemainingBalanceSnapshot.Equal(decimal.NewFromInt(15500)))
}

func TestHandleCreateEntry_RejectedByEngine(t *testing.T) {
	mockDb := &MockDatabaseClient{}
	deps := &Dependencies{Database: mockDb, Blob: &MockBlobClient{}, Queue: &MockQueueClient{}}

	mockDb.GetYearLedgerFunc = func(ctx context.Context, year string) (*models.YearLedger, error) {
		return testLedger(), nil
	}
	mockDb.GetProposalFunc = func(ctx context.Context, year, id string) (*models.ProjectProposal, error) {
		return testProposal(), nil
	}
	mockDb.CreateEntryFunc = func(ctx context.Context, e models.BudgetEntry) error {
		t.Fatal("rejected submission must not reach the entry write")
		return nil
	}

	form := map[string]any{
		"year":           "2025",
		"project_id":     "p1",
		"datetime":       "2025-06-15T10:00:00Z",
		"actual_expense": 25000, // remaining is only 20000
	}

	req := httptest.NewRequest(http.MethodPost, "/api/entries", createBody(t, form))
	w := httptest.NewRecorder()

	deps.HandleCreateEntry(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Rejections []engine.Rejection `json:"rejections"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Rejections, 1)
	assert.Equal(t, engine.ExpenseExceedsBalance, resp.Rejections[0].Kind)
}

func TestHandleCreateEntry_NoLedgerForYear(t *testing.T) {
	mockDb := &MockDatabaseClient{}
	deps := &Dependencies{Database: mockDb, Blob: &MockBlobClient{}, Queue: &MockQueueClient{}}

	mockDb.GetYearLedgerFunc = func(ctx context.Context, year string) (*models.YearLedger, error) {
		return nil, services.ErrNotFound
	}

	form := map[string]any{
		"year":           "2030",
		"datetime":       "2030-01-15T10:00:00Z",
		"actual_expense": 100,
	}

	req := httptest.NewRequest(http.MethodPost, "/api/entries", createBody(t, form))
	w := httptest.NewRecorder()

	deps.HandleCreateEntry(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Rejections []engine.Rejection `json:"rejections"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	kinds := make([]engine.RejectionKind, len(resp.Rejections))
	for i, r := range resp.Rejections {
		kinds[i] = r.Kind
	}
	assert.Contains(t, kinds, engine.NoBudgetForYear)
}

func TestHandleCreateEntry_InvalidBody(t *testing.T) {
	deps := &Dependencies{Database: &MockDatabaseClient{}}
	req := httptest.NewRequest(http.MethodPost, "/api/entries", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()

	deps.HandleCreateEntry(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleUpdateEntry_SequencesDeleteWriteUpload(t *testing.T) {
	mockDb := &MockDatabaseClient{}
	mockBlob := &MockBlobClient{}
	mockQueue := &MockQueueClient{}
	deps := &Dependencies{Database: mockDb, Blob: mockBlob, Queue: mockQueue}

	var calls []string

	existing := &models.BudgetEntry{
		ID:            "e1",
		Year:          "2025",
		Datetime:      "2025-03-01T09:00:00Z",
		ActualExpense: decimal.NewFromInt(4500),
		Attachments: []models.Attachment{
			{ID: "f1", Name: "a.pdf", RemoteURL: "https://store/f1"},
			{ID: "f2", Name: "b.pdf", RemoteURL: "https://store/f2"},
		},
	}

	mockDb.GetEntryFunc = func(ctx context.Context, year, id string) (*models.BudgetEntry, error) {
		return existing, nil
	}
	mockDb.GetYearLedgerFunc = func(ctx context.Context, year string) (*models.YearLedger, error) {
		// Cumulative already includes the entry's previous 4500.
		return &models.YearLedger{
			Year:               "2025",
			AllocatedBudget:    decimal.NewFromInt(100000),
			CumulativeExpenses: decimal.NewFromInt(84500),
		}, nil
	}
	mockBlob.DeleteFileFunc = func(ctx context.Context, containerName, blobName string) error {
		calls = append(calls, "delete:"+blobName)
		return nil
	}
	mockDb.RemoveEntryAttachmentFunc = func(ctx context.Context, year, entryID, fileID string) error {
		return nil
	}
	mockDb.UpdateEntryFunc = func(ctx context.Context, e models.BudgetEntry) error {
		calls = append(calls, "write")
		assert.True(t, e.ActualExpense.Equal(decimal.NewFromInt(6000)))
		return nil
	}
	mockBlob.UploadFileFunc = func(ctx context.Context, containerName, blobName string, content []byte, contentType string) (string, error) {
		calls = append(calls, "upload")
		return "https://store/" + blobName, nil
	}
	mockDb.UpdateLedgerExpensesFunc = func(ctx context.Context, year string, delta decimal.Decimal) error {
		calls = append(calls, "ledger")
		assert.True(t, delta.Equal(decimal.NewFromInt(1500)))
		return nil
	}

	form := map[string]any{
		"year":           "2025",
		"datetime":       "2025-03-01T09:00:00Z",
		"actual_expense": 6000,
		"attachments": []map[string]any{
			{"id": "f1", "name": "a.pdf", "remote_url": "https://store/f1"},
			{"name": "new.jpg", "mime_type": "image/jpeg", "content": []byte("fresh")},
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/api/entries/e1", createBody(t, form))
	req.SetPathValue("id", "e1")
	w := httptest.NewRecorder()

	deps.HandleUpdateEntry(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, calls, 4)
	assert.Equal(t, "delete:entries/e1/f2", calls[0])
	assert.Equal(t, "write", calls[1])
	assert.Equal(t, "upload", calls[2])
	assert.Equal(t, "ledger", calls[3])
}

func TestHandleUpdateEntry_NotFound(t *testing.T) {
	mockDb := &MockDatabaseClient{}
	deps := &Dependencies{Database: mockDb, Blob: &MockBlobClient{}, Queue: &MockQueueClient{}}

	mockDb.GetEntryFunc = func(ctx context.Context, year, id string) (*models.BudgetEntry, error) {
		return nil, services.ErrNotFound
	}

	form := map[string]any{
		"year":           "2025",
		"datetime":       "2025-03-01T09:00:00Z",
		"actual_expense": 100,
	}

	req := httptest.NewRequest(http.MethodPut, "/api/entries/missing", createBody(t, form))
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()

	deps.HandleUpdateEntry(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleUpdateEntry_LowerExpenseAlwaysFits(t *testing.T) {
	mockDb := &MockDatabaseClient{}
	deps := &Dependencies{Database: mockDb, Blob: &MockBlobClient{}, Queue: &MockQueueClient{}}

	existing := &models.BudgetEntry{
		ID: "e1", Year: "2025",
		Datetime:      "2025-03-01T09:00:00Z",
		ActualExpense: decimal.NewFromInt(20000),
	}
	mockDb.GetEntryFunc = func(ctx context.Context, year, id string) (*models.BudgetEntry, error) {
		return existing, nil
	}
	// Fully spent year: remaining is zero, all of it this entry's own doing.
	mockDb.GetYearLedgerFunc = func(ctx context.Context, year string) (*models.YearLedger, error) {
		return &models.YearLedger{
			Year:               "2025",
			AllocatedBudget:    decimal.NewFromInt(20000),
			CumulativeExpenses: decimal.NewFromInt(20000),
		}, nil
	}

	form := map[string]any{
		"year":           "2025",
		"datetime":       "2025-03-01T09:00:00Z",
		"actual_expense": 15000,
	}

	req := httptest.NewRequest(http.MethodPut, "/api/entries/e1", createBody(t, form))
	req.SetPathValue("id", "e1")
	w := httptest.NewRecorder()

	deps.HandleUpdateEntry(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
