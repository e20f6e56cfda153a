package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lgudev/gadtrack/internal/models"
	"github.com/lgudev/gadtrack/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestHandleLedgers_GetSingle(t *testing.T) {
	mockDb := &MockDatabaseClient{}
	deps := &Dependencies{Database: mockDb}

	mockDb.GetYearLedgerFunc = func(ctx context.Context, year string) (*models.YearLedger, error) {
		assert.Equal(t, "2025", year)
		return testLedger(), nil
	}

	req := httptest.NewRequest(http.MethodGet, "/api/ledgers?year=2025", nil)
	w := httptest.NewRecorder()

	deps.HandleLedgers(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got models.YearLedger
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "2025", got.Year)
	assert.Equal(t, float64(20000), got.RemainingBalance)
}

func TestHandleLedgers_GetSingleNotFound(t *testing.T) {
	mockDb := &MockDatabaseClient{}
	deps := &Dependencies{Database: mockDb}

	mockDb.GetYearLedgerFunc = func(ctx context.Context, year string) (*models.YearLedger, error) {
		return nil, services.ErrNotFound
	}

	req := httptest.NewRequest(http.MethodGet, "/api/ledgers?year=2030", nil)
	w := httptest.NewRecorder()

	deps.HandleLedgers(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleLedgers_List(t *testing.T) {
	mockDb := &MockDatabaseClient{}
	deps := &Dependencies{Database: mockDb}

	mockDb.ListYearLedgersFunc = func(ctx context.Context) ([]models.YearLedger, error) {
		return []models.YearLedger{
			{Year: "2024", AllocatedBudget: decimal.NewFromInt(90000), CumulativeExpenses: decimal.NewFromInt(90000)},
			*testLedger(),
		}, nil
	}

	req := httptest.NewRequest(http.MethodGet, "/api/ledgers", nil)
	w := httptest.NewRecorder()

	deps.HandleLedgers(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got []models.YearLedger
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 2)
	assert.Equal(t, float64(0), got[0].RemainingBalance)
	assert.Equal(t, float64(20000), got[1].RemainingBalance)
}

func TestHandleLedgers_Post(t *testing.T) {
	mockDb := &MockDatabaseClient{}
	deps := &Dependencies{Database: mockDb}

	var saved models.YearLedger
	mockDb.SaveYearLedgerFunc = func(ctx context.Context, ledger models.YearLedger) error {
		saved = ledger
		return nil
	}

	body, _ := json.Marshal(map[string]any{
		"year":             "2026",
		"allocated_budget": 120000,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/ledgers", bytes.NewBuffer(body))
	w := httptest.NewRecorder()

	deps.HandleLedgers(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2026", saved.Year)
	assert.True(t, saved.AllocatedBudget.Equal(decimal.NewFromInt(120000)))
}

func TestHandleLedgers_PostRejectsBadYear(t *testing.T) {
	deps := &Dependencies{Database: &MockDatabaseClient{}}

	for _, year := range []string{"", "26", "20266", "twenty"} {
		body, _ := json.Marshal(map[string]any{"year": year, "allocated_budget": 1000})
		req := httptest.NewRequest(http.MethodPost, "/api/ledgers", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		deps.HandleLedgers(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "year %q should be rejected", year)
	}
}

func TestHandleLedgers_PostRejectsNegativeBudget(t *testing.T) {
	deps := &Dependencies{Database: &MockDatabaseClient{}}

	body, _ := json.Marshal(map[string]any{"year": "2026", "allocated_budget": -5})
	req := httptest.NewRequest(http.MethodPost, "/api/ledgers", bytes.NewBuffer(body))
	w := httptest.NewRecorder()

	deps.HandleLedgers(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
