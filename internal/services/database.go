package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/lgudev/gadtrack/internal/models"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested ledger, proposal or entry does
// not exist.
var ErrNotFound = errors.New("not found")

const ledgerPartition = "LEDGERS"

// DatabaseService handles interactions with Azure Table Storage. Ledgers
// live under a single partition keyed by year; proposals, entries and audit
// rows are partitioned by year.
type DatabaseService struct {
	serviceClient  *aztables.ServiceClient
	ledgersTable   string
	proposalsTable string
	entriesTable   string
	auditsTable    string
}

// NewDatabaseService creates a new DatabaseService instance.
func NewDatabaseService() (*DatabaseService, error) {
	tableURL := os.Getenv("TABLE_SERVICE_URL")
	if tableURL == "" {
		return nil, fmt.Errorf("TABLE_SERVICE_URL environment variable is required")
	}

	ledgersTable := os.Getenv("LEDGERS_TABLE")
	if ledgersTable == "" {
		ledgersTable = "ledgers"
	}

	proposalsTable := os.Getenv("PROPOSALS_TABLE")
	if proposalsTable == "" {
		proposalsTable = "proposals"
	}

	entriesTable := os.Getenv("ENTRIES_TABLE")
	if entriesTable == "" {
		entriesTable = "entries"
	}

	auditsTable := os.Getenv("AUDITS_TABLE")
	if auditsTable == "" {
		auditsTable = "audits"
	}

	var client *aztables.ServiceClient

	if isLocal(tableURL) {
		slog.Info("using Azurite credentials for database service")
		name, key := azuriteCredentials()
		cred, err := aztables.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = aztables.NewServiceClientWithSharedKey(tableURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create table service client with shared key: %w", err)
		}
	} else {
		slog.Info("using default Azure credentials for database service")
		cred, err := newDefaultAzureCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		client, err = aztables.NewServiceClient(tableURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create table service client: %w", err)
		}
	}

	svc := &DatabaseService{
		serviceClient:  client,
		ledgersTable:   ledgersTable,
		proposalsTable: proposalsTable,
		entriesTable:   entriesTable,
		auditsTable:    auditsTable,
	}

	if err := svc.CreateTables(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	slog.Info("database service initialized",
		"table_url", tableURL,
		"ledgers_table", ledgersTable,
		"proposals_table", proposalsTable,
		"entries_table", entriesTable,
		"audits_table", auditsTable,
	)
	return svc, nil
}

// CreateTables ensures all required tables exist.
func (s *DatabaseService) CreateTables(ctx context.Context) error {
	tables := []string{s.ledgersTable, s.proposalsTable, s.entriesTable, s.auditsTable}

	for _, tableName := range tables {
		_, err := s.serviceClient.CreateTable(ctx, tableName, nil)
		if err != nil {
			var azErr *azcore.ResponseError
			if errors.As(err, &azErr) && azErr.ErrorCode == "TableAlreadyExists" {
				continue
			}
			return fmt.Errorf("failed to create table %s: %w", tableName, err)
		}
	}
	return nil
}

func (s *DatabaseService) getClient(tableName string) *aztables.Client {
	return s.serviceClient.NewClient(tableName)
}

func isEntityNotFound(err error) bool {
	var azErr *azcore.ResponseError
	return errors.As(err, &azErr) && (azErr.ErrorCode == "ResourceNotFound" || azErr.ErrorCode == "EntityNotFound")
}

func getString(parsed map[string]any, key string) string {
	if v, ok := parsed[key].(string); ok {
		return v
	}
	return ""
}

func getDecimal(parsed map[string]any, key string) decimal.Decimal {
	if v, ok := parsed[key].(string); ok {
		d, _ := decimal.NewFromString(v)
		return d
	}
	if v, ok := parsed[key].(float64); ok {
		return decimal.NewFromFloat(v)
	}
	return decimal.Zero
}

func getBool(parsed map[string]any, key string) bool {
	v, ok := parsed[key].(bool)
	return ok && v
}

// GetYearLedger retrieves the ledger for a 4-digit year. Returns ErrNotFound
// when no ledger exists for that year.
func (s *DatabaseService) GetYearLedger(ctx context.Context, year string) (*models.YearLedger, error) {
	client := s.getClient(s.ledgersTable)

	resp, err := client.GetEntity(ctx, ledgerPartition, year, nil)
	if err != nil {
		if isEntityNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ledger for year %s: %w", year, err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(resp.Value, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse ledger entity: %w", err)
	}

	ledger := &models.YearLedger{
		Year:               year,
		AllocatedBudget:    getDecimal(parsed, "AllocatedBudget"),
		CumulativeExpenses: getDecimal(parsed, "CumulativeExpenses"),
	}
	return ledger, nil
}

// ListYearLedgers retrieves every year ledger.
func (s *DatabaseService) ListYearLedgers(ctx context.Context) ([]models.YearLedger, error) {
	client := s.getClient(s.ledgersTable)

	filter := fmt.Sprintf("PartitionKey eq '%s'", ledgerPartition)
	pager := client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})

	var ledgers []models.YearLedger
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list ledgers: %w", err)
		}
		for _, entity := range resp.Entities {
			var parsed map[string]any
			if err := json.Unmarshal(entity, &parsed); err != nil {
				continue
			}
			ledgers = append(ledgers, models.YearLedger{
				Year:               getString(parsed, "RowKey"),
				AllocatedBudget:    getDecimal(parsed, "AllocatedBudget"),
				CumulativeExpenses: getDecimal(parsed, "CumulativeExpenses"),
			})
		}
	}
	return ledgers, nil
}

// SaveYearLedger upserts a year's allocation. Administrative path.
func (s *DatabaseService) SaveYearLedger(ctx context.Context, ledger models.YearLedger) error {
	client := s.getClient(s.ledgersTable)

	entity := map[string]any{
		"PartitionKey":       ledgerPartition,
		"RowKey":             ledger.Year,
		"AllocatedBudget":    ledger.AllocatedBudget.InexactFloat64(),
		"CumulativeExpenses": ledger.CumulativeExpenses.InexactFloat64(),
	}

	entityJSON, _ := json.Marshal(entity)
	if _, err := client.UpsertEntity(ctx, entityJSON, nil); err != nil {
		return fmt.Errorf("failed to save ledger for year %s: %w", ledger.Year, err)
	}
	return nil
}

// UpdateLedgerExpenses adjusts a year's cumulative expenses by a signed
// delta. Entry creates add the actual expense, edits add the difference and
// deletes subtract it back out.
func (s *DatabaseService) UpdateLedgerExpenses(ctx context.Context, year string, delta decimal.Decimal) error {
	client := s.getClient(s.ledgersTable)

	resp, err := client.GetEntity(ctx, ledgerPartition, year, nil)
	if err != nil {
		if isEntityNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get ledger for year %s: %w", year, err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(resp.Value, &parsed); err != nil {
		return fmt.Errorf("failed to parse ledger entity: %w", err)
	}

	cumulative := getDecimal(parsed, "CumulativeExpenses")
	parsed["CumulativeExpenses"] = cumulative.Add(delta).InexactFloat64()

	updatedJSON, _ := json.Marshal(parsed)
	if _, err := client.UpdateEntity(ctx, updatedJSON, nil); err != nil {
		return fmt.Errorf("failed to update ledger expenses for year %s: %w", year, err)
	}

	slog.Info("updated ledger cumulative expenses", "year", year, "delta", delta.String())
	return nil
}

func parseProposal(parsed map[string]any) models.ProjectProposal {
	p := models.ProjectProposal{
		ID:                getString(parsed, "RowKey"),
		Year:              getString(parsed, "PartitionKey"),
		Title:             getString(parsed, "Title"),
		BudgetItems:       []models.BudgetItem{},
		RecordedItemNames: []string{},
	}
	if raw := getString(parsed, "BudgetItems"); raw != "" {
		_ = json.Unmarshal([]byte(raw), &p.BudgetItems)
	}
	if raw := getString(parsed, "RecordedItemNames"); raw != "" {
		_ = json.Unmarshal([]byte(raw), &p.RecordedItemNames)
	}
	p.PopulateUnrecordedItems()
	return p
}

// ListProposals retrieves a year's project proposals with the
// recorded/unrecorded partition populated.
func (s *DatabaseService) ListProposals(ctx context.Context, year string) ([]models.ProjectProposal, error) {
	client := s.getClient(s.proposalsTable)

	filter := fmt.Sprintf("PartitionKey eq '%s'", year)
	pager := client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})

	var proposals []models.ProjectProposal
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list proposals: %w", err)
		}
		for _, entity := range resp.Entities {
			var parsed map[string]any
			if err := json.Unmarshal(entity, &parsed); err != nil {
				continue
			}
			proposals = append(proposals, parseProposal(parsed))
		}
	}
	return proposals, nil
}

// GetProposal retrieves one proposal by year and id.
func (s *DatabaseService) GetProposal(ctx context.Context, year, id string) (*models.ProjectProposal, error) {
	client := s.getClient(s.proposalsTable)

	resp, err := client.GetEntity(ctx, year, id, nil)
	if err != nil {
		if isEntityNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get proposal %s: %w", id, err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(resp.Value, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse proposal entity: %w", err)
	}
	p := parseProposal(parsed)
	return &p, nil
}

// SaveProposal upserts a project proposal. Items and recorded names are
// stored as JSON columns.
func (s *DatabaseService) SaveProposal(ctx context.Context, p models.ProjectProposal) error {
	client := s.getClient(s.proposalsTable)

	itemsJSON, _ := json.Marshal(p.BudgetItems)
	recordedJSON, _ := json.Marshal(p.RecordedItemNames)

	entity := map[string]any{
		"PartitionKey":      p.Year,
		"RowKey":            p.ID,
		"Title":             p.Title,
		"BudgetItems":       string(itemsJSON),
		"RecordedItemNames": string(recordedJSON),
	}

	entityJSON, _ := json.Marshal(entity)
	if _, err := client.UpsertEntity(ctx, entityJSON, nil); err != nil {
		return fmt.Errorf("failed to save proposal %s: %w", p.ID, err)
	}
	return nil
}

// MarkItemsRecorded freezes item names on a proposal after an entry has
// spent against them. Names already recorded are not duplicated.
func (s *DatabaseService) MarkItemsRecorded(ctx context.Context, year, projectID string, names []string) error {
	if len(names) == 0 {
		return nil
	}

	p, err := s.GetProposal(ctx, year, projectID)
	if err != nil {
		return err
	}

	recorded := make(map[string]bool, len(p.RecordedItemNames))
	for _, name := range p.RecordedItemNames {
		recorded[name] = true
	}
	for _, name := range names {
		if !recorded[name] {
			p.RecordedItemNames = append(p.RecordedItemNames, name)
			recorded[name] = true
		}
	}

	if err := s.SaveProposal(ctx, *p); err != nil {
		return err
	}
	slog.Info("marked proposal items recorded", "project_id", projectID, "names", names)
	return nil
}

func parseEntry(parsed map[string]any) models.BudgetEntry {
	e := models.BudgetEntry{
		ID:                       getString(parsed, "RowKey"),
		Year:                     getString(parsed, "PartitionKey"),
		Datetime:                 getString(parsed, "Datetime"),
		Notes:                    getString(parsed, "Notes"),
		SelectedItems:            []models.BudgetItem{},
		ProposedBudget:           getDecimal(parsed, "ProposedBudget"),
		ActualExpense:            getDecimal(parsed, "ActualExpense"),
		ReferenceNumber:          getString(parsed, "ReferenceNumber"),
		RemainingBalanceSnapshot: getDecimal(parsed, "RemainingBalanceSnapshot"),
		IsArchived:               getBool(parsed, "IsArchived"),
		Attachments:              []models.Attachment{},
	}
	if raw := getString(parsed, "SelectedItems"); raw != "" {
		_ = json.Unmarshal([]byte(raw), &e.SelectedItems)
	}
	if raw := getString(parsed, "Attachments"); raw != "" {
		_ = json.Unmarshal([]byte(raw), &e.Attachments)
	}
	if projectID := getString(parsed, "ProjectID"); projectID != "" {
		itemIndex := 0
		if v, ok := parsed["ItemIndex"].(float64); ok {
			itemIndex = int(v)
		}
		e.ProjectRef = &models.ProjectRef{ProjectID: projectID, ItemIndex: itemIndex}
	}
	return e
}

func entryEntity(e models.BudgetEntry) map[string]any {
	itemsJSON, _ := json.Marshal(e.SelectedItems)
	attachmentsJSON, _ := json.Marshal(e.Attachments)

	entity := map[string]any{
		"PartitionKey":             e.Year,
		"RowKey":                   e.ID,
		"Datetime":                 e.Datetime,
		"Notes":                    e.Notes,
		"SelectedItems":            string(itemsJSON),
		"ProposedBudget":           e.ProposedBudget.InexactFloat64(),
		"ActualExpense":            e.ActualExpense.InexactFloat64(),
		"ReferenceNumber":          e.ReferenceNumber,
		"RemainingBalanceSnapshot": e.RemainingBalanceSnapshot.InexactFloat64(),
		"IsArchived":               e.IsArchived,
		"Attachments":              string(attachmentsJSON),
	}
	if e.ProjectRef != nil {
		entity["ProjectID"] = e.ProjectRef.ProjectID
		entity["ItemIndex"] = e.ProjectRef.ItemIndex
	}
	return entity
}

// ListEntries retrieves a year's budget entries, optionally including
// archived ones.
func (s *DatabaseService) ListEntries(ctx context.Context, year string, includeArchived bool) ([]models.BudgetEntry, error) {
	client := s.getClient(s.entriesTable)

	filter := fmt.Sprintf("PartitionKey eq '%s'", year)
	pager := client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})

	var entries []models.BudgetEntry
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list entries: %w", err)
		}
		for _, entity := range resp.Entities {
			var parsed map[string]any
			if err := json.Unmarshal(entity, &parsed); err != nil {
				continue
			}
			e := parseEntry(parsed)
			if e.IsArchived && !includeArchived {
				continue
			}
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// GetEntry retrieves one budget entry by year and id.
func (s *DatabaseService) GetEntry(ctx context.Context, year, id string) (*models.BudgetEntry, error) {
	client := s.getClient(s.entriesTable)

	resp, err := client.GetEntity(ctx, year, id, nil)
	if err != nil {
		if isEntityNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get entry %s: %w", id, err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(resp.Value, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse entry entity: %w", err)
	}
	e := parseEntry(parsed)
	return &e, nil
}

// CreateEntry inserts a new budget entry.
func (s *DatabaseService) CreateEntry(ctx context.Context, e models.BudgetEntry) error {
	client := s.getClient(s.entriesTable)

	entityJSON, _ := json.Marshal(entryEntity(e))
	if _, err := client.AddEntity(ctx, entityJSON, nil); err != nil {
		return fmt.Errorf("failed to create entry %s: %w", e.ID, err)
	}
	return nil
}

// UpdateEntry rewrites an entry's mutable fields. The stored item set and
// proposed budget are frozen once spent against, so they are preserved from
// the existing row.
func (s *DatabaseService) UpdateEntry(ctx context.Context, e models.BudgetEntry) error {
	existing, err := s.GetEntry(ctx, e.Year, e.ID)
	if err != nil {
		return err
	}

	existing.Datetime = e.Datetime
	existing.Notes = e.Notes
	existing.ActualExpense = e.ActualExpense
	existing.ReferenceNumber = e.ReferenceNumber
	existing.RemainingBalanceSnapshot = e.RemainingBalanceSnapshot

	client := s.getClient(s.entriesTable)
	entityJSON, _ := json.Marshal(entryEntity(*existing))
	if _, err := client.UpsertEntity(ctx, entityJSON, nil); err != nil {
		return fmt.Errorf("failed to update entry %s: %w", e.ID, err)
	}
	return nil
}

// SetEntryArchived flips an entry's archived flag. Archiving is a
// visibility transition; the entry's expense stays on the ledger.
func (s *DatabaseService) SetEntryArchived(ctx context.Context, year, id string, archived bool) error {
	e, err := s.GetEntry(ctx, year, id)
	if err != nil {
		return err
	}
	e.IsArchived = archived

	client := s.getClient(s.entriesTable)
	entityJSON, _ := json.Marshal(entryEntity(*e))
	if _, err := client.UpsertEntity(ctx, entityJSON, nil); err != nil {
		return fmt.Errorf("failed to set archived flag on entry %s: %w", id, err)
	}
	return nil
}

// DeleteEntry removes a budget entry row.
func (s *DatabaseService) DeleteEntry(ctx context.Context, year, id string) error {
	client := s.getClient(s.entriesTable)

	if _, err := client.DeleteEntity(ctx, year, id, nil); err != nil {
		if isEntityNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete entry %s: %w", id, err)
	}
	return nil
}

// AddEntryAttachment appends persisted attachment metadata to an entry.
func (s *DatabaseService) AddEntryAttachment(ctx context.Context, year, entryID string, att models.Attachment) error {
	e, err := s.GetEntry(ctx, year, entryID)
	if err != nil {
		return err
	}

	// Metadata only; bytes live in blob storage.
	att.Content = nil
	e.Attachments = append(e.Attachments, att)

	client := s.getClient(s.entriesTable)
	entityJSON, _ := json.Marshal(entryEntity(*e))
	if _, err := client.UpsertEntity(ctx, entityJSON, nil); err != nil {
		return fmt.Errorf("failed to add attachment to entry %s: %w", entryID, err)
	}
	return nil
}

// RemoveEntryAttachment drops attachment metadata from an entry.
func (s *DatabaseService) RemoveEntryAttachment(ctx context.Context, year, entryID, fileID string) error {
	e, err := s.GetEntry(ctx, year, entryID)
	if err != nil {
		return err
	}

	kept := e.Attachments[:0]
	for _, att := range e.Attachments {
		if att.ID != fileID {
			kept = append(kept, att)
		}
	}
	e.Attachments = kept

	client := s.getClient(s.entriesTable)
	entityJSON, _ := json.Marshal(entryEntity(*e))
	if _, err := client.UpsertEntity(ctx, entityJSON, nil); err != nil {
		return fmt.Errorf("failed to remove attachment from entry %s: %w", entryID, err)
	}
	return nil
}

// SaveAuditRecord appends one row to the submission audit trail.
func (s *DatabaseService) SaveAuditRecord(ctx context.Context, rec models.AuditRecord) error {
	client := s.getClient(s.auditsTable)

	entity := map[string]any{
		"PartitionKey":     rec.Year,
		"RowKey":           rec.ID,
		"EntryID":          rec.EntryID,
		"Action":           rec.Action,
		"ActualExpense":    rec.ActualExpense.InexactFloat64(),
		"RemainingBalance": rec.RemainingBalance.InexactFloat64(),
		"RecordedAt":       rec.RecordedAt,
	}

	entityJSON, _ := json.Marshal(entity)
	if _, err := client.UpsertEntity(ctx, entityJSON, nil); err != nil {
		return fmt.Errorf("failed to save audit record %s: %w", rec.ID, err)
	}
	return nil
}
