package engine

import (
	"log/slog"

	"github.com/lgudev/gadtrack/internal/models"
)

// ResolveRecordedItems looks up a proposal's recorded item names in its
// catalog. Names that no longer resolve are dropped with a warning; a stale
// name is a data-integrity signal, not a fatal condition.
func ResolveRecordedItems(p models.ProjectProposal) []models.BudgetItem {
	byName := make(map[string]models.BudgetItem, len(p.BudgetItems))
	for _, item := range p.BudgetItems {
		byName[item.Name] = item
	}

	resolved := []models.BudgetItem{}
	for _, name := range p.RecordedItemNames {
		item, ok := byName[name]
		if !ok {
			slog.Warn("recorded item name does not resolve in proposal catalog",
				"project_id", p.ID, "item_name", name)
			continue
		}
		resolved = append(resolved, item)
	}
	return resolved
}

// AvailableItems returns the proposal's unrecorded items that are not yet in
// the working selection. Recomputed on every selection change so an item
// cannot be added twice.
func AvailableItems(p models.ProjectProposal, selected []models.BudgetItem) []models.BudgetItem {
	taken := make(map[string]bool, len(selected))
	for _, item := range selected {
		taken[item.Name] = true
	}

	available := []models.BudgetItem{}
	for _, item := range p.UnrecordedItems {
		if !taken[item.Name] {
			available = append(available, item)
		}
	}
	return available
}
