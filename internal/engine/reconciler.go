package engine

import (
	"github.com/lgudev/gadtrack/internal/models"
	"github.com/shopspring/decimal"
)

// SelectionState is the reconciler's position in the item-selection flow.
type SelectionState string

const (
	StateNoProject       SelectionState = "NO_PROJECT"
	StateProjectSelected SelectionState = "PROJECT_SELECTED"
	StateRecordedOnly    SelectionState = "RECORDED_ONLY"
	StateRecordedPlusNew SelectionState = "RECORDED_PLUS_NEW"
	// StateInvalid is terminal: the proposal has no usable items.
	StateInvalid SelectionState = "INVALID"
)

// Reconciler maintains the working item selection for one editing session.
// Recorded items are seeded on project selection and cannot be removed;
// unrecorded items move between the available set and the selection. All
// derivations are pure over the current selection, so re-running them on the
// same inputs yields the same results.
type Reconciler struct {
	state    SelectionState
	proposal models.ProjectProposal
	recorded map[string]bool
	selected []models.BudgetItem
}

// NewReconciler returns a reconciler with no project selected.
func NewReconciler() *Reconciler {
	return &Reconciler{state: StateNoProject, recorded: map[string]bool{}}
}

// SelectProject seeds the selection from a proposal: recorded items become
// the read-only base of the selection, and a sole available item is added
// automatically. A proposal with no budget items is invalid for expense
// entry and moves the reconciler to its terminal state.
func (r *Reconciler) SelectProject(p models.ProjectProposal) {
	r.proposal = p
	r.recorded = map[string]bool{}
	r.selected = nil

	if len(p.BudgetItems) == 0 {
		r.state = StateInvalid
		return
	}

	for _, item := range ResolveRecordedItems(p) {
		r.recorded[item.Name] = true
		r.selected = append(r.selected, item)
	}

	r.recomputeState()

	// Single-option shortcut: when exactly one item is left to choose,
	// choose it.
	if available := r.AvailableItems(); len(available) == 1 {
		r.AddItem(available[0].Name)
	}
}

// State returns the current selection state.
func (r *Reconciler) State() SelectionState {
	return r.state
}

// SelectedItems returns a copy of the working selection, recorded items
// first in catalog-seeded order.
func (r *Reconciler) SelectedItems() []models.BudgetItem {
	out := make([]models.BudgetItem, len(r.selected))
	copy(out, r.selected)
	return out
}

// AvailableItems returns the unrecorded items not yet selected.
func (r *Reconciler) AvailableItems() []models.BudgetItem {
	if r.state == StateNoProject || r.state == StateInvalid {
		return []models.BudgetItem{}
	}
	return AvailableItems(r.proposal, r.selected)
}

// AddItem moves an available item into the selection. Returns false when the
// name is not currently available.
func (r *Reconciler) AddItem(name string) bool {
	if r.state == StateNoProject || r.state == StateInvalid {
		return false
	}
	for _, item := range r.AvailableItems() {
		if item.Name == name {
			r.selected = append(r.selected, item)
			r.recomputeState()
			return true
		}
	}
	return false
}

// RemoveItem takes an unrecorded item out of the selection. Removing a
// recorded item is a no-op: those are frozen by a previous entry.
func (r *Reconciler) RemoveItem(name string) bool {
	if r.recorded[name] {
		return false
	}
	for i, item := range r.selected {
		if item.Name == name {
			r.selected = append(r.selected[:i], r.selected[i+1:]...)
			r.recomputeState()
			return true
		}
	}
	return false
}

// HasUnrecordedItems reports whether the selection contains at least one
// item absent from the recorded set. A submission without one restates
// already-recorded spending and must not persist.
func (r *Reconciler) HasUnrecordedItems() bool {
	for _, item := range r.selected {
		if !r.recorded[item.Name] {
			return true
		}
	}
	return false
}

// ProposedBudget sums amount x pax over the newly selected items only.
// Recorded items contribute zero: their budget was proposed by a prior
// entry. The sum is normalized to two decimal places.
func (r *Reconciler) ProposedBudget() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.selected {
		if r.recorded[item.Name] {
			continue
		}
		total = total.Add(item.LineTotal())
	}
	return total.Round(2)
}

func (r *Reconciler) recomputeState() {
	switch {
	case r.HasUnrecordedItems():
		r.state = StateRecordedPlusNew
	case len(r.selected) > 0:
		r.state = StateRecordedOnly
	default:
		r.state = StateProjectSelected
	}
}
