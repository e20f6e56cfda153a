package engine

import (
	"github.com/lgudev/gadtrack/internal/models"
	"github.com/shopspring/decimal"
)

// Mode distinguishes a first submission from an edit of an existing entry.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// SubmissionInput is the full form state handed to the assembler.
type SubmissionInput struct {
	Mode   Mode
	Year   string
	Ledger *models.YearLedger // nil when no ledger exists for the year

	// Items is the session's reconciler; nil for entries not drawn from a
	// project proposal.
	Items      *Reconciler
	ProjectRef *models.ProjectRef

	Datetime        string
	Notes           string
	ActualExpense   decimal.Decimal
	ReferenceNumber string

	// PriorExpense is the expense this entry already holds on the ledger.
	// Zero on create; on edit it is added back before balance checks so the
	// entry's own previous draw-down is not counted twice.
	PriorExpense decimal.Decimal

	// OriginalAttachments is the persisted set captured at session start;
	// WorkingAttachments is the set at submit time.
	OriginalAttachments []models.Attachment
	WorkingAttachments  []models.Attachment
}

// EntryPayload is the single create/update request body. Items serialize as
// plain {name, pax, amount}; nothing derived is persisted per item.
type EntryPayload struct {
	Datetime                 string              `json:"datetime"`
	Notes                    *string             `json:"notes"`
	SelectedItems            []models.BudgetItem `json:"selected_items"`
	ProposedBudget           decimal.Decimal     `json:"proposed_budget"`
	ActualExpense            decimal.Decimal     `json:"actual_expense"`
	ReferenceNumber          *string             `json:"reference_number"`
	RemainingBalanceSnapshot decimal.Decimal     `json:"remaining_balance_snapshot"`
	Year                     string              `json:"year"`
	ProjectRef               *models.ProjectRef  `json:"project_ref"`
}

// Submission is the assembled result: one entry payload plus the file
// operations to sequence around it.
type Submission struct {
	Payload  EntryPayload
	ToUpload []models.Attachment
	ToDelete []string
	Warnings []string
}

// Assemble validates the form state and builds the submission. It performs
// no I/O. The submission is nil exactly when rejections are returned; the
// caller sequences the network calls (deletions, entry write, uploads).
func Assemble(in SubmissionInput) (*Submission, []Rejection) {
	var rejections []Rejection

	// Item gate. Only create submissions must introduce new spending; on
	// edit the recorded set is frozen and the commitment already exists.
	if in.Items != nil {
		if in.Items.State() == StateInvalid {
			rejections = append(rejections, reject(NoValidBudgetItems, "project",
				"selected project has no usable budget items"))
		} else if in.Mode == ModeCreate && !in.Items.HasUnrecordedItems() {
			rejections = append(rejections, reject(NoNewBudgetItems, "selected_items",
				"submission contains only already-recorded budget items"))
		}
	}

	rejections = append(rejections, ValidateEntryDate(in.Datetime, in.Year)...)
	rejections = append(rejections, ValidateExpense(in.Ledger, in.ActualExpense, in.PriorExpense)...)

	if len(rejections) > 0 {
		return nil, rejections
	}

	diff := BuildAttachmentDiff(in.OriginalAttachments, in.WorkingAttachments)

	var selected []models.BudgetItem
	proposed := decimal.Zero
	if in.Items != nil {
		selected = in.Items.SelectedItems()
		proposed = in.Items.ProposedBudget()
	}

	payload := EntryPayload{
		Datetime:                 in.Datetime,
		Notes:                    optional(in.Notes),
		SelectedItems:            selected,
		ProposedBudget:           proposed,
		ActualExpense:            in.ActualExpense,
		ReferenceNumber:          optional(in.ReferenceNumber),
		RemainingBalanceSnapshot: ProjectedRemaining(in.Ledger, in.ActualExpense, in.PriorExpense),
		Year:                     in.Year,
		ProjectRef:               in.ProjectRef,
	}

	return &Submission{
		Payload:  payload,
		ToUpload: diff.ToUpload,
		ToDelete: diff.ToDelete,
		Warnings: diff.Warnings,
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
