package model

// ReconciliationStatus tags the terminal outcome the reconciler attached to a
// transaction. Exactly one status is assigned per transaction.
type ReconciliationStatus string

const (
	// StatusNewTransaction means no duplicate or order match was found; the
	// candidate is ready to persist.
	StatusNewTransaction ReconciliationStatus = "new_transaction"
	// StatusIgnoredDuplicate means an exact duplicate already exists.
	StatusIgnoredDuplicate ReconciliationStatus = "ignored_duplicate"
	// StatusReconciledWithOrder means the payment was matched to a pending
	// e-commerce order.
	StatusReconciledWithOrder ReconciliationStatus = "reconciled_with_order"
	// StatusPotentialMatch flags a likely duplicate for human review.
	StatusPotentialMatch ReconciliationStatus = "potential_match"
	// StatusProcessingError means the candidate could not be classified.
	StatusProcessingError ReconciliationStatus = "processing_error"
)

// ProcessingAction tells the caller what to do with the transaction.
type ProcessingAction string

const (
	ActionReadyToSave      ProcessingAction = "ready_to_save"
	ActionIgnored          ProcessingAction = "ignored"
	ActionReconciled       ProcessingAction = "reconciled"
	ActionFlaggedForReview ProcessingAction = "flagged_for_review"
	ActionNone             ProcessingAction = "none"
)

// ReconciliationOutcome carries the status plus outcome-specific metadata:
// matched entity ids, similarity score and a human-readable reason.
// Degradations lists reconciler steps that failed and were treated as
// "no match" rather than aborting the candidate.
type ReconciliationOutcome struct {
	Status          ReconciliationStatus
	Action          ProcessingAction
	Reason          string
	DuplicateID     string
	SimilarID       string
	MatchedOrderID  string
	CustomerName    string
	Degradations    []string
	SimilarityScore float64
	AutoConfirmed   bool
}
