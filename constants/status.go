package constants

// OutcomeStatus is the canonical status of one processed receipt.
type OutcomeStatus string

// Stable values (stored as-is in the journal).
const (
	StatusOK      OutcomeStatus = "OK"      // every ledger target written
	StatusPartial OutcomeStatus = "PARTIAL" // at least one target written, at least one failed
	StatusFailed  OutcomeStatus = "FAILED"  // nothing written
	StatusSkipped OutcomeStatus = "SKIPPED" // already in the journal
)

// ImageConfidenceThreshold flags OCR output whose heuristic confidence is low.
const ImageConfidenceThreshold = 0.6
