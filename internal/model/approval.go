package model

// ApprovalState is the review state of a seller application. Historically the
// sellers table carried two copies of this value (status and approval_status)
// that were meant to move in lockstep but were updated independently by some
// code paths. The login gate reconciles the pair instead of trusting either
// column alone.
type ApprovalState string

const (
	ApprovalUnset    ApprovalState = ""
	ApprovalPending  ApprovalState = "pending"
	ApprovalApproved ApprovalState = "approved"
	ApprovalRejected ApprovalState = "rejected"
)

// NormalizeApproval maps a raw column value to an ApprovalState. Anything that
// is not one of the three known states collapses to ApprovalUnset, so a
// corrupted value is surfaced as an inconsistency rather than misread.
func NormalizeApproval(raw string) ApprovalState {
	switch ApprovalState(raw) {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return ApprovalState(raw)
	default:
		return ApprovalUnset
	}
}
