package service

import "github.com/ecoloopkenya/ecoloop/internal/model"

// EvaluateApproval reconciles a seller's two approval columns into a
// single login decision. Rejection on either column wins outright and
// only the fully approved pair is allowed through. A record where the
// columns disagree and one of them reads approved is the partial-write
// failure mode, reported as inconsistent so operators can tell it
// apart from an application that was simply never reviewed.
func EvaluateApproval(status, approvalStatus model.ApprovalState) error {
	if status == model.ApprovalRejected || approvalStatus == model.ApprovalRejected {
		return ErrRejected
	}
	if status == model.ApprovalApproved && approvalStatus == model.ApprovalApproved {
		return nil
	}
	if status == model.ApprovalApproved || approvalStatus == model.ApprovalApproved {
		return ErrInconsistentApproval
	}
	if status == model.ApprovalPending || approvalStatus == model.ApprovalPending {
		return ErrPendingApproval
	}
	return ErrInconsistentApproval
}
