package domain

// Operation names one policy-checked action against a submission.
type Operation string

const (
	// OpRead covers reading a submission or its artifacts.
	OpRead Operation = "read"
	// OpCreate covers creating a new submission.
	OpCreate Operation = "create"
	// OpClaim covers a reviewer taking ownership of a submission.
	OpClaim Operation = "claim"
	// OpDecline covers rejecting an unclaimed submission.
	OpDecline Operation = "decline"
	// OpFinalize covers returning a graded result.
	OpFinalize Operation = "finalize"
)

// CanAccess decides whether the actor may perform op against the submission.
// The policy is stateless and must be re-evaluated on every operation; it is
// never cached across requests.
func CanAccess(actor Actor, s Submission, op Operation) bool {
	if actor.ID == "" || !actor.Role.Valid() {
		return false
	}

	switch actor.Role {
	case RoleRequester:
		switch op {
		case OpCreate:
			return true
		case OpRead:
			return s.RequesterID == actor.ID
		default:
			// Requesters never mutate lifecycle state after creation.
			return false
		}

	case RoleReviewer:
		switch op {
		case OpRead:
			// Unclaimed submissions are visible for claiming; otherwise
			// only the assigned reviewer sees the submission.
			return s.State == StateSubmitted || s.ReviewerID == actor.ID
		case OpClaim, OpDecline:
			return s.State == StateSubmitted
		case OpFinalize:
			return s.ReviewerID == actor.ID
		default:
			return false
		}
	}
	return false
}
