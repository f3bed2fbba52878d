package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Request validation errors
	CodeRequestMalformed Code = "REQUEST_MALFORMED"

	// Submission validation errors
	CodeSubmissionTitleEmpty       Code = "SUBMISSION_TITLE_EMPTY"
	CodeSubmissionOriginalRequired Code = "SUBMISSION_ORIGINAL_REQUIRED"
	CodeScoreOutOfRange            Code = "SCORE_OUT_OF_RANGE"
	CodeGradeUnknown               Code = "GRADE_UNKNOWN"
	CodeFeedbackTooLong            Code = "FEEDBACK_TOO_LONG"
	CodeCheckedArtifactRequired    Code = "CHECKED_ARTIFACT_REQUIRED"
	CodeActorRoleInvalid           Code = "ACTOR_ROLE_INVALID"

	// Lifecycle errors
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeAlreadyAssigned   Code = "ALREADY_ASSIGNED"

	// Access errors
	CodeForbidden    Code = "FORBIDDEN"
	CodeTokenInvalid Code = "TOKEN_INVALID"

	// Storage errors
	CodeNotFound           Code = "NOT_FOUND"
	CodeStoreUnavailable   Code = "STORE_UNAVAILABLE"
	CodeArtifactStoreError Code = "ARTIFACT_STORE_ERROR"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeRequestMalformed,
		CodeSubmissionTitleEmpty,
		CodeSubmissionOriginalRequired,
		CodeScoreOutOfRange,
		CodeGradeUnknown,
		CodeFeedbackTooLong,
		CodeCheckedArtifactRequired,
		CodeActorRoleInvalid:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeInvalidTransition:
		return codes.FailedPrecondition

	case CodeAlreadyAssigned:
		return codes.AlreadyExists

	case CodeForbidden:
		return codes.PermissionDenied

	case CodeTokenInvalid:
		return codes.Unauthenticated

	case CodeNotFound:
		return codes.NotFound

	case CodeStoreUnavailable, CodeArtifactStoreError:
		return codes.Unavailable

	default:
		return codes.Internal
	}
}

// HTTPStatus maps domain codes to HTTP status codes for the JSON transport.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeRequestMalformed,
		CodeSubmissionTitleEmpty,
		CodeSubmissionOriginalRequired,
		CodeScoreOutOfRange,
		CodeGradeUnknown,
		CodeFeedbackTooLong,
		CodeCheckedArtifactRequired,
		CodeActorRoleInvalid:
		return http.StatusBadRequest
	case CodeTokenInvalid:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidTransition, CodeAlreadyAssigned:
		return http.StatusConflict
	case CodeStoreUnavailable, CodeArtifactStoreError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
