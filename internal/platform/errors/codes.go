// Package errors provides structured error handling for the governance ledger.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeUnauthorized indicates the caller lacks the required privilege,
	// for example a non-owner attempting to mint tokens.
	CodeUnauthorized Code = "UNAUTHORIZED"

	// CodeNotFound indicates a referenced proposal, vote, or account is absent.
	CodeNotFound Code = "NOT_FOUND"

	// CodeAlreadyVoted indicates a duplicate vote attempt on one proposal.
	CodeAlreadyVoted Code = "ALREADY_VOTED"

	// CodeVotingClosed indicates an action attempted outside the active
	// voting window, including finalizing before the window has closed.
	CodeVotingClosed Code = "VOTING_CLOSED"

	// CodeProposalNotPassed indicates execution attempted on a proposal
	// that has not passed.
	CodeProposalNotPassed Code = "PROPOSAL_NOT_PASSED"

	// CodeAlreadyExecuted indicates a duplicate finalize or execute attempt.
	CodeAlreadyExecuted Code = "ALREADY_EXECUTED"

	// CodeInsufficientTokens indicates a balance, voting power, or treasury
	// amount below the required threshold.
	CodeInsufficientTokens Code = "INSUFFICIENT_TOKENS"

	// CodeInvalidVoteChoice indicates an unrecognized vote choice label when
	// the engine runs with strict vote choices enabled.
	CodeInvalidVoteChoice Code = "INVALID_VOTE_CHOICE"

	// CodeInvalidArgument indicates malformed input such as an empty
	// principal or an over-length proposal field.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
)

// GRPCCode maps domain codes to gRPC status codes for the hosting layer.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeInvalidVoteChoice,
		CodeInvalidArgument:
		return codes.InvalidArgument

	// PermissionDenied - caller lacks required privilege
	case CodeUnauthorized:
		return codes.PermissionDenied

	// FailedPrecondition - ledger state doesn't allow the operation
	case CodeAlreadyVoted,
		CodeVotingClosed,
		CodeProposalNotPassed,
		CodeAlreadyExecuted,
		CodeInsufficientTokens:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	default:
		return codes.Internal
	}
}
