// Package proposal models governance proposals and their lifecycle.
package proposal

import (
	"strings"

	apperrors "github.com/openquorum/govledger/internal/platform/errors"
)

// Bounded-length limits for proposal text fields.
const (
	MaxTitleLength       = 128
	MaxDescriptionLength = 512
	MaxKindLength        = 32
)

var (
	// ErrEmptyProposer indicates a missing proposer principal.
	ErrEmptyProposer = apperrors.New(apperrors.CodeInvalidArgument, "proposer principal is required")
	// ErrTitleTooLong indicates a title over the bounded length.
	ErrTitleTooLong = apperrors.New(apperrors.CodeInvalidArgument, "proposal title exceeds maximum length")
	// ErrDescriptionTooLong indicates a description over the bounded length.
	ErrDescriptionTooLong = apperrors.New(apperrors.CodeInvalidArgument, "proposal description exceeds maximum length")
	// ErrKindTooLong indicates a proposal kind label over the bounded length.
	ErrKindTooLong = apperrors.New(apperrors.CodeInvalidArgument, "proposal kind exceeds maximum length")
)

// Kind is the free-form proposal kind label. Only KindTreasury carries
// engine-level semantics; every other label executes with no treasury effect.
type Kind string

// KindTreasury marks proposals that debit the treasury on execution.
const KindTreasury Kind = "treasury"

// Proposal is one governance proposal record. Records are created once,
// mutated only by voting, finalization, and execution, and never deleted.
type Proposal struct {
	ID              uint64
	Proposer        string
	Title           string
	Description     string
	Kind            Kind
	AmountRequested uint64
	// Recipient is the optional principal treasury funds are authorized for.
	Recipient string
	Tally     Tally
	Status    Status
	// CreatedAt is the tick the proposal was created at.
	CreatedAt uint64
	// VotingEndsAt is fixed at creation and never changed.
	VotingEndsAt uint64
	// ExecutedAt is set at most once, when status becomes executed.
	ExecutedAt *uint64
}

// Input describes the caller-supplied fields of a new proposal.
type Input struct {
	Title           string
	Description     string
	Kind            Kind
	AmountRequested uint64
	Recipient       string
}

// ValidateInput enforces the bounded-length text limits.
func ValidateInput(proposer string, input Input) error {
	if strings.TrimSpace(proposer) == "" {
		return ErrEmptyProposer
	}
	if len(input.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if len(input.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if len(input.Kind) > MaxKindLength {
		return ErrKindTooLong
	}
	return nil
}

// New builds an active proposal from validated input. The id comes from the
// ledger's monotonic counter and is allocated only on success.
func New(id uint64, proposer string, input Input, now uint64, votingPeriodTicks uint64) Proposal {
	return Proposal{
		ID:              id,
		Proposer:        proposer,
		Title:           input.Title,
		Description:     input.Description,
		Kind:            input.Kind,
		AmountRequested: input.AmountRequested,
		Recipient:       input.Recipient,
		Status:          StatusActive,
		CreatedAt:       now,
		VotingEndsAt:    now + votingPeriodTicks,
	}
}
