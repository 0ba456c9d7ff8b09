// Package storage defines persistence contracts for governance ledger state.
//
// Every mutating engine operation maps to exactly one Apply method, and each
// Apply method persists all of that operation's record changes atomically:
// either every row lands or none do. Reads never mutate.
package storage

import (
	"context"

	apperrors "github.com/openquorum/govledger/internal/platform/errors"
	"github.com/openquorum/govledger/internal/services/governance/domain/event"
	"github.com/openquorum/govledger/internal/services/governance/domain/proposal"
	"github.com/openquorum/govledger/internal/services/governance/domain/token"
	"github.com/openquorum/govledger/internal/services/governance/domain/vote"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate legitimate "no such entity" states
// from transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// LedgerState captures the process-wide scalar counters. The state is
// initialized once at startup to zero/defaults and owned by the store.
type LedgerState struct {
	// TreasuryBalance is the single conserved treasury balance.
	TreasuryBalance uint64
	// NextProposalID is the next id to assign, starting at 1. It advances
	// only when a proposal is successfully created.
	NextProposalID uint64
	// TotalTokens is the monotonically increasing token supply.
	TotalTokens uint64
}

// TokenStore persists token accounts and accumulated delegation power.
type TokenStore interface {
	GetTokenAccount(ctx context.Context, principal string) (token.Account, error)
	// GetDelegatedPower returns the power accumulated by a delegate.
	// A principal nobody delegated to has zero power, not ErrNotFound.
	GetDelegatedPower(ctx context.Context, principal string) (uint64, error)
	// ApplyMint atomically persists the credited account and the new
	// total token supply.
	ApplyMint(ctx context.Context, account token.Account, totalTokens uint64) error
	// ApplyDelegation atomically persists the delegator's account and the
	// delegate's new accumulated power.
	ApplyDelegation(ctx context.Context, delegator token.Account, delegate string, aggregatedPower uint64) error
}

// ProposalStore persists proposal records and their lifecycle status.
type ProposalStore interface {
	GetProposal(ctx context.Context, id uint64) (proposal.Proposal, error)
	// ApplyProposalCreated atomically persists the new proposal, the
	// proposer's updated counters, and the advanced next proposal id.
	ApplyProposalCreated(ctx context.Context, prop proposal.Proposal, proposer token.Account, nextProposalID uint64) error
	// ApplyProposalDecided persists the terminal passed/rejected status.
	ApplyProposalDecided(ctx context.Context, prop proposal.Proposal) error
	// ApplyProposalExecuted atomically persists the executed proposal and,
	// when treasuryBalance is non-nil, the debited treasury balance.
	ApplyProposalExecuted(ctx context.Context, prop proposal.Proposal, treasuryBalance *uint64) error
}

// VoteStore persists immutable vote records.
type VoteStore interface {
	GetVote(ctx context.Context, proposalID uint64, voter string) (vote.Record, error)
	// ApplyVote atomically persists the vote record, the proposal's
	// updated tallies, and the voter's updated counters.
	ApplyVote(ctx context.Context, record vote.Record, prop proposal.Proposal, voter token.Account) error
}

// TreasuryStore persists the treasury balance scalar.
type TreasuryStore interface {
	// ApplyTreasuryDeposit persists the new treasury balance.
	ApplyTreasuryDeposit(ctx context.Context, treasuryBalance uint64) error
}

// StateStore reads the process-wide scalar counters.
type StateStore interface {
	GetLedgerState(ctx context.Context) (LedgerState, error)
}

// Store is the full persistence surface the governance engine runs against.
type Store interface {
	TokenStore
	ProposalStore
	VoteStore
	TreasuryStore
	StateStore
}

// JournalEntry is one appended event with its assigned sequence.
type JournalEntry struct {
	Sequence uint64
	Event    event.Event
}

// EventJournal persists the ordered append-only log of emitted events.
// Sequences start at 1 and increase monotonically without gaps.
type EventJournal interface {
	AppendEvent(ctx context.Context, evt event.Event) (uint64, error)
	// ListEvents returns up to limit entries with sequence > afterSequence,
	// in ascending sequence order.
	ListEvents(ctx context.Context, afterSequence uint64, limit int) ([]JournalEntry, error)
	LastSequence(ctx context.Context) (uint64, error)
}
