// Package engine implements the deterministic governance state machine.
//
// Every mutating operation takes the authenticated caller and the logical
// tick from the hosting replication layer as explicit parameters, validates
// its preconditions in a fixed order, and applies all of its record changes
// through a single atomic store call. On failure nothing is mutated and a
// typed error is returned, so identical action sequences always produce
// identical state. Each successful mutation returns exactly one domain
// event for the caller to forward to a journal or indexing sink.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	apperrors "github.com/openquorum/govledger/internal/platform/errors"
	"github.com/openquorum/govledger/internal/services/governance/domain/event"
	"github.com/openquorum/govledger/internal/services/governance/domain/proposal"
	"github.com/openquorum/govledger/internal/services/governance/domain/token"
	"github.com/openquorum/govledger/internal/services/governance/domain/vote"
	"github.com/openquorum/govledger/internal/services/governance/storage"
)

// Engine orchestrates governance operations against a Store.
//
// Mutating operations are serialized behind a single mutex: the hosting
// layer already presents calls one at a time, and the global sequencing
// point keeps the read-validate-apply cycle atomic even when it does not.
type Engine struct {
	store storage.Store
	cfg   Config

	mu sync.Mutex
}

// New builds an Engine over the given store. The config's owner principal
// is required; zero policy values fall back to the defaults.
func New(store storage.Store, cfg Config) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if strings.TrimSpace(cfg.Owner) == "" {
		return nil, fmt.Errorf("owner principal is required")
	}
	return &Engine{store: store, cfg: cfg.withDefaults()}, nil
}

// Config returns the policy the engine was constructed with, defaults
// applied.
func (e *Engine) Config() Config {
	return e.cfg
}

// Mint credits amount tokens to recipient and grows the total supply.
// Only the owner principal may mint. A zero amount is a legal no-op mint.
func (e *Engine) Mint(ctx context.Context, caller, recipient string, amount uint64) (event.Event, error) {
	if strings.TrimSpace(recipient) == "" {
		return event.Event{}, apperrors.New(apperrors.CodeInvalidArgument, "mint recipient is required")
	}
	if caller != e.cfg.Owner {
		return event.Event{}, apperrors.WithMetadata(apperrors.CodeUnauthorized,
			"only the owner can mint tokens",
			map[string]string{"caller": caller})
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	account, err := e.store.GetTokenAccount(ctx, recipient)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return event.Event{}, fmt.Errorf("get recipient account: %w", err)
		}
		account = token.Account{Principal: recipient}
	}

	state, err := e.store.GetLedgerState(ctx)
	if err != nil {
		return event.Event{}, fmt.Errorf("get ledger state: %w", err)
	}

	account.Balance += amount
	if err := e.store.ApplyMint(ctx, account, state.TotalTokens+amount); err != nil {
		return event.Event{}, fmt.Errorf("apply mint: %w", err)
	}
	return event.NewTokensMinted(recipient, amount), nil
}

// Delegate routes the caller's current balance to delegate's accumulated
// voting power and records the delegation target on the caller's account.
//
// The accumulation is additive-only: delegating again, to any target,
// credits the caller's balance at that instant without reversing earlier
// credits. This matches the source deployment and is deliberate.
func (e *Engine) Delegate(ctx context.Context, caller, delegate string) (event.Event, error) {
	if strings.TrimSpace(delegate) == "" {
		return event.Event{}, apperrors.New(apperrors.CodeInvalidArgument, "delegate principal is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	account, err := e.store.GetTokenAccount(ctx, caller)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return event.Event{}, apperrors.WithMetadata(apperrors.CodeInsufficientTokens,
				"caller has no token account",
				map[string]string{"caller": caller})
		}
		return event.Event{}, fmt.Errorf("get caller account: %w", err)
	}

	power, err := e.store.GetDelegatedPower(ctx, delegate)
	if err != nil {
		return event.Event{}, fmt.Errorf("get delegated power: %w", err)
	}

	account.DelegatedTo = delegate
	if err := e.store.ApplyDelegation(ctx, account, delegate, power+account.Balance); err != nil {
		return event.Event{}, fmt.Errorf("apply delegation: %w", err)
	}
	return event.NewPowerDelegated(caller, delegate), nil
}

// CreateProposal stores a new active proposal and returns its assigned id.
// The id advances only on success, so failed attempts never consume one.
func (e *Engine) CreateProposal(ctx context.Context, caller string, now uint64, input proposal.Input) (uint64, event.Event, error) {
	if err := proposal.ValidateInput(caller, input); err != nil {
		return 0, event.Event{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	account, err := e.store.GetTokenAccount(ctx, caller)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			account = token.Account{Principal: caller}
		} else {
			return 0, event.Event{}, fmt.Errorf("get proposer account: %w", err)
		}
	}
	if account.Balance < e.cfg.MinTokensToPropose {
		return 0, event.Event{}, apperrors.WithMetadata(apperrors.CodeInsufficientTokens,
			"balance below the proposal minimum",
			map[string]string{
				"caller":   caller,
				"balance":  strconv.FormatUint(account.Balance, 10),
				"required": strconv.FormatUint(e.cfg.MinTokensToPropose, 10),
			})
	}

	state, err := e.store.GetLedgerState(ctx)
	if err != nil {
		return 0, event.Event{}, fmt.Errorf("get ledger state: %w", err)
	}

	prop := proposal.New(state.NextProposalID, caller, input, now, e.cfg.VotingPeriodTicks)
	account.ProposalsCreated++
	if err := e.store.ApplyProposalCreated(ctx, prop, account, prop.ID+1); err != nil {
		return 0, event.Event{}, fmt.Errorf("apply proposal created: %w", err)
	}
	return prop.ID, event.NewProposalCreated(prop.ID, caller), nil
}

// CastVote records the caller's vote on a proposal with their effective
// voting power snapshotted at this instant.
//
// Preconditions are checked in order and the first violation wins: the
// proposal exists, is active, the window is open (now at or before
// voting-ends-at), the caller has not voted, and the caller has power.
// An unrecognized vote label is still recorded, and blocks re-voting,
// but moves no tally unless strict vote choices are enabled.
func (e *Engine) CastVote(ctx context.Context, caller string, now uint64, proposalID uint64, choice vote.Choice) (event.Event, error) {
	if strings.TrimSpace(caller) == "" {
		return event.Event{}, apperrors.New(apperrors.CodeInvalidArgument, "voter principal is required")
	}
	if e.cfg.StrictVoteChoices && !choice.Known() {
		return event.Event{}, apperrors.WithMetadata(apperrors.CodeInvalidVoteChoice,
			"unrecognized vote choice",
			map[string]string{"choice": string(choice)})
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	prop, err := e.getProposal(ctx, proposalID)
	if err != nil {
		return event.Event{}, err
	}
	if prop.Status != proposal.StatusActive {
		return event.Event{}, apperrors.WithMetadata(apperrors.CodeVotingClosed,
			"proposal is not active",
			map[string]string{"proposal_id": strconv.FormatUint(proposalID, 10), "status": string(prop.Status)})
	}
	if now > prop.VotingEndsAt {
		return event.Event{}, apperrors.WithMetadata(apperrors.CodeVotingClosed,
			"voting window has closed",
			map[string]string{"proposal_id": strconv.FormatUint(proposalID, 10)})
	}

	if _, err := e.store.GetVote(ctx, proposalID, caller); err == nil {
		return event.Event{}, apperrors.WithMetadata(apperrors.CodeAlreadyVoted,
			"caller already voted on this proposal",
			map[string]string{"proposal_id": strconv.FormatUint(proposalID, 10), "voter": caller})
	} else if !errors.Is(err, storage.ErrNotFound) {
		return event.Event{}, fmt.Errorf("get vote: %w", err)
	}

	account, err := e.store.GetTokenAccount(ctx, caller)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			account = token.Account{Principal: caller}
		} else {
			return event.Event{}, fmt.Errorf("get voter account: %w", err)
		}
	}
	delegatedIn, err := e.store.GetDelegatedPower(ctx, caller)
	if err != nil {
		return event.Event{}, fmt.Errorf("get delegated power: %w", err)
	}
	power := token.EffectivePower(account.Balance, delegatedIn)
	if power == 0 {
		return event.Event{}, apperrors.WithMetadata(apperrors.CodeInsufficientTokens,
			"caller has no voting power",
			map[string]string{"voter": caller})
	}

	switch choice {
	case vote.ChoiceFor:
		prop.Tally.For += power
	case vote.ChoiceAgainst:
		prop.Tally.Against += power
	case vote.ChoiceAbstain:
		prop.Tally.Abstain += power
	}

	record := vote.Record{
		ProposalID: proposalID,
		Voter:      caller,
		Choice:     choice,
		Power:      power,
		VotedAt:    now,
	}
	account.VotesCast++
	if err := e.store.ApplyVote(ctx, record, prop, account); err != nil {
		return event.Event{}, fmt.Errorf("apply vote: %w", err)
	}
	return event.NewVoteCast(proposalID, caller, string(choice)), nil
}

// FinalizeProposal decides an active proposal strictly after its voting
// window closes and returns whether it passed. The transition out of
// active is terminal; finalizing again fails.
func (e *Engine) FinalizeProposal(ctx context.Context, now uint64, proposalID uint64) (bool, event.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prop, err := e.getProposal(ctx, proposalID)
	if err != nil {
		return false, event.Event{}, err
	}
	if prop.Status != proposal.StatusActive {
		return false, event.Event{}, apperrors.WithMetadata(apperrors.CodeAlreadyExecuted,
			"proposal is already finalized",
			map[string]string{"proposal_id": strconv.FormatUint(proposalID, 10), "status": string(prop.Status)})
	}
	if now <= prop.VotingEndsAt {
		return false, event.Event{}, apperrors.WithMetadata(apperrors.CodeVotingClosed,
			"voting window is still open",
			map[string]string{"proposal_id": strconv.FormatUint(proposalID, 10)})
	}

	passed := prop.Tally.Passes(e.cfg.QuorumThreshold, e.cfg.ApprovalThresholdPct)
	if passed {
		prop.Status = proposal.StatusPassed
	} else {
		prop.Status = proposal.StatusRejected
	}
	if err := e.store.ApplyProposalDecided(ctx, prop); err != nil {
		return false, event.Event{}, fmt.Errorf("apply proposal decided: %w", err)
	}
	return passed, event.NewProposalDecided(proposalID, passed), nil
}

// ExecuteProposal marks a passed proposal executed. Treasury proposals
// additionally debit the treasury by the requested amount; the actual fund
// movement to the recipient belongs to the hosting asset-transfer layer,
// the engine only authorizes and accounts for it. Execution succeeds at
// most once per proposal.
func (e *Engine) ExecuteProposal(ctx context.Context, now uint64, proposalID uint64) (event.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prop, err := e.getProposal(ctx, proposalID)
	if err != nil {
		return event.Event{}, err
	}
	if prop.Status == proposal.StatusExecuted || prop.ExecutedAt != nil {
		return event.Event{}, apperrors.WithMetadata(apperrors.CodeAlreadyExecuted,
			"proposal is already executed",
			map[string]string{"proposal_id": strconv.FormatUint(proposalID, 10)})
	}
	if prop.Status != proposal.StatusPassed {
		return event.Event{}, apperrors.WithMetadata(apperrors.CodeProposalNotPassed,
			"proposal has not passed",
			map[string]string{"proposal_id": strconv.FormatUint(proposalID, 10), "status": string(prop.Status)})
	}

	executedAt := now
	prop.Status = proposal.StatusExecuted
	prop.ExecutedAt = &executedAt

	if prop.Kind != proposal.KindTreasury {
		if err := e.store.ApplyProposalExecuted(ctx, prop, nil); err != nil {
			return event.Event{}, fmt.Errorf("apply proposal executed: %w", err)
		}
		return event.NewProposalExecuted(proposalID, nil), nil
	}

	state, err := e.store.GetLedgerState(ctx)
	if err != nil {
		return event.Event{}, fmt.Errorf("get ledger state: %w", err)
	}
	if state.TreasuryBalance < prop.AmountRequested {
		return event.Event{}, apperrors.WithMetadata(apperrors.CodeInsufficientTokens,
			"treasury balance below the requested amount",
			map[string]string{
				"proposal_id": strconv.FormatUint(proposalID, 10),
				"balance":     strconv.FormatUint(state.TreasuryBalance, 10),
				"requested":   strconv.FormatUint(prop.AmountRequested, 10),
			})
	}

	remaining := state.TreasuryBalance - prop.AmountRequested
	if err := e.store.ApplyProposalExecuted(ctx, prop, &remaining); err != nil {
		return event.Event{}, fmt.Errorf("apply proposal executed: %w", err)
	}
	amount := prop.AmountRequested
	return event.NewProposalExecuted(proposalID, &amount), nil
}

// DepositTreasury credits amount to the treasury. Any caller is permitted.
func (e *Engine) DepositTreasury(ctx context.Context, caller string, amount uint64) (event.Event, error) {
	if strings.TrimSpace(caller) == "" {
		return event.Event{}, apperrors.New(apperrors.CodeInvalidArgument, "depositor principal is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.store.GetLedgerState(ctx)
	if err != nil {
		return event.Event{}, fmt.Errorf("get ledger state: %w", err)
	}
	if err := e.store.ApplyTreasuryDeposit(ctx, state.TreasuryBalance+amount); err != nil {
		return event.Event{}, fmt.Errorf("apply treasury deposit: %w", err)
	}
	return event.NewTreasuryDeposit(caller, amount), nil
}

// GetProposal returns a proposal by id.
func (e *Engine) GetProposal(ctx context.Context, proposalID uint64) (proposal.Proposal, error) {
	return e.getProposal(ctx, proposalID)
}

// GetVote returns the vote a principal cast on a proposal.
func (e *Engine) GetVote(ctx context.Context, proposalID uint64, voter string) (vote.Record, error) {
	record, err := e.store.GetVote(ctx, proposalID, voter)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return vote.Record{}, apperrors.WithMetadata(apperrors.CodeNotFound,
				"vote not found",
				map[string]string{"proposal_id": strconv.FormatUint(proposalID, 10), "voter": voter})
		}
		return vote.Record{}, fmt.Errorf("get vote: %w", err)
	}
	return record, nil
}

// GetTokenAccount returns a principal's token account. A principal that
// never held tokens reads as an empty account rather than an error.
func (e *Engine) GetTokenAccount(ctx context.Context, principal string) (token.Account, error) {
	account, err := e.store.GetTokenAccount(ctx, principal)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return token.Account{Principal: principal}, nil
		}
		return token.Account{}, fmt.Errorf("get token account: %w", err)
	}
	return account, nil
}

// Stats is the ledger-wide summary returned by GetStats.
type Stats struct {
	TreasuryBalance uint64
	TotalTokens     uint64
	TotalProposals  uint64
}

// GetStats returns the treasury balance, the total token supply, and the
// number of proposals created so far.
func (e *Engine) GetStats(ctx context.Context) (Stats, error) {
	state, err := e.store.GetLedgerState(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("get ledger state: %w", err)
	}
	return Stats{
		TreasuryBalance: state.TreasuryBalance,
		TotalTokens:     state.TotalTokens,
		TotalProposals:  state.NextProposalID - 1,
	}, nil
}

func (e *Engine) getProposal(ctx context.Context, proposalID uint64) (proposal.Proposal, error) {
	prop, err := e.store.GetProposal(ctx, proposalID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return proposal.Proposal{}, apperrors.WithMetadata(apperrors.CodeNotFound,
				"proposal not found",
				map[string]string{"proposal_id": strconv.FormatUint(proposalID, 10)})
		}
		return proposal.Proposal{}, fmt.Errorf("get proposal: %w", err)
	}
	return prop, nil
}
