// Package memory provides an in-memory governance store for tests and
// ephemeral replays.
package memory

import (
	"context"
	"sync"

	"github.com/openquorum/govledger/internal/services/governance/domain/proposal"
	"github.com/openquorum/govledger/internal/services/governance/domain/token"
	"github.com/openquorum/govledger/internal/services/governance/domain/vote"
	"github.com/openquorum/govledger/internal/services/governance/storage"
)

type voteKey struct {
	proposalID uint64
	voter      string
}

// Store keeps all governance state in process memory. It implements the
// full storage.Store contract with the same atomicity guarantees as the
// durable stores: each Apply method mutates under one lock acquisition.
type Store struct {
	mu        sync.RWMutex
	proposals map[uint64]proposal.Proposal
	votes     map[voteKey]vote.Record
	accounts  map[string]token.Account
	power     map[string]uint64
	state     storage.LedgerState
}

// New creates an empty in-memory store with default ledger state.
func New() *Store {
	return &Store{
		proposals: make(map[uint64]proposal.Proposal),
		votes:     make(map[voteKey]vote.Record),
		accounts:  make(map[string]token.Account),
		power:     make(map[string]uint64),
		state:     storage.LedgerState{NextProposalID: 1},
	}
}

// copyProposal detaches the ExecutedAt pointer so callers cannot alias
// store-owned state.
func copyProposal(p proposal.Proposal) proposal.Proposal {
	if p.ExecutedAt != nil {
		executedAt := *p.ExecutedAt
		p.ExecutedAt = &executedAt
	}
	return p
}

// GetTokenAccount fetches one token account.
func (s *Store) GetTokenAccount(ctx context.Context, principal string) (token.Account, error) {
	if err := ctx.Err(); err != nil {
		return token.Account{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[principal]
	if !ok {
		return token.Account{}, storage.ErrNotFound
	}
	return account, nil
}

// GetDelegatedPower returns accumulated delegated power, zero when absent.
func (s *Store) GetDelegatedPower(ctx context.Context, principal string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.power[principal], nil
}

// ApplyMint persists the credited account and new total supply.
func (s *Store) ApplyMint(ctx context.Context, account token.Account, totalTokens uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.Principal] = account
	s.state.TotalTokens = totalTokens
	return nil
}

// ApplyDelegation persists the delegator account and delegate power.
func (s *Store) ApplyDelegation(ctx context.Context, delegator token.Account, delegate string, aggregatedPower uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[delegator.Principal] = delegator
	s.power[delegate] = aggregatedPower
	return nil
}

// GetProposal fetches one proposal by id.
func (s *Store) GetProposal(ctx context.Context, id uint64) (proposal.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return proposal.Proposal{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	prop, ok := s.proposals[id]
	if !ok {
		return proposal.Proposal{}, storage.ErrNotFound
	}
	return copyProposal(prop), nil
}

// ApplyProposalCreated persists the proposal, proposer, and advanced id.
func (s *Store) ApplyProposalCreated(ctx context.Context, prop proposal.Proposal, proposer token.Account, nextProposalID uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[prop.ID] = copyProposal(prop)
	s.accounts[proposer.Principal] = proposer
	s.state.NextProposalID = nextProposalID
	return nil
}

// ApplyProposalDecided persists the finalized proposal.
func (s *Store) ApplyProposalDecided(ctx context.Context, prop proposal.Proposal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[prop.ID] = copyProposal(prop)
	return nil
}

// ApplyProposalExecuted persists the executed proposal and optional debit.
func (s *Store) ApplyProposalExecuted(ctx context.Context, prop proposal.Proposal, treasuryBalance *uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[prop.ID] = copyProposal(prop)
	if treasuryBalance != nil {
		s.state.TreasuryBalance = *treasuryBalance
	}
	return nil
}

// GetVote fetches one vote record.
func (s *Store) GetVote(ctx context.Context, proposalID uint64, voter string) (vote.Record, error) {
	if err := ctx.Err(); err != nil {
		return vote.Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.votes[voteKey{proposalID: proposalID, voter: voter}]
	if !ok {
		return vote.Record{}, storage.ErrNotFound
	}
	return record, nil
}

// ApplyVote persists the vote record, updated tallies, and voter counters.
func (s *Store) ApplyVote(ctx context.Context, record vote.Record, prop proposal.Proposal, voter token.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes[voteKey{proposalID: record.ProposalID, voter: record.Voter}] = record
	s.proposals[prop.ID] = copyProposal(prop)
	s.accounts[voter.Principal] = voter
	return nil
}

// ApplyTreasuryDeposit persists the new treasury balance.
func (s *Store) ApplyTreasuryDeposit(ctx context.Context, treasuryBalance uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.TreasuryBalance = treasuryBalance
	return nil
}

// GetLedgerState returns the scalar counters.
func (s *Store) GetLedgerState(ctx context.Context) (storage.LedgerState, error) {
	if err := ctx.Err(); err != nil {
		return storage.LedgerState{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, nil
}
