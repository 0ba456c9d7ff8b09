// Package sqlite provides the durable SQLite-backed governance store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sqlitemigrate "github.com/openquorum/govledger/internal/platform/storage/sqlitemigrate"
	"github.com/openquorum/govledger/internal/services/governance/domain/proposal"
	"github.com/openquorum/govledger/internal/services/governance/domain/token"
	"github.com/openquorum/govledger/internal/services/governance/domain/vote"
	"github.com/openquorum/govledger/internal/services/governance/storage"
	"github.com/openquorum/govledger/internal/services/governance/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for governance ledger state.
type Store struct {
	sqlDB *sql.DB
}

// execer abstracts *sql.DB and *sql.Tx for shared write helpers.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Open opens a governance SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS, "")
}

func (s *Store) ready() error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// withTx runs fn inside one transaction, rolling back on any failure so the
// engine's per-operation atomicity guarantee holds.
func (s *Store) withTx(ctx context.Context, label string, fn func(tx *sql.Tx) error) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s write: %w", label, err)
	}
	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback %s write: %v", err, label, rollbackErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s write: %w", label, err)
	}
	return nil
}

func toNullTick(value *uint64) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func fromNullTick(value sql.NullInt64) *uint64 {
	if !value.Valid {
		return nil
	}
	tick := uint64(value.Int64)
	return &tick
}

// GetTokenAccount fetches one token account by principal.
func (s *Store) GetTokenAccount(ctx context.Context, principal string) (token.Account, error) {
	if err := ctx.Err(); err != nil {
		return token.Account{}, err
	}
	if err := s.ready(); err != nil {
		return token.Account{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT principal, balance, delegated_to, proposals_created, votes_cast
FROM token_accounts
WHERE principal = ?
`, principal)

	var account token.Account
	err := row.Scan(&account.Principal, &account.Balance, &account.DelegatedTo, &account.ProposalsCreated, &account.VotesCast)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return token.Account{}, storage.ErrNotFound
		}
		return token.Account{}, fmt.Errorf("get token account: %w", err)
	}
	return account, nil
}

// GetDelegatedPower returns accumulated delegated power, zero when absent.
func (s *Store) GetDelegatedPower(ctx context.Context, principal string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.ready(); err != nil {
		return 0, err
	}

	var power uint64
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT aggregated_power FROM delegation_power WHERE principal = ?
`, principal).Scan(&power)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get delegated power: %w", err)
	}
	return power, nil
}

func putAccountExec(ctx context.Context, db execer, account token.Account) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO token_accounts (principal, balance, delegated_to, proposals_created, votes_cast)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(principal) DO UPDATE SET
    balance = excluded.balance,
    delegated_to = excluded.delegated_to,
    proposals_created = excluded.proposals_created,
    votes_cast = excluded.votes_cast
`, account.Principal, account.Balance, account.DelegatedTo, account.ProposalsCreated, account.VotesCast)
	if err != nil {
		return fmt.Errorf("put token account: %w", err)
	}
	return nil
}

func putProposalExec(ctx context.Context, db execer, prop proposal.Proposal) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO proposals (
    id, proposer, title, description, kind, amount_requested, recipient,
    votes_for, votes_against, votes_abstain, status, created_at, voting_ends_at, executed_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    votes_for = excluded.votes_for,
    votes_against = excluded.votes_against,
    votes_abstain = excluded.votes_abstain,
    status = excluded.status,
    executed_at = excluded.executed_at
`, int64(prop.ID), prop.Proposer, prop.Title, prop.Description, string(prop.Kind),
		prop.AmountRequested, prop.Recipient,
		prop.Tally.For, prop.Tally.Against, prop.Tally.Abstain,
		string(prop.Status), prop.CreatedAt, prop.VotingEndsAt, toNullTick(prop.ExecutedAt))
	if err != nil {
		return fmt.Errorf("put proposal: %w", err)
	}
	return nil
}

// ApplyMint atomically persists the credited account and the total supply.
func (s *Store) ApplyMint(ctx context.Context, account token.Account, totalTokens uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	return s.withTx(ctx, "mint", func(tx *sql.Tx) error {
		if err := putAccountExec(ctx, tx, account); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE ledger_state SET total_tokens = ? WHERE id = 1
`, totalTokens); err != nil {
			return fmt.Errorf("update token supply: %w", err)
		}
		return nil
	})
}

// ApplyDelegation atomically persists the delegator and delegate power.
func (s *Store) ApplyDelegation(ctx context.Context, delegator token.Account, delegate string, aggregatedPower uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	return s.withTx(ctx, "delegation", func(tx *sql.Tx) error {
		if err := putAccountExec(ctx, tx, delegator); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO delegation_power (principal, aggregated_power)
VALUES (?, ?)
ON CONFLICT(principal) DO UPDATE SET aggregated_power = excluded.aggregated_power
`, delegate, aggregatedPower); err != nil {
			return fmt.Errorf("put delegation power: %w", err)
		}
		return nil
	})
}

// GetProposal fetches one proposal by id.
func (s *Store) GetProposal(ctx context.Context, id uint64) (proposal.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return proposal.Proposal{}, err
	}
	if err := s.ready(); err != nil {
		return proposal.Proposal{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, proposer, title, description, kind, amount_requested, recipient,
       votes_for, votes_against, votes_abstain, status, created_at, voting_ends_at, executed_at
FROM proposals
WHERE id = ?
`, int64(id))

	var prop proposal.Proposal
	var kind, status string
	var executedAt sql.NullInt64
	err := row.Scan(&prop.ID, &prop.Proposer, &prop.Title, &prop.Description, &kind,
		&prop.AmountRequested, &prop.Recipient,
		&prop.Tally.For, &prop.Tally.Against, &prop.Tally.Abstain,
		&status, &prop.CreatedAt, &prop.VotingEndsAt, &executedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return proposal.Proposal{}, storage.ErrNotFound
		}
		return proposal.Proposal{}, fmt.Errorf("get proposal: %w", err)
	}
	prop.Kind = proposal.Kind(kind)
	prop.Status = proposal.Status(status)
	prop.ExecutedAt = fromNullTick(executedAt)
	return prop, nil
}

// ApplyProposalCreated atomically persists the proposal, proposer counters,
// and the advanced next proposal id.
func (s *Store) ApplyProposalCreated(ctx context.Context, prop proposal.Proposal, proposer token.Account, nextProposalID uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	return s.withTx(ctx, "proposal create", func(tx *sql.Tx) error {
		if err := putProposalExec(ctx, tx, prop); err != nil {
			return err
		}
		if err := putAccountExec(ctx, tx, proposer); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE ledger_state SET next_proposal_id = ? WHERE id = 1
`, nextProposalID); err != nil {
			return fmt.Errorf("advance proposal id: %w", err)
		}
		return nil
	})
}

// ApplyProposalDecided persists the terminal passed/rejected status.
func (s *Store) ApplyProposalDecided(ctx context.Context, prop proposal.Proposal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	return putProposalExec(ctx, s.sqlDB, prop)
}

// ApplyProposalExecuted atomically persists the executed proposal and, for
// treasury proposals, the debited treasury balance.
func (s *Store) ApplyProposalExecuted(ctx context.Context, prop proposal.Proposal, treasuryBalance *uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	return s.withTx(ctx, "proposal execute", func(tx *sql.Tx) error {
		if err := putProposalExec(ctx, tx, prop); err != nil {
			return err
		}
		if treasuryBalance != nil {
			if _, err := tx.ExecContext(ctx, `
UPDATE ledger_state SET treasury_balance = ? WHERE id = 1
`, *treasuryBalance); err != nil {
				return fmt.Errorf("debit treasury: %w", err)
			}
		}
		return nil
	})
}

// GetVote fetches one vote record.
func (s *Store) GetVote(ctx context.Context, proposalID uint64, voter string) (vote.Record, error) {
	if err := ctx.Err(); err != nil {
		return vote.Record{}, err
	}
	if err := s.ready(); err != nil {
		return vote.Record{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT proposal_id, voter, choice, power, voted_at
FROM votes
WHERE proposal_id = ? AND voter = ?
`, int64(proposalID), voter)

	var record vote.Record
	var choice string
	err := row.Scan(&record.ProposalID, &record.Voter, &choice, &record.Power, &record.VotedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return vote.Record{}, storage.ErrNotFound
		}
		return vote.Record{}, fmt.Errorf("get vote: %w", err)
	}
	record.Choice = vote.Choice(choice)
	return record, nil
}

// ApplyVote atomically persists the vote record, the proposal tallies, and
// the voter's counters. Vote rows are insert-only; a second write for the
// same (proposal, voter) pair fails on the primary key.
func (s *Store) ApplyVote(ctx context.Context, record vote.Record, prop proposal.Proposal, voter token.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	return s.withTx(ctx, "vote", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO votes (proposal_id, voter, choice, power, voted_at)
VALUES (?, ?, ?, ?, ?)
`, int64(record.ProposalID), record.Voter, string(record.Choice), record.Power, record.VotedAt); err != nil {
			return fmt.Errorf("put vote: %w", err)
		}
		if err := putProposalExec(ctx, tx, prop); err != nil {
			return err
		}
		return putAccountExec(ctx, tx, voter)
	})
}

// ApplyTreasuryDeposit persists the new treasury balance.
func (s *Store) ApplyTreasuryDeposit(ctx context.Context, treasuryBalance uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `
UPDATE ledger_state SET treasury_balance = ? WHERE id = 1
`, treasuryBalance); err != nil {
		return fmt.Errorf("update treasury balance: %w", err)
	}
	return nil
}

// GetLedgerState reads the process-wide scalar counters.
func (s *Store) GetLedgerState(ctx context.Context) (storage.LedgerState, error) {
	if err := ctx.Err(); err != nil {
		return storage.LedgerState{}, err
	}
	if err := s.ready(); err != nil {
		return storage.LedgerState{}, err
	}

	var state storage.LedgerState
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT treasury_balance, next_proposal_id, total_tokens FROM ledger_state WHERE id = 1
`).Scan(&state.TreasuryBalance, &state.NextProposalID, &state.TotalTokens)
	if err != nil {
		return storage.LedgerState{}, fmt.Errorf("get ledger state: %w", err)
	}
	return state, nil
}
