// Package app assembles the governance runtime: durable stores, the event
// journal, the engine, and the action-log replay loop.
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/openquorum/govledger/internal/services/governance/domain/event"
	"github.com/openquorum/govledger/internal/services/governance/engine"
	"github.com/openquorum/govledger/internal/services/governance/replay"
	governancebbolt "github.com/openquorum/govledger/internal/services/governance/storage/bbolt"
	governancesqlite "github.com/openquorum/govledger/internal/services/governance/storage/sqlite"
)

// RuntimeConfig controls governance runtime startup and replay behavior.
type RuntimeConfig struct {
	// Owner is the principal authorized to mint tokens.
	Owner string
	// DBPath is the SQLite ledger database path.
	DBPath string
	// JournalPath is the BoltDB event journal path.
	JournalPath string
	// ActionLogPath is an optional JSON Lines action log applied at
	// startup. Empty skips the replay pass.
	ActionLogPath string

	VotingPeriodTicks    uint64
	QuorumThreshold      uint64
	ApprovalThresholdPct uint64
	MinTokensToPropose   uint64
	StrictVoteChoices    bool
}

const (
	defaultGovernanceDB      = "data/governance.db"
	defaultGovernanceJournal = "data/governance-journal.db"
)

// Run opens the runtime dependencies and applies the configured action log.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(cfg.Owner) == "" {
		return fmt.Errorf("owner principal is required")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultGovernanceDB
	}
	if strings.TrimSpace(cfg.JournalPath) == "" {
		cfg.JournalPath = defaultGovernanceJournal
	}

	for _, path := range []string{cfg.DBPath, cfg.JournalPath} {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create storage dir: %w", err)
			}
		}
	}

	store, err := governancesqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open governance sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close governance sqlite store: %v", closeErr)
		}
	}()

	journal, err := governancebbolt.Open(cfg.JournalPath)
	if err != nil {
		return fmt.Errorf("open event journal: %w", err)
	}
	defer func() {
		if closeErr := journal.Close(); closeErr != nil {
			log.Printf("close event journal: %v", closeErr)
		}
	}()

	eng, err := engine.New(store, engine.Config{
		Owner:                cfg.Owner,
		VotingPeriodTicks:    cfg.VotingPeriodTicks,
		QuorumThreshold:      cfg.QuorumThreshold,
		ApprovalThresholdPct: cfg.ApprovalThresholdPct,
		MinTokensToPropose:   cfg.MinTokensToPropose,
		StrictVoteChoices:    cfg.StrictVoteChoices,
	})
	if err != nil {
		return fmt.Errorf("build governance engine: %w", err)
	}

	if strings.TrimSpace(cfg.ActionLogPath) != "" {
		if err := replayActionLog(ctx, eng, journal, cfg.ActionLogPath); err != nil {
			return err
		}
	}

	stats, err := eng.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("read ledger stats: %w", err)
	}
	lastSeq, err := journal.LastSequence(ctx)
	if err != nil {
		return fmt.Errorf("read journal sequence: %w", err)
	}
	log.Printf("ledger ready: treasury=%d total_tokens=%d proposals=%d journal_seq=%d",
		stats.TreasuryBalance, stats.TotalTokens, stats.TotalProposals, lastSeq)
	return nil
}

func replayActionLog(ctx context.Context, eng *engine.Engine, journal *governancebbolt.Journal, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open action log: %w", err)
	}
	defer file.Close()

	summary, err := applyActions(ctx, eng, journal, file)
	if err != nil {
		return err
	}
	log.Printf("replayed action log %s: applied=%d rejected=%d", path, summary.Applied, summary.Rejected)
	return nil
}

func applyActions(ctx context.Context, eng *engine.Engine, journal *governancebbolt.Journal, r io.Reader) (replay.Summary, error) {
	emit := func(ctx context.Context, evt event.Event) error {
		_, err := journal.AppendEvent(ctx, evt)
		return err
	}
	summary, err := replay.Run(ctx, eng, r, emit)
	if err != nil {
		return summary, fmt.Errorf("replay action log: %w", err)
	}
	return summary, nil
}
