package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	governancebbolt "github.com/openquorum/govledger/internal/services/governance/storage/bbolt"
	governancesqlite "github.com/openquorum/govledger/internal/services/governance/storage/sqlite"
)

func TestRunRequiresOwner(t *testing.T) {
	if err := Run(context.Background(), RuntimeConfig{}); err == nil {
		t.Fatal("Run() expected error for blank owner")
	}
}

func TestRunReplaysActionLogAndJournalsEvents(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "governance.db")
	journalPath := filepath.Join(dir, "journal.db")
	actionLog := filepath.Join(dir, "actions.jsonl")

	log := strings.Join([]string{
		`{"op":"mint","caller":"owner","recipient":"alice","amount":1500000}`,
		`{"op":"deposit-treasury","caller":"alice","amount":50000}`,
		`{"op":"create-proposal","caller":"alice","now":5,"title":"Grant","kind":"treasury","amount":20000}`,
		`{"op":"vote","caller":"alice","now":6,"proposal_id":1,"vote":"for"}`,
		`{"op":"finalize","now":1446,"proposal_id":1}`,
		`{"op":"execute","now":1447,"proposal_id":1}`,
		`{"op":"mint","caller":"mallory","recipient":"mallory","amount":1}`,
	}, "\n")
	if err := os.WriteFile(actionLog, []byte(log), 0o600); err != nil {
		t.Fatalf("write action log: %v", err)
	}

	cfg := RuntimeConfig{
		Owner:         "owner",
		DBPath:        dbPath,
		JournalPath:   journalPath,
		ActionLogPath: actionLog,
	}
	if err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	store, err := governancesqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store.Close()

	state, err := store.GetLedgerState(context.Background())
	if err != nil {
		t.Fatalf("GetLedgerState() error = %v", err)
	}
	if state.TreasuryBalance != 30_000 {
		t.Errorf("TreasuryBalance = %d, want 30000", state.TreasuryBalance)
	}
	if state.TotalTokens != 1_500_000 {
		t.Errorf("TotalTokens = %d, want 1500000", state.TotalTokens)
	}

	journal, err := governancebbolt.Open(journalPath)
	if err != nil {
		t.Fatalf("reopen journal: %v", err)
	}
	defer journal.Close()

	last, err := journal.LastSequence(context.Background())
	if err != nil {
		t.Fatalf("LastSequence() error = %v", err)
	}
	if last != 6 {
		t.Errorf("journal LastSequence = %d, want 6 (rejected mint emits nothing)", last)
	}
}

func TestRunWithoutActionLog(t *testing.T) {
	dir := t.TempDir()
	cfg := RuntimeConfig{
		Owner:       "owner",
		DBPath:      filepath.Join(dir, "governance.db"),
		JournalPath: filepath.Join(dir, "journal.db"),
	}
	if err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestRunMissingActionLogFails(t *testing.T) {
	dir := t.TempDir()
	cfg := RuntimeConfig{
		Owner:         "owner",
		DBPath:        filepath.Join(dir, "governance.db"),
		JournalPath:   filepath.Join(dir, "journal.db"),
		ActionLogPath: filepath.Join(dir, "missing.jsonl"),
	}
	if err := Run(context.Background(), cfg); err == nil {
		t.Fatal("Run() expected error for missing action log")
	}
}
