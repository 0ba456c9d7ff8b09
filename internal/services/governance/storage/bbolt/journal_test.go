package bbolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/openquorum/govledger/internal/services/governance/domain/event"
	"github.com/openquorum/govledger/internal/services/governance/storage"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()

	path := filepath.Join(t.TempDir(), "journal.db")
	journal, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := journal.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return journal
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("Open() expected error for blank path")
	}
}

func TestAppendEventAssignsMonotonicSequences(t *testing.T) {
	journal := openTestJournal(t)
	ctx := context.Background()

	events := []event.Event{
		event.NewTokensMinted("alice", 500_000),
		event.NewPowerDelegated("alice", "bob"),
		event.NewTreasuryDeposit("owner", 10_000),
	}
	for i, evt := range events {
		seq, err := journal.AppendEvent(ctx, evt)
		if err != nil {
			t.Fatalf("AppendEvent() error = %v", err)
		}
		if want := uint64(i + 1); seq != want {
			t.Fatalf("AppendEvent() sequence = %d, want %d", seq, want)
		}
	}

	last, err := journal.LastSequence(ctx)
	if err != nil {
		t.Fatalf("LastSequence() error = %v", err)
	}
	if last != 3 {
		t.Fatalf("LastSequence() = %d, want 3", last)
	}
}

func TestListEventsReturnsAscendingAfterCursor(t *testing.T) {
	journal := openTestJournal(t)
	ctx := context.Background()

	types := []event.Type{
		event.TypeTokensMinted,
		event.TypePowerDelegated,
		event.TypeProposalCreated,
		event.TypeVoteCast,
	}
	if _, err := journal.AppendEvent(ctx, event.NewTokensMinted("alice", 1)); err != nil {
		t.Fatalf("AppendEvent() error = %v", err)
	}
	if _, err := journal.AppendEvent(ctx, event.NewPowerDelegated("alice", "bob")); err != nil {
		t.Fatalf("AppendEvent() error = %v", err)
	}
	if _, err := journal.AppendEvent(ctx, event.NewProposalCreated(1, "alice")); err != nil {
		t.Fatalf("AppendEvent() error = %v", err)
	}
	if _, err := journal.AppendEvent(ctx, event.NewVoteCast(1, "bob", "for")); err != nil {
		t.Fatalf("AppendEvent() error = %v", err)
	}

	entries, err := journal.ListEvents(ctx, 1, 10)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("ListEvents() returned %d entries, want 3", len(entries))
	}
	for i, entry := range entries {
		if want := uint64(i + 2); entry.Sequence != want {
			t.Fatalf("entry %d sequence = %d, want %d", i, entry.Sequence, want)
		}
		if entry.Event.Type != types[i+1] {
			t.Fatalf("entry %d type = %q, want %q", i, entry.Event.Type, types[i+1])
		}
	}
}

func TestListEventsHonorsLimit(t *testing.T) {
	journal := openTestJournal(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := journal.AppendEvent(ctx, event.NewTreasuryDeposit("owner", uint64(i+1))); err != nil {
			t.Fatalf("AppendEvent() error = %v", err)
		}
	}

	entries, err := journal.ListEvents(ctx, 0, 2)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ListEvents() returned %d entries, want 2", len(entries))
	}
	if entries[0].Sequence != 1 || entries[1].Sequence != 2 {
		t.Fatalf("ListEvents() sequences = %d, %d, want 1, 2", entries[0].Sequence, entries[1].Sequence)
	}
}

func TestListEventsRejectsNonPositiveLimit(t *testing.T) {
	journal := openTestJournal(t)

	if _, err := journal.ListEvents(context.Background(), 0, 0); err == nil {
		t.Fatal("ListEvents() expected error for zero limit")
	}
}

func TestGetEventNotFound(t *testing.T) {
	journal := openTestJournal(t)

	_, err := journal.GetEvent(context.Background(), 42)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("GetEvent() error = %v, want ErrNotFound", err)
	}
}

func TestJournalSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	journal, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := journal.AppendEvent(ctx, event.NewTokensMinted("alice", 100)); err != nil {
		t.Fatalf("AppendEvent() error = %v", err)
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open() after close error = %v", err)
	}
	defer reopened.Close()

	seq, err := reopened.AppendEvent(ctx, event.NewTokensMinted("bob", 200))
	if err != nil {
		t.Fatalf("AppendEvent() after reopen error = %v", err)
	}
	if seq != 2 {
		t.Fatalf("AppendEvent() sequence after reopen = %d, want 2", seq)
	}

	entry, err := reopened.GetEvent(ctx, 1)
	if err != nil {
		t.Fatalf("GetEvent() error = %v", err)
	}
	if entry.Event.Type != event.TypeTokensMinted {
		t.Fatalf("GetEvent() type = %q, want %q", entry.Event.Type, event.TypeTokensMinted)
	}
}

func TestJournalHonorsContextCancellation(t *testing.T) {
	journal := openTestJournal(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := journal.AppendEvent(ctx, event.NewTokensMinted("alice", 1)); !errors.Is(err, context.Canceled) {
		t.Fatalf("AppendEvent() error = %v, want context.Canceled", err)
	}
	if _, err := journal.ListEvents(ctx, 0, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("ListEvents() error = %v, want context.Canceled", err)
	}
	if _, err := journal.LastSequence(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("LastSequence() error = %v, want context.Canceled", err)
	}
}
