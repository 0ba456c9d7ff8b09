package proposal

import (
	"errors"
	"strings"
	"testing"

	apperrors "github.com/openquorum/govledger/internal/platform/errors"
)

func TestNewBuildsActiveProposal(t *testing.T) {
	input := Input{
		Title:           "Fund node operators",
		Description:     "Reimburse infrastructure costs",
		Kind:            KindTreasury,
		AmountRequested: 250_000,
		Recipient:       "ops-collective",
	}

	prop := New(1, "alice", input, 100, 1440)

	if prop.ID != 1 {
		t.Fatalf("expected id 1, got %d", prop.ID)
	}
	if prop.Status != StatusActive {
		t.Fatalf("expected active status, got %q", prop.Status)
	}
	if prop.CreatedAt != 100 {
		t.Fatalf("expected created at 100, got %d", prop.CreatedAt)
	}
	if prop.VotingEndsAt != 1540 {
		t.Fatalf("expected voting ends at 1540, got %d", prop.VotingEndsAt)
	}
	if prop.Tally != (Tally{}) {
		t.Fatalf("expected zero tallies, got %+v", prop.Tally)
	}
	if prop.ExecutedAt != nil {
		t.Fatal("expected nil executed at")
	}
}

func TestValidateInputBoundedLengths(t *testing.T) {
	tests := []struct {
		name     string
		proposer string
		input    Input
		wantErr  error
	}{
		{
			name:     "valid",
			proposer: "alice",
			input:    Input{Title: "t", Description: "d", Kind: "general"},
		},
		{
			name:    "empty proposer",
			input:   Input{Title: "t"},
			wantErr: ErrEmptyProposer,
		},
		{
			name:     "title too long",
			proposer: "alice",
			input:    Input{Title: strings.Repeat("x", MaxTitleLength+1)},
			wantErr:  ErrTitleTooLong,
		},
		{
			name:     "description too long",
			proposer: "alice",
			input:    Input{Description: strings.Repeat("x", MaxDescriptionLength+1)},
			wantErr:  ErrDescriptionTooLong,
		},
		{
			name:     "kind too long",
			proposer: "alice",
			input:    Input{Kind: Kind(strings.Repeat("x", MaxKindLength+1))},
			wantErr:  ErrKindTooLong,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateInput(tc.proposer, tc.input)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("validate input: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if !apperrors.IsCode(err, apperrors.CodeInvalidArgument) {
				t.Fatalf("expected invalid argument code, got %q", apperrors.GetCode(err))
			}
		})
	}
}

func TestStatusTransitions(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusActive, StatusPassed},
		{StatusActive, StatusRejected},
		{StatusPassed, StatusExecuted},
	}
	for _, tc := range allowed {
		if !IsStatusTransitionAllowed(tc.from, tc.to) {
			t.Fatalf("expected %q -> %q to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusActive, StatusExecuted},
		{StatusPassed, StatusActive},
		{StatusRejected, StatusExecuted},
		{StatusRejected, StatusActive},
		{StatusExecuted, StatusPassed},
		{StatusExecuted, StatusActive},
	}
	for _, tc := range denied {
		if IsStatusTransitionAllowed(tc.from, tc.to) {
			t.Fatalf("expected %q -> %q to be denied", tc.from, tc.to)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusActive, StatusPassed, StatusRejected, StatusExecuted} {
		if !s.Valid() {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	if StatusUnspecified.Valid() {
		t.Fatal("expected unspecified status to be invalid")
	}
	if Status("draft").Valid() {
		t.Fatal("expected unknown status to be invalid")
	}
}

func TestTallyApprovalPercent(t *testing.T) {
	tests := []struct {
		name  string
		tally Tally
		want  uint64
	}{
		{"zero total", Tally{}, 0},
		{"sixty four percent", Tally{For: 1_200_000, Against: 600_000, Abstain: 50_000}, 64},
		{"integer division truncates", Tally{For: 2, Against: 1}, 66},
		{"all for", Tally{For: 10}, 100},
	}
	for _, tc := range tests {
		if got := tc.tally.ApprovalPercent(); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestTallyPasses(t *testing.T) {
	const quorum = 1_000_000
	const approval = 60

	// Quorum and approval both met.
	passing := Tally{For: 1_200_000, Against: 600_000, Abstain: 50_000}
	if !passing.Passes(quorum, approval) {
		t.Fatal("expected tally to pass")
	}

	// Below quorum, approval irrelevant.
	belowQuorum := Tally{For: 600_000, Against: 200_000}
	if belowQuorum.Passes(quorum, approval) {
		t.Fatal("expected below-quorum tally to fail")
	}

	// Quorum met, approval below threshold.
	belowApproval := Tally{For: 580_000, Against: 475_000}
	if belowApproval.Passes(quorum, approval) {
		t.Fatal("expected below-approval tally to fail")
	}

	// Abstain pushes total over quorum without helping approval.
	abstainQuorum := Tally{For: 700_000, Against: 100_000, Abstain: 300_000}
	if !abstainQuorum.Passes(quorum, approval) {
		t.Fatal("expected abstain to count toward quorum")
	}
}
