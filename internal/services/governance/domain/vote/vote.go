// Package vote models cast votes and the vote choice labels.
package vote

// Choice is the caller-supplied vote label. The three known literals route
// to a tally; by default any other label is still recorded (and blocks
// re-voting) but moves no tally, matching the source deployment.
type Choice string

const (
	ChoiceFor     Choice = "for"
	ChoiceAgainst Choice = "against"
	ChoiceAbstain Choice = "abstain"
)

// Known reports whether the choice is one of the three tally literals.
// Matching is exact: labels are not trimmed or case-folded.
func (c Choice) Known() bool {
	switch c {
	case ChoiceFor, ChoiceAgainst, ChoiceAbstain:
		return true
	default:
		return false
	}
}

// Record is one cast vote. At most one record ever exists per
// (proposal, voter) pair, and a record is immutable once written.
type Record struct {
	ProposalID uint64
	Voter      string
	Choice     Choice
	// Power is the voter's effective voting power snapshotted at cast time.
	Power uint64
	// VotedAt is the tick the vote was cast at.
	VotedAt uint64
}
