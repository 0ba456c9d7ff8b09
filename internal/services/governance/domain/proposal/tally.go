package proposal

// Tally holds the three vote tallies in snapshotted voting-power units.
type Tally struct {
	For     uint64
	Against uint64
	Abstain uint64
}

// Total returns the combined voting power across all three tallies.
// Abstain votes count toward the total, and therefore toward quorum.
func (t Tally) Total() uint64 {
	return t.For + t.Against + t.Abstain
}

// ApprovalPercent returns the integer percentage of for-votes among the
// total. It is defined as 0 when no votes were cast.
func (t Tally) ApprovalPercent() uint64 {
	total := t.Total()
	if total == 0 {
		return 0
	}
	return (t.For * 100) / total
}

// Passes applies the finalization decision rule: the proposal passes iff the
// total meets quorum and the approval percentage meets the threshold.
func (t Tally) Passes(quorumThreshold, approvalThresholdPct uint64) bool {
	return t.Total() >= quorumThreshold && t.ApprovalPercent() >= approvalThresholdPct
}
