package engine

// Governance policy defaults, kept from the source deployment.
const (
	DefaultVotingPeriodTicks    uint64 = 1440
	DefaultQuorumThreshold      uint64 = 1_000_000
	DefaultApprovalThresholdPct uint64 = 60
	DefaultMinTokensToPropose   uint64 = 1_000
)

// Config carries the governance policy constants and the owner identity.
// Zero numeric fields fall back to the defaults above.
type Config struct {
	// Owner is the sole principal authorized to mint tokens. It is fixed
	// at engine construction and never changes.
	Owner string
	// VotingPeriodTicks is the length of each proposal's voting window.
	VotingPeriodTicks uint64
	// QuorumThreshold is the minimum combined voting power (for + against
	// + abstain) required for a proposal to be passable.
	QuorumThreshold uint64
	// ApprovalThresholdPct is the minimum integer percentage of for-votes
	// among the total required to pass.
	ApprovalThresholdPct uint64
	// MinTokensToPropose is the minimum balance required to create a
	// proposal.
	MinTokensToPropose uint64
	// StrictVoteChoices rejects unrecognized vote labels with a typed
	// error. When false, an unknown label is still recorded (and blocks
	// re-voting) but moves no tally, matching the source deployment.
	StrictVoteChoices bool
}

// DefaultConfig returns the source deployment's governance policy for the
// given owner.
func DefaultConfig(owner string) Config {
	return Config{
		Owner:                owner,
		VotingPeriodTicks:    DefaultVotingPeriodTicks,
		QuorumThreshold:      DefaultQuorumThreshold,
		ApprovalThresholdPct: DefaultApprovalThresholdPct,
		MinTokensToPropose:   DefaultMinTokensToPropose,
	}
}

func (c Config) withDefaults() Config {
	if c.VotingPeriodTicks == 0 {
		c.VotingPeriodTicks = DefaultVotingPeriodTicks
	}
	if c.QuorumThreshold == 0 {
		c.QuorumThreshold = DefaultQuorumThreshold
	}
	if c.ApprovalThresholdPct == 0 {
		c.ApprovalThresholdPct = DefaultApprovalThresholdPct
	}
	if c.MinTokensToPropose == 0 {
		c.MinTokensToPropose = DefaultMinTokensToPropose
	}
	return c
}
