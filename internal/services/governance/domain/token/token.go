// Package token models token accounts and delegated voting power.
package token

// Account is one principal's token holdings and activity counters.
type Account struct {
	Principal string
	Balance   uint64
	// DelegatedTo is the principal this account last delegated to, empty
	// when the account never delegated.
	DelegatedTo      string
	ProposalsCreated uint64
	VotesCast        uint64
}

// HasDelegated reports whether the account has routed its power to a delegate.
func (a Account) HasDelegated() bool {
	return a.DelegatedTo != ""
}

// EffectivePower is the voting power a principal's vote counts as: its own
// balance plus the power accumulated from delegators. Delegating away does
// not subtract from the delegator's own balance here; the accumulation is
// additive-only and never reconciled, matching the source deployment.
func EffectivePower(balance, delegatedIn uint64) uint64 {
	return balance + delegatedIn
}
