// Package event defines the domain events emitted by governance operations.
//
// Every successful mutating operation produces exactly one event. The engine
// returns the event to its caller for forwarding to an indexing or audit
// sink; it never emits events for failed operations.
package event

import "encoding/json"

// Type names one governance domain event.
type Type string

const (
	TypeTokensMinted     Type = "tokens-minted"
	TypePowerDelegated   Type = "power-delegated"
	TypeProposalCreated  Type = "proposal-created"
	TypeVoteCast         Type = "vote-cast"
	TypeProposalPassed   Type = "proposal-passed"
	TypeProposalRejected Type = "proposal-rejected"
	TypeProposalExecuted Type = "proposal-executed"
	TypeTreasuryDeposit  Type = "treasury-deposit"
)

// Event is the envelope forwarded to event consumers.
type Event struct {
	Type        Type            `json:"type"`
	PayloadJSON json.RawMessage `json:"payload"`
}

// TokensMintedPayload carries the recipient and amount of a mint.
type TokensMintedPayload struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
}

// PowerDelegatedPayload carries the delegation pair.
type PowerDelegatedPayload struct {
	Delegator string `json:"delegator"`
	Delegate  string `json:"delegate"`
}

// ProposalCreatedPayload carries the new proposal id and its proposer.
type ProposalCreatedPayload struct {
	ProposalID uint64 `json:"proposal_id"`
	Proposer   string `json:"proposer"`
}

// VoteCastPayload carries the vote identifiers and the raw choice label.
type VoteCastPayload struct {
	ProposalID uint64 `json:"proposal_id"`
	Voter      string `json:"voter"`
	Vote       string `json:"vote"`
}

// ProposalDecidedPayload carries the finalized proposal id. It is shared by
// the proposal-passed and proposal-rejected event types.
type ProposalDecidedPayload struct {
	ProposalID uint64 `json:"proposal_id"`
}

// ProposalExecutedPayload carries the executed proposal id and, for treasury
// proposals only, the debited amount.
type ProposalExecutedPayload struct {
	ProposalID uint64  `json:"proposal_id"`
	Amount     *uint64 `json:"amount,omitempty"`
}

// TreasuryDepositPayload carries the depositor and amount of a deposit.
type TreasuryDepositPayload struct {
	Depositor string `json:"depositor"`
	Amount    uint64 `json:"amount"`
}

func newEvent(eventType Type, payload any) Event {
	payloadJSON, _ := json.Marshal(payload)
	return Event{Type: eventType, PayloadJSON: payloadJSON}
}

// NewTokensMinted builds a tokens-minted event.
func NewTokensMinted(recipient string, amount uint64) Event {
	return newEvent(TypeTokensMinted, TokensMintedPayload{Recipient: recipient, Amount: amount})
}

// NewPowerDelegated builds a power-delegated event.
func NewPowerDelegated(delegator, delegate string) Event {
	return newEvent(TypePowerDelegated, PowerDelegatedPayload{Delegator: delegator, Delegate: delegate})
}

// NewProposalCreated builds a proposal-created event.
func NewProposalCreated(proposalID uint64, proposer string) Event {
	return newEvent(TypeProposalCreated, ProposalCreatedPayload{ProposalID: proposalID, Proposer: proposer})
}

// NewVoteCast builds a vote-cast event.
func NewVoteCast(proposalID uint64, voter, voteLabel string) Event {
	return newEvent(TypeVoteCast, VoteCastPayload{ProposalID: proposalID, Voter: voter, Vote: voteLabel})
}

// NewProposalDecided builds a proposal-passed or proposal-rejected event.
func NewProposalDecided(proposalID uint64, passed bool) Event {
	eventType := TypeProposalRejected
	if passed {
		eventType = TypeProposalPassed
	}
	return newEvent(eventType, ProposalDecidedPayload{ProposalID: proposalID})
}

// NewProposalExecuted builds a proposal-executed event. The amount is carried
// only for treasury proposals.
func NewProposalExecuted(proposalID uint64, amount *uint64) Event {
	return newEvent(TypeProposalExecuted, ProposalExecutedPayload{ProposalID: proposalID, Amount: amount})
}

// NewTreasuryDeposit builds a treasury-deposit event.
func NewTreasuryDeposit(depositor string, amount uint64) Event {
	return newEvent(TypeTreasuryDeposit, TreasuryDepositPayload{Depositor: depositor, Amount: amount})
}
