// Package replay applies a serialized action log against the governance
// engine.
//
// The hosting replication layer orders actions and supplies each one's
// caller and logical tick; replay consumes that order from a JSON Lines
// stream. Typed governance rejections are part of normal replay (every node
// rejects the same actions the same way), so they are counted and skipped.
// Infrastructure failures abort the replay.
package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/openquorum/govledger/internal/platform/errors"
	"github.com/openquorum/govledger/internal/services/governance/domain/event"
	"github.com/openquorum/govledger/internal/services/governance/domain/proposal"
	"github.com/openquorum/govledger/internal/services/governance/domain/vote"
	"github.com/openquorum/govledger/internal/services/governance/engine"
)

// Action op labels.
const (
	OpMint            = "mint"
	OpDelegate        = "delegate"
	OpCreateProposal  = "create-proposal"
	OpVote            = "vote"
	OpFinalize        = "finalize"
	OpExecute         = "execute"
	OpDepositTreasury = "deposit-treasury"
)

// Action is one serialized governance action. Fields beyond op, caller,
// and now are op-specific; unused fields are left zero.
type Action struct {
	Op          string `json:"op"`
	Caller      string `json:"caller"`
	Now         uint64 `json:"now"`
	Recipient   string `json:"recipient,omitempty"`
	Amount      uint64 `json:"amount,omitempty"`
	Delegate    string `json:"delegate,omitempty"`
	ProposalID  uint64 `json:"proposal_id,omitempty"`
	Vote        string `json:"vote,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Kind        string `json:"kind,omitempty"`
}

// EmitFunc forwards one emitted event to a journal or indexing sink.
type EmitFunc func(ctx context.Context, evt event.Event) error

// Summary reports the outcome of one replay pass.
type Summary struct {
	// Applied counts actions that mutated state and emitted an event.
	Applied int
	// Rejected counts actions refused by a typed governance error.
	Rejected int
}

// Run applies every action in the stream, in order, against the engine.
// Emitted events are forwarded through emit when it is non-nil. Lines that
// are blank or start with # are skipped.
func Run(ctx context.Context, eng *engine.Engine, r io.Reader, emit EmitFunc) (Summary, error) {
	if eng == nil {
		return Summary{}, fmt.Errorf("engine is required")
	}
	if r == nil {
		return Summary{}, fmt.Errorf("action stream is required")
	}

	var summary Summary
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var action Action
		if err := json.Unmarshal([]byte(text), &action); err != nil {
			return summary, fmt.Errorf("line %d: decode action: %w", line, err)
		}

		evt, err := apply(ctx, eng, action)
		if err != nil {
			if apperrors.GetCode(err) == apperrors.CodeUnknown {
				return summary, fmt.Errorf("line %d: %s: %w", line, action.Op, err)
			}
			summary.Rejected++
			continue
		}
		summary.Applied++

		if emit != nil {
			if err := emit(ctx, evt); err != nil {
				return summary, fmt.Errorf("line %d: emit event: %w", line, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("read action stream: %w", err)
	}
	return summary, nil
}

func apply(ctx context.Context, eng *engine.Engine, action Action) (event.Event, error) {
	switch action.Op {
	case OpMint:
		return eng.Mint(ctx, action.Caller, action.Recipient, action.Amount)
	case OpDelegate:
		return eng.Delegate(ctx, action.Caller, action.Delegate)
	case OpCreateProposal:
		_, evt, err := eng.CreateProposal(ctx, action.Caller, action.Now, proposal.Input{
			Title:           action.Title,
			Description:     action.Description,
			Kind:            proposal.Kind(action.Kind),
			AmountRequested: action.Amount,
			Recipient:       action.Recipient,
		})
		return evt, err
	case OpVote:
		return eng.CastVote(ctx, action.Caller, action.Now, action.ProposalID, vote.Choice(action.Vote))
	case OpFinalize:
		_, evt, err := eng.FinalizeProposal(ctx, action.Now, action.ProposalID)
		return evt, err
	case OpExecute:
		return eng.ExecuteProposal(ctx, action.Now, action.ProposalID)
	case OpDepositTreasury:
		return eng.DepositTreasury(ctx, action.Caller, action.Amount)
	default:
		return event.Event{}, fmt.Errorf("unknown op %q", action.Op)
	}
}
