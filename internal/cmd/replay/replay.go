// Package replay parses replay command flags and launches the governance
// runtime.
package replay

import (
	"context"
	"flag"

	entrypoint "github.com/openquorum/govledger/internal/platform/cmd"
	"github.com/openquorum/govledger/internal/services/governance/app"
)

// Config holds replay command configuration.
type Config struct {
	Owner                string `env:"GOVLEDGER_OWNER"`
	DBPath               string `env:"GOVLEDGER_DB_PATH" envDefault:"data/governance.db"`
	JournalPath          string `env:"GOVLEDGER_JOURNAL_PATH" envDefault:"data/governance-journal.db"`
	ActionLogPath        string `env:"GOVLEDGER_ACTION_LOG"`
	VotingPeriodTicks    uint64 `env:"GOVLEDGER_VOTING_PERIOD_TICKS"`
	QuorumThreshold      uint64 `env:"GOVLEDGER_QUORUM_THRESHOLD"`
	ApprovalThresholdPct uint64 `env:"GOVLEDGER_APPROVAL_THRESHOLD_PCT"`
	MinTokensToPropose   uint64 `env:"GOVLEDGER_MIN_TOKENS_TO_PROPOSE"`
	StrictVoteChoices    bool   `env:"GOVLEDGER_STRICT_VOTE_CHOICES"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Owner, "owner", cfg.Owner, "The principal authorized to mint tokens")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The ledger SQLite database path")
	fs.StringVar(&cfg.JournalPath, "journal-path", cfg.JournalPath, "The BoltDB event journal path")
	fs.StringVar(&cfg.ActionLogPath, "action-log", cfg.ActionLogPath, "JSON Lines action log to replay")
	fs.Uint64Var(&cfg.VotingPeriodTicks, "voting-period-ticks", cfg.VotingPeriodTicks, "Voting window length in ticks (0 = default)")
	fs.Uint64Var(&cfg.QuorumThreshold, "quorum-threshold", cfg.QuorumThreshold, "Minimum combined voting power to pass (0 = default)")
	fs.Uint64Var(&cfg.ApprovalThresholdPct, "approval-threshold-pct", cfg.ApprovalThresholdPct, "Minimum for-vote percentage to pass (0 = default)")
	fs.Uint64Var(&cfg.MinTokensToPropose, "min-tokens-to-propose", cfg.MinTokensToPropose, "Minimum balance to create a proposal (0 = default)")
	fs.BoolVar(&cfg.StrictVoteChoices, "strict-vote-choices", cfg.StrictVoteChoices, "Reject unrecognized vote labels")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the governance runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceReplay, func(context.Context) error {
		return app.Run(ctx, app.RuntimeConfig{
			Owner:                cfg.Owner,
			DBPath:               cfg.DBPath,
			JournalPath:          cfg.JournalPath,
			ActionLogPath:        cfg.ActionLogPath,
			VotingPeriodTicks:    cfg.VotingPeriodTicks,
			QuorumThreshold:      cfg.QuorumThreshold,
			ApprovalThresholdPct: cfg.ApprovalThresholdPct,
			MinTokensToPropose:   cfg.MinTokensToPropose,
			StrictVoteChoices:    cfg.StrictVoteChoices,
		})
	})
}
