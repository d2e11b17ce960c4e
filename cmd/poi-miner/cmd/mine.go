package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/poi-miner/post-miner/epoch"
	"github.com/poi-miner/post-miner/internal/journal"
	"github.com/poi-miner/post-miner/internal/simledger"
	"github.com/poi-miner/post-miner/proving"
	"github.com/poi-miner/post-miner/shared"
)

const backendSim = "sim"

var mineBackend string

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Run the mining loop",
	Long: `mine runs the epoch coordinator until interrupted: it solves the puzzle of each epoch,
submits the solution, advances the epoch once it ended and claims the reward.

Only the simulated program can be mined against; the RPC client does not sign transactions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if mineBackend != backendSim {
			return fmt.Errorf("unsupported backend %q: mining requires the %q backend", mineBackend, backendSim)
		}
		ctx, stop := signalContext()
		defer stop()
		return mine(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mineCmd)
	mineCmd.Flags().StringVar(&mineBackend, "backend", backendSim, "program backend (sim)")
}

func minerIdentity() (shared.Identity, error) {
	id, err := cfg.MinerIdentity()
	if err == nil {
		return id, nil
	}
	if cfg.Keypair != "" || cfg.Identity != "" {
		return shared.Identity{}, err
	}
	id, err = shared.GenerateIdentity()
	if err != nil {
		return shared.Identity{}, err
	}
	logger.Info("cli: no identity configured, using a generated one", zap.Stringer("identity", id))
	return id, nil
}

func newSimProgram() (*simledger.Program, error) {
	proto, err := selectedProtocol()
	if err != nil {
		return nil, err
	}
	return simledger.New(epoch.SystemClock{}, proto,
		simledger.WithLogger(logger.Named("sim")),
		simledger.WithEpochDuration(cfg.SimEpochDuration),
		simledger.WithInitialDifficulty(cfg.SimDifficulty),
	)
}

func mine(ctx context.Context) error {
	proto, err := selectedProtocol()
	if err != nil {
		return err
	}
	identity, err := minerIdentity()
	if err != nil {
		return err
	}
	recipient, err := cfg.RecipientIdentity()
	if err != nil {
		return err
	}
	program, err := newSimProgram()
	if err != nil {
		return err
	}

	threads := cfg.SearchThreads()
	opts := []epoch.OptionFunc{
		epoch.WithLogger(logger),
		epoch.WithSearch(threads, cfg.MaxAttempts),
		epoch.WithSearchProgress(reportProgress, cfg.ProgressInterval),
		epoch.WithErrorBackoff(cfg.ErrorBackoff),
		epoch.WithMaxSleep(cfg.MaxSleep),
		epoch.WithEpochEndGrace(cfg.EpochEndGrace),
	}
	if cfg.Journal {
		j, err := journal.Open(cfg.DataDir, logger.Named("journal"))
		if err != nil {
			return err
		}
		defer j.Close()
		opts = append(opts, epoch.WithRecorder(j))
	}

	coordinator, err := epoch.NewCoordinator(program.Client(identity, recipient), proto, identity, opts...)
	if err != nil {
		return err
	}

	logger.Info("cli: mining",
		zap.String("backend", mineBackend),
		zap.String("protocol", proto.Version()),
		zap.Stringer("identity", identity),
		zap.Int("threads", threads),
	)
	err = coordinator.Run(ctx)
	snapshot := coordinator.Snapshot()
	logger.Info("cli: mining stopped",
		zap.Uint64("lastSubmittedEpoch", snapshot.LastSubmittedEpoch),
		zap.Uint64("balance", program.Balance(recipientOr(recipient, identity))),
	)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func recipientOr(recipient, identity shared.Identity) shared.Identity {
	if recipient.IsZero() {
		return identity
	}
	return recipient
}

func reportProgress(p proving.Progress) {
	logger.Info("cli: searching",
		zap.Uint64("attempts", p.Attempts),
		zap.String("rate", fmt.Sprintf("%.0f H/s", p.HashRate())),
		zap.Duration("elapsed", p.Elapsed),
	)
}
