package cmd

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/poi-miner/post-miner/proving"
	"github.com/poi-miner/post-miner/shared"
	"github.com/poi-miner/post-miner/vocabulary"
)

var (
	solveBackend    string
	solveOut        string
	solveSeed       string
	solveDifficulty uint64
	solveEpoch      uint64
)

// solution is the exported form of a solved puzzle. Payload is the submit instruction data for an
// external signer.
type solution struct {
	Protocol   string                `json:"protocol"`
	Epoch      uint64                `json:"epoch"`
	Seed       string                `json:"seed"`
	Difficulty uint64                `json:"difficulty"`
	Identity   string                `json:"identity"`
	Words      vocabulary.Vocabulary `json:"words"`
	Text       string                `json:"text"`
	Nonce      uint64                `json:"nonce"`
	Hash       string                `json:"hash"`
	Attempts   uint64                `json:"attempts"`
	Elapsed    string                `json:"elapsed"`
	Payload    string                `json:"payload"`
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve the current puzzle once",
	Long: `solve reads the live mine state, composes the proof text, searches a nonce and prints the
solution together with the encoded submit instruction data.

With --seed the puzzle is solved offline for the given seed and --difficulty.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		sol, err := solve(ctx)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(sol, "", "  ")
		if err != nil {
			return err
		}
		if solveOut != "" {
			if err := atomic.WriteFile(solveOut, bytes.NewReader(data)); err != nil {
				return fmt.Errorf("write solution: %w", err)
			}
			logger.Info("cli: solution written", zap.String("path", solveOut))
			return nil
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(solveCmd)
	flags := solveCmd.Flags()
	flags.StringVar(&solveBackend, "backend", backendRPC, "where to read the puzzle from (rpc, sim)")
	flags.StringVar(&solveOut, "out", "", "write the solution JSON to this file")
	flags.StringVar(&solveSeed, "seed", "", "solve offline for this hex seed")
	flags.Uint64Var(&solveDifficulty, "difficulty", 8, "difficulty of the offline puzzle")
	flags.Uint64Var(&solveEpoch, "epoch", 0, "epoch of the offline puzzle")
}

func solve(ctx context.Context) (*solution, error) {
	proto, err := selectedProtocol()
	if err != nil {
		return nil, err
	}
	identity, err := cfg.MinerIdentity()
	if err != nil {
		return nil, err
	}
	recipient, err := cfg.RecipientIdentity()
	if err != nil {
		return nil, err
	}

	var (
		state = &shared.EpochState{Epoch: solveEpoch, Difficulty: solveDifficulty}
		now   time.Time
	)
	if solveSeed != "" {
		if state.Seed, err = shared.ParseSeed(solveSeed); err != nil {
			return nil, err
		}
	} else {
		ms, at, err := readMineState(ctx, solveBackend)
		if err != nil {
			return nil, err
		}
		state, now = &ms.EpochState, at
		if state.Ended(now) {
			return nil, fmt.Errorf("epoch %d already ended", state.Epoch)
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, state.Remaining(now))
		defer cancel()
	}

	words := proto.Words(state.Seed, state.Difficulty)
	text, err := proto.Composer().Compose(words)
	if err != nil {
		return nil, err
	}
	logger.Info("cli: solving",
		zap.Uint64("epoch", state.Epoch),
		zap.Uint64("difficulty", state.Difficulty),
		zap.Stringer("words", words),
		zap.String("textSize", bytefmt.ByteSize(uint64(len(text)))),
	)

	res, err := proving.Search(ctx, state.Seed, identity, text, state.Difficulty,
		proving.WithThreads(cfg.SearchThreads()),
		proving.WithMaxAttempts(cfg.MaxAttempts),
		proving.WithLogger(logger),
		proving.WithProgress(reportProgress, cfg.ProgressInterval),
	)
	if err != nil {
		return nil, err
	}

	return &solution{
		Protocol:   proto.Version(),
		Epoch:      state.Epoch,
		Seed:       state.Seed.String(),
		Difficulty: state.Difficulty,
		Identity:   identity.String(),
		Words:      words,
		Text:       string(text),
		Nonce:      res.Nonce,
		Hash:       hex.EncodeToString(res.Hash[:]),
		Attempts:   res.Attempts,
		Elapsed:    res.Elapsed.Round(time.Millisecond).String(),
		Payload:    hex.EncodeToString(proto.SubmitPayload(text, res.Nonce, recipientOr(recipient, identity))),
	}, nil
}
