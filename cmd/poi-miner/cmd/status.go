package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/poi-miner/post-miner/internal/rpc"
	"github.com/poi-miner/post-miner/ledger"
	"github.com/poi-miner/post-miner/vocabulary"
)

const backendRPC = "rpc"

var statusBackend string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the mine state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		state, now, err := readMineState(ctx, statusBackend)
		if err != nil {
			return err
		}
		printMineState(state, now)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusBackend, "backend", backendRPC, "where to read the state from (rpc, sim)")
}

// readMineState reads the mine state and the program's current time from backend.
func readMineState(ctx context.Context, backend string) (*ledger.MineState, time.Time, error) {
	switch backend {
	case backendRPC:
		account, err := cfg.StateAccountIdentity()
		if err != nil {
			return nil, time.Time{}, err
		}
		client, err := rpc.NewClient(cfg.RPCURL, account, rpc.WithLogger(logger.Named("rpc")))
		if err != nil {
			return nil, time.Time{}, err
		}
		state, err := client.MineState(ctx)
		if err != nil {
			return nil, time.Time{}, err
		}
		clock, err := rpc.NewBlockClock(ctx, client)
		if err != nil {
			return nil, time.Time{}, err
		}
		return state, clock.Now(), nil
	case backendSim:
		program, err := newSimProgram()
		if err != nil {
			return nil, time.Time{}, err
		}
		state := program.State()
		return &state, time.Now(), nil
	default:
		return nil, time.Time{}, fmt.Errorf("unknown backend %q", backend)
	}
}

func printMineState(s *ledger.MineState, now time.Time) {
	remaining := "ended"
	if !s.Ended(now) {
		remaining = s.Remaining(now).Round(time.Second).String()
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"field", "value"})
	table.SetBorder(true)
	table.AppendBulk([][]string{
		{"epoch", strconv.FormatUint(s.Epoch, 10)},
		{"difficulty", strconv.FormatUint(s.Difficulty, 10)},
		{"words", strconv.Itoa(vocabulary.WordCount(s.Difficulty))},
		{"seed", s.Seed.String()},
		{"epoch start", s.EpochStart.UTC().Format(time.RFC3339)},
		{"epoch end", s.EpochEnd.UTC().Format(time.RFC3339)},
		{"remaining", remaining},
		{"solutions last epoch", strconv.FormatUint(s.SolutionsInEpoch, 10)},
		{"total mined", strconv.FormatUint(s.TotalMined, 10)},
		{"total supply", strconv.FormatUint(s.TotalSupply, 10)},
		{"mint", s.Mint.String()},
	})
	table.Render()
}
