package cmd

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/poi-miner/post-miner/internal/journal"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the local journal of solutions and transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := journal.Open(cfg.DataDir, logger.Named("journal"))
		if err != nil {
			return err
		}
		defer j.Close()

		entries, err := j.List(context.Background(), historyLimit)
		if err != nil {
			return err
		}

		data := make([][]string, 0, len(entries))
		for _, e := range entries {
			detail := e.Signature
			switch {
			case e.Action == journal.ActionSolution:
				detail = "nonce " + strconv.FormatUint(e.Nonce, 10) + " hash " + e.Hash[:16]
			case e.Error != "":
				detail = e.Error
			}
			data = append(data, []string{
				e.Recorded.Format(time.DateTime),
				e.Action,
				strconv.FormatUint(e.Epoch, 10),
				detail,
			})
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"time", "action", "epoch", "detail"})
		table.SetBorder(true)
		table.AppendBulk(data)
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "number of entries to print, 0 for all")
}
