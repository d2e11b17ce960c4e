package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/poi-miner/post-miner/shared"
)

var (
	wordsSeed       string
	wordsDifficulty uint64
)

var wordsCmd = &cobra.Command{
	Use:   "words",
	Short: "Print the vocabulary derived from a seed",
	RunE: func(cmd *cobra.Command, args []string) error {
		proto, err := selectedProtocol()
		if err != nil {
			return err
		}
		seed, err := shared.ParseSeed(wordsSeed)
		if err != nil {
			return err
		}
		for i, w := range proto.Words(seed, wordsDifficulty) {
			fmt.Printf("%d\t%s\n", i+1, w)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(wordsCmd)
	wordsCmd.Flags().StringVar(&wordsSeed, "seed", shared.ZeroSeed.String(), "hex encoded 32 byte seed")
	wordsCmd.Flags().Uint64Var(&wordsDifficulty, "difficulty", 8, "puzzle difficulty")
}
