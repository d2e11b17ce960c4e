package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/poi-miner/post-miner/shared"
	"github.com/poi-miner/post-miner/verifying"
)

var (
	verifyFile       string
	verifySeed       string
	verifyDifficulty uint64
	verifyNonce      int64
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check a proof text against the rules of the program",
	Long: `verify checks that a text contains the vocabulary of the given seed and difficulty and
satisfies the structural rules of the configured protocol. With --nonce the proof hash is checked
as well, for the configured identity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		proto, err := selectedProtocol()
		if err != nil {
			return err
		}
		seed, err := shared.ParseSeed(verifySeed)
		if err != nil {
			return err
		}
		text, err := os.ReadFile(verifyFile)
		if err != nil {
			return err
		}

		words := proto.Words(seed, verifyDifficulty)
		if err := verifying.VerifyText(text, words, proto.Rules()); err != nil {
			if re, ok := verifying.IsRuleError(err); ok {
				return fmt.Errorf("text rejected by rule %q: %s", re.Rule, re.Detail)
			}
			return err
		}
		fmt.Printf("text ok: %d bytes, words %s\n", len(text), words)

		if verifyNonce < 0 {
			return nil
		}
		identity, err := cfg.MinerIdentity()
		if err != nil {
			return err
		}
		hash, err := verifying.VerifyProof(seed, identity, text, uint64(verifyNonce), verifyDifficulty)
		if errors.Is(err, shared.ErrInsufficientDifficulty) {
			return fmt.Errorf("nonce %d: hash %x does not meet difficulty %d", verifyNonce, hash, verifyDifficulty)
		}
		if err != nil {
			return err
		}
		fmt.Printf("proof ok: hash %x\n", hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	flags := verifyCmd.Flags()
	flags.StringVar(&verifyFile, "file", "", "path to the proof text")
	flags.StringVar(&verifySeed, "seed", shared.ZeroSeed.String(), "hex encoded 32 byte seed")
	flags.Uint64Var(&verifyDifficulty, "difficulty", 8, "puzzle difficulty")
	flags.Int64Var(&verifyNonce, "nonce", -1, "nonce to check the proof hash for")
	_ = verifyCmd.MarkFlagRequired("file")
}
