package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gochat/internal/crypto"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Print a new message encryption key for CHAT_ENCRYPTION_KEY",
	Long: `Print a new random key. To rotate, move the current CHAT_ENCRYPTION_KEY into
CHAT_ENCRYPTION_PREVIOUS_KEYS and set the new key as CHAT_ENCRYPTION_KEY.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		key, err := crypto.GenerateKey()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}
