package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vibeocm/vibeocm-backend/internal/auth/passphrase"
)

func newHashCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-passphrase <passphrase>",
		Short: "Print the bcrypt hash to use as HASHED_PASSPHRASE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := passphrase.Hash(args[0], cost)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, hash)
			fmt.Fprintf(out, "\nAdd this to your environment:\nHASHED_PASSPHRASE=%q\n", hash)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", passphrase.DefaultCost, "bcrypt cost factor")
	return cmd
}
