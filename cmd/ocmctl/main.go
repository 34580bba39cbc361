// Command ocmctl is the operator CLI: it hashes the shared passphrase for
// HASHED_PASSPHRASE and generates artifact bundles without the web wizard.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ocmctl",
		Short:         "Operator tooling for the OCM artifact generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newHashCmd(), newGenerateCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
