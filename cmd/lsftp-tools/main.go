package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lsftp-tools",
	Short: "LSFTP operator utilities",
	Long: `lsftp-tools bundles the operator-side utilities around the
post-quantum-resistant secure file transfer protocol: key generation,
hardware authenticator enumeration, audit journal verification, and
configuration validation.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
