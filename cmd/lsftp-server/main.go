package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lsftp-server",
	Short: "LSFTP server daemon",
	Long: `lsftp-server runs the post-quantum-resistant secure file transfer
protocol's server side: it accepts QUIC connections, negotiates a crypto
suite per session, authenticates hardware tokens when configured, and
services file uploads and downloads under a configured root directory.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to server configuration YAML file")
}
