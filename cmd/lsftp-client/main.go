package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lsftp-client",
	Short: "LSFTP client",
	Long: `lsftp-client dials a post-quantum-resistant secure file transfer
server, negotiates a crypto suite, and uploads, downloads or lists files
under the server's configured root directory.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to client configuration YAML file")
}
