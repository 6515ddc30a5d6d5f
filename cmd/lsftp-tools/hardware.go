package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iyotee/LSFTP/hardwareauth"
)

var hardwareUseSimulated bool

var hardwareCmd = &cobra.Command{
	Use:   "hardware",
	Short: "Enumerate available hardware authenticators",
	RunE:  runHardware,
}

func init() {
	rootCmd.AddCommand(hardwareCmd)
	hardwareCmd.Flags().BoolVar(&hardwareUseSimulated, "simulated", false, "include the simulated TPM device alongside real smart cards")
}

func runHardware(cmd *cobra.Command, args []string) error {
	devices, err := hardwareauth.Enumerate(hardwareUseSimulated)
	if err != nil {
		return fmt.Errorf("failed to enumerate hardware authenticators: %w", err)
	}
	if len(devices) == 0 {
		fmt.Println("no hardware authenticators found")
		return nil
	}
	for _, d := range devices {
		fmt.Printf("%-12s %-20s %s %s (%s) [%s]\n",
			d.DeviceType, d.DeviceID, d.Manufacturer, d.Model, d.FirmwareVersion, strings.Join(d.SupportedAlgorithms, ","))
	}
	return nil
}
