package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iyotee/LSFTP/wire/frame"
	"github.com/iyotee/LSFTP/wire/message"
)

var listCmd = &cobra.Command{
	Use:   "list [PATH]",
	Short: "List a directory on the server",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}

	_, conn, c, _, err := dialAndHandshake(cmd)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx := context.Background()
	if err := c.Send(ctx, &message.DirList{Path: path}); err != nil {
		return err
	}

	payload, err := c.Recv(ctx, frame.DefaultMaxPayloadSize)
	if err != nil {
		return fmt.Errorf("listing request failed: %w", err)
	}
	listing, ok := payload.(*message.DirList)
	if !ok {
		return fmt.Errorf("unexpected reply to listing request: %v", payload.Type())
	}

	for _, e := range listing.Entries {
		kind := "file"
		if e.IsDir {
			kind = "dir"
		}
		fmt.Printf("%-4s %10d  %s\n", kind, e.Size, e.Name)
	}
	return nil
}
