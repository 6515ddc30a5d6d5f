package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/iyotee/LSFTP/cryptosuite"
	"github.com/iyotee/LSFTP/wire/frame"
	"github.com/iyotee/LSFTP/wire/message"
)

var verifyLocalPath string

var verifyCmd = &cobra.Command{
	Use:   "verify REMOTE_PATH",
	Short: "Check a remote file's hash, optionally against a local copy",
	Long: `verify asks the server to hash REMOTE_PATH and reports the result.
With --local, it also hashes the named local file and reports whether the
two match, without transferring the remote file's contents.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&verifyLocalPath, "local", "", "local file to compare the remote hash against")
}

func runVerify(cmd *cobra.Command, args []string) error {
	remotePath := args[0]
	cfg, conn, c, _, err := dialAndHandshake(cmd)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx := context.Background()
	if err := c.Send(ctx, &message.FileOpen{Path: remotePath, Metadata: map[string]string{"op": "verify"}}); err != nil {
		return err
	}
	payload, err := c.Recv(ctx, frame.DefaultMaxPayloadSize)
	if err != nil {
		return fmt.Errorf("verify request failed: %w", err)
	}
	reply, ok := payload.(*message.FileOpen)
	if !ok {
		return fmt.Errorf("unexpected reply to verify request: %v", payload.Type())
	}
	if reply.DeclaredSize == 0 && reply.DeclaredHash == ([32]byte{}) {
		return fmt.Errorf("server could not hash %s", remotePath)
	}

	fmt.Printf("%s: %d bytes, hash=%x\n", remotePath, reply.DeclaredSize, reply.DeclaredHash)

	if verifyLocalPath == "" {
		return nil
	}

	f, err := os.Open(verifyLocalPath)
	if err != nil {
		return fmt.Errorf("failed to open local file: %w", err)
	}
	defer f.Close()

	hasher, err := cryptosuite.NewHash(cfg.Crypto.MinSuite().Hash)
	if err != nil {
		return err
	}
	h := hasher.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("failed to hash local file: %w", err)
	}
	var localSum [32]byte
	copy(localSum[:], h.Sum(nil))

	if localSum == reply.DeclaredHash {
		fmt.Println("match")
		return nil
	}
	return fmt.Errorf("mismatch: local hash=%x", localSum)
}
