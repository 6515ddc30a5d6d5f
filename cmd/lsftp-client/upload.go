package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iyotee/LSFTP/cryptosuite"
	"github.com/iyotee/LSFTP/transfer"
)

var uploadRemotePath string

var uploadCmd = &cobra.Command{
	Use:   "upload LOCAL_FILE",
	Short: "Upload a local file to the server",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&uploadRemotePath, "remote-path", "", "destination path on the server (defaults to the local file's base name)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	localPath := args[0]
	cfg, conn, c, _, err := dialAndHandshake(cmd)
	if err != nil {
		return err
	}
	defer conn.Close()

	remotePath := uploadRemotePath
	if remotePath == "" {
		remotePath = filepath.Base(localPath)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open local file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat local file: %w", err)
	}

	hasher, err := cryptosuite.NewHash(cfg.Crypto.MinSuite().Hash)
	if err != nil {
		return err
	}

	result, err := transfer.Upload(context.Background(), c, hasher, remotePath, uint64(info.Size()), uint32(info.Mode().Perm()), nil, f, nil, cfg.ChunkSize)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	fmt.Printf("uploaded %s -> %s: %d bytes in %d chunks (%s)\n",
		localPath, remotePath, result.BytesTransferred, result.ChunkCount, result.Duration)
	return nil
}
