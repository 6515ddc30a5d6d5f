package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iyotee/LSFTP/cryptosuite"
	"github.com/iyotee/LSFTP/transfer"
	"github.com/iyotee/LSFTP/wire/frame"
	"github.com/iyotee/LSFTP/wire/message"
)

var downloadLocalPath string

var downloadCmd = &cobra.Command{
	Use:   "download REMOTE_PATH",
	Short: "Download a file from the server",
	Args:  cobra.ExactArgs(1),
	RunE:  runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().StringVar(&downloadLocalPath, "local-path", "", "destination path on the local filesystem (defaults to the remote path's base name)")
}

// fileWriteSink adapts an *os.File to transfer.DownloadSink.
type fileWriteSink struct{ f *os.File }

func (s fileWriteSink) Write(chunk []byte) error {
	_, err := s.f.Write(chunk)
	return err
}

func runDownload(cmd *cobra.Command, args []string) error {
	remotePath := args[0]
	cfg, conn, c, _, err := dialAndHandshake(cmd)
	if err != nil {
		return err
	}
	defer conn.Close()

	localPath := downloadLocalPath
	if localPath == "" {
		localPath = filepath.Base(remotePath)
	}

	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}
	defer out.Close()

	if err := c.Send(context.Background(), &message.FileOpen{Path: remotePath, Metadata: map[string]string{"op": "download"}}); err != nil {
		return err
	}

	hasher, err := cryptosuite.NewHash(cfg.Crypto.MinSuite().Hash)
	if err != nil {
		return err
	}
	running := hasher.New()
	sink := fileWriteSink{f: out}

	var totalBytes uint64
	var chunkCount uint32
	for {
		payload, err := c.Recv(context.Background(), frame.DefaultMaxPayloadSize)
		if err != nil {
			return fmt.Errorf("download stream ended early: %w", err)
		}
		switch m := payload.(type) {
		case *message.FileOpen:
			// The server's response FileOpen carries the file's real
			// size in place of the client's request placeholder.
			continue
		case *message.FileData:
			if err := transfer.ApplyDownloadChunk(running, sink, m); err != nil {
				return err
			}
			totalBytes += uint64(len(m.Data))
			chunkCount++
		case *message.FileClose:
			if err := transfer.VerifyFinalHash(running, m); err != nil {
				return err
			}
			fmt.Printf("downloaded %s -> %s: %d bytes in %d chunks\n", remotePath, localPath, totalBytes, chunkCount)
			return nil
		default:
			return fmt.Errorf("unexpected message during download: %v", payload.Type())
		}
	}
}
