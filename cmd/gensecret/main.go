package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

const (
	SecretKeyBytesLen = 32

	// One secret per token kind: access and refresh
	defaultCount = 2
)

func main() {
	if err := newRootCmd(rand.Reader).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(random io.Reader) *cobra.Command {
	var (
		size  int
		count int
	)

	cmd := &cobra.Command{
		Use:          "gensecret",
		Short:        "Generate hex encoded secrets to sign access and refresh tokens",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if size <= 0 || count <= 0 {
				return errors.New("bytes and count must be positive")
			}

			for range count {
				secret, err := generate(random, size)
				if err != nil {
					return fmt.Errorf("error while generating secret key: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), secret)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&size, "bytes", "b", SecretKeyBytesLen, "Secret length in bytes")
	cmd.Flags().IntVarP(&count, "count", "c", defaultCount, "Number of secrets to print")

	return cmd
}

func generate(random io.Reader, size int) (string, error) {
	b := make([]byte, size)
	if _, err := io.ReadFull(random, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
