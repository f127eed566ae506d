// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Command zstdtool compresses, decompresses, and trains dictionaries
// for the zstd frame format implemented by github.com/gozstd/gozstd/zstd.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "zstdtool",
		Short: "compress, decompress, and train dictionaries for zstd frames",
	}
	root.AddCommand(newCompressCommand())
	root.AddCommand(newDecompressCommand())
	root.AddCommand(newTrainDictCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openInputOrStdin(args []string) (*os.File, func() error, error) {
	if len(args) == 0 {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func openOutputOrStdout(path string) (*os.File, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
