// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"github.com/spf13/cobra"

	"github.com/gozstd/gozstd/zstd"
)

type decompressFlags struct {
	output             string
	dictPath           string
	maxWindowSize      int
	strictReservedBits bool
}

func newDecompressCommand() *cobra.Command {
	var fl decompressFlags
	cmd := &cobra.Command{
		Use:   "decompress [file]",
		Short: "decompress a single zstd frame from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecompress(fl, args)
		},
	}
	cmd.Flags().StringVarP(&fl.output, "output", "o", "", "output file, omit for stdout")
	cmd.Flags().StringVar(&fl.dictPath, "dict", "", "path to a trained dictionary")
	cmd.Flags().IntVar(&fl.maxWindowSize, "max-window-size", 0, "reject frames declaring a window larger than this many bytes, 0 for unbounded")
	cmd.Flags().BoolVar(&fl.strictReservedBits, "strict-reserved-bits", false, "reject frame headers with a non-zero reserved bit")
	return cmd
}

func runDecompress(fl decompressFlags, args []string) error {
	in, closeIn, err := openInputOrStdin(args)
	if err != nil {
		return err
	}
	defer closeIn()

	out, closeOut, err := openOutputOrStdout(fl.output)
	if err != nil {
		return err
	}
	defer closeOut()

	dec := zstd.NewFrameDecoder(
		zstd.WithMaxWindowSize(fl.maxWindowSize),
		zstd.WithStrictReservedBits(fl.strictReservedBits),
	)
	if fl.dictPath != "" {
		dict, err := loadDictionary(fl.dictPath)
		if err != nil {
			return err
		}
		dec.AttachDictionary(dict)
	}

	if err := dec.Reset(in); err != nil {
		return err
	}
	if err := dec.DecodeBlocks(zstd.All()); err != nil {
		return err
	}
	for dec.CanCollect() > 0 {
		if _, err := dec.CollectToWriter(out); err != nil {
			return err
		}
	}
	return nil
}
