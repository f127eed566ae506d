// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gozstd/gozstd/zstd"
)

type compressFlags struct {
	output       string
	uncompressed bool
	checksum     bool
	dictPath     string
}

func newCompressCommand() *cobra.Command {
	var fl compressFlags
	cmd := &cobra.Command{
		Use:   "compress [file]",
		Short: "compress a file or stdin into a single zstd frame",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompress(fl, args)
		},
	}
	cmd.Flags().StringVarP(&fl.output, "output", "o", "", "output file, omit for stdout")
	cmd.Flags().BoolVar(&fl.uncompressed, "uncompressed", false, "store content in raw blocks with no entropy coding")
	cmd.Flags().BoolVar(&fl.checksum, "checksum", false, "append a content checksum to the frame")
	cmd.Flags().StringVar(&fl.dictPath, "dict", "", "path to a trained dictionary")
	return cmd
}

func runCompress(fl compressFlags, args []string) error {
	in, closeIn, err := openInputOrStdin(args)
	if err != nil {
		return err
	}
	defer closeIn()

	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutputOrStdout(fl.output)
	if err != nil {
		return err
	}
	defer closeOut()

	level := zstd.Compressed
	if fl.uncompressed {
		level = zstd.Uncompressed
	}
	enc := zstd.NewFrameEncoder(
		zstd.WithLevel(level),
		zstd.WithContentChecksum(fl.checksum),
	)

	if fl.dictPath != "" {
		dict, err := loadDictionary(fl.dictPath)
		if err != nil {
			return err
		}
		enc.AttachDictionary(dict)
	}

	return enc.Encode(out, data)
}

func loadDictionary(path string) (*zstd.Dictionary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return zstd.DecodeDictionary(raw)
}
