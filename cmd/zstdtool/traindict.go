// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v2"
	"github.com/spf13/cobra"

	"github.com/gozstd/gozstd/zstd"
)

type trainDictFlags struct {
	output      string
	segmentSize int
	maxDictSize int
	progress    bool
}

func newTrainDictCommand() *cobra.Command {
	var fl trainDictFlags
	cmd := &cobra.Command{
		Use:   "train-dict [file...]",
		Short: "train a dictionary from sample files using the COVER algorithm",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrainDict(fl, args)
		},
	}
	cmd.Flags().StringVarP(&fl.output, "output", "o", "dictionary.zdict", "output dictionary path")
	cmd.Flags().IntVar(&fl.segmentSize, "segment-size", zstd.DefaultDictParams().SegmentSize, "candidate segment size in bytes")
	cmd.Flags().IntVar(&fl.maxDictSize, "max-dict-size", zstd.DefaultDictParams().MaxDictSize, "maximum trained dictionary size in bytes")
	cmd.Flags().BoolVar(&fl.progress, "progress", true, "display a progress bar over training epochs")
	return cmd
}

func runTrainDict(fl trainDictFlags, args []string) error {
	samples := make([][]byte, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		samples = append(samples, data)
	}

	params := zstd.DictParams{SegmentSize: fl.segmentSize, MaxDictSize: fl.maxDictSize}

	var opts []zstd.TrainOption
	if fl.progress {
		var bar *progressbar.ProgressBar
		opts = append(opts, zstd.WithEpochProgress(func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetPredictTime(true))
			}
			bar.Add(1)
		}))
	}

	dict, err := zstd.Train(samples, params, opts...)
	if err != nil {
		return err
	}

	encoded, err := dict.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(fl.output, encoded, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "\nwrote %d-byte dictionary to %s\n", len(dict.Content), fl.output)
	return nil
}
