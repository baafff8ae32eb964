package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/printfarm/meshview/pkg/sample"
	"github.com/printfarm/meshview/pkg/stl"
)

var (
	sampleOutput string
	sampleASCII  bool
	sampleOpts   sample.Options
)

var sampleCmd = &cobra.Command{
	Use:       "sample <" + strings.Join(sample.Shapes(), "|") + ">",
	Short:     "Generate a fixture STL mesh",
	Args:      cobra.ExactArgs(1),
	ValidArgs: sample.Shapes(),
	RunE:      runSample,
}

func init() {
	f := sampleCmd.Flags()
	f.StringVarP(&sampleOutput, "output", "o", "", "output file (default <shape>.stl)")
	f.BoolVar(&sampleASCII, "ascii", false, "write ASCII instead of binary STL")
	f.Float64Var(&sampleOpts.Width, "width", 0, "box width along X")
	f.Float64Var(&sampleOpts.Height, "height", 0, "box or cylinder height along Y")
	f.Float64Var(&sampleOpts.Depth, "depth", 0, "box depth along Z")
	f.Float64Var(&sampleOpts.Radius, "radius", 0, "cylinder radius")
	f.IntVar(&sampleOpts.Cells, "cells", sample.DefaultCells, "marching cubes resolution")
	rootCmd.AddCommand(sampleCmd)
}

func runSample(cmd *cobra.Command, args []string) error {
	model, err := sample.Generate(args[0], sampleOpts)
	if err != nil {
		return err
	}

	out := sampleOutput
	if out == "" {
		out = args[0] + ".stl"
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}

	write := stl.WriteBinary
	if sampleASCII {
		write = stl.WriteASCII
	}
	if err := write(f, model); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s: %d triangles\n", out, model.TriangleCount())
	return nil
}
