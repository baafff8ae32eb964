package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/printfarm/meshview/pkg/analysis"
	"github.com/printfarm/meshview/pkg/normalize"
	"github.com/printfarm/meshview/pkg/stl"
)

var infoJSON bool

var infoCmd = &cobra.Command{
	Use:   "info <url|file>...",
	Short: "Display dimensions and statistics of STL meshes",
	Long:  "Load every argument concurrently and report triangle count, bounds, dimensions and the unit frame transform.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "print one JSON object per mesh")
	rootCmd.AddCommand(infoCmd)
}

type infoResult struct {
	source string
	model  *stl.Model
	report *analysis.Report
	err    error
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx, cancel := fetchContext(cmd.Context())
	defer cancel()

	l := newLoader()
	results := make([]infoResult, len(args))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, src := range args {
		g.Go(func() error {
			model, err := l.LoadModel(ctx, src)
			results[i] = infoResult{source: src, model: model, err: err}
			if err == nil {
				results[i].report = analysis.Analyze(model.Mesh())
			}
			return nil
		})
	}
	g.Wait()

	var errs []error
	for i, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		if infoJSON {
			if err := printInfoJSON(cmd.OutOrStdout(), r); err != nil {
				return err
			}
			continue
		}
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		printInfo(cmd.OutOrStdout(), r)
	}

	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d meshes failed to load: %w", len(errs), len(args), errors.Join(errs...))
	}
	return nil
}

func printInfo(w io.Writer, r infoResult) {
	rep := r.report

	fmt.Fprintln(w, "STL Mesh Information")
	fmt.Fprintln(w, "====================")
	if r.model.Name != "" {
		fmt.Fprintf(w, "Name: %s\n", r.model.Name)
	}
	fmt.Fprintf(w, "Source: %s\n", r.source)
	fmt.Fprintf(w, "Format: %s\n\n", r.model.Format)

	fmt.Fprintln(w, "Mesh Statistics:")
	fmt.Fprintf(w, "  Triangles: %d\n", rep.Triangles)
	fmt.Fprintf(w, "  Edges: %d (%d open)\n", rep.EdgeCount, rep.OpenEdges)
	fmt.Fprintf(w, "  Watertight: %t\n", rep.Watertight())
	fmt.Fprintf(w, "  Surface Area: %.3f\n", rep.SurfaceArea)
	if rep.Watertight() {
		fmt.Fprintf(w, "  Volume: %.3f\n", rep.Volume)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Bounding Box:")
	fmt.Fprintf(w, "  Min: %s\n", analysis.FormatVector(rep.Bounds.Min))
	fmt.Fprintf(w, "  Max: %s\n", analysis.FormatVector(rep.Bounds.Max))
	fmt.Fprintf(w, "  Center: %s\n", analysis.FormatVector(rep.Bounds.Center()))
	fmt.Fprintf(w, "  Diagonal: %.3f\n\n", rep.Bounds.Diagonal())

	fmt.Fprintln(w, "Dimensions:")
	fmt.Fprintf(w, "  Width (X): %.1f\n", rep.Dimensions.Width)
	fmt.Fprintf(w, "  Height (Y): %.1f\n", rep.Dimensions.Height)
	fmt.Fprintf(w, "  Depth (Z): %.1f\n\n", rep.Dimensions.Depth)

	fmt.Fprintln(w, "Unit Frame:")
	fmt.Fprintf(w, "  Scale: %g\n", rep.Transform.Scale)
	fmt.Fprintf(w, "  Translation: %s\n", analysis.FormatVector(rep.Transform.Translation))

	if err := rep.Err(); err != nil {
		fmt.Fprintf(w, "\nWarning: %v\n", err)
	}
}

func printInfoJSON(w io.Writer, r infoResult) error {
	rep := r.report
	out := struct {
		Source      string               `json:"source"`
		Name        string               `json:"name,omitempty"`
		Format      string               `json:"format"`
		Triangles   int                  `json:"triangles"`
		Dimensions  normalize.Dimensions `json:"dimensions"`
		Scale       float64              `json:"scale"`
		SurfaceArea float64              `json:"surface_area"`
		Watertight  bool                 `json:"watertight"`
		Degenerate  bool                 `json:"degenerate"`
	}{
		Source:      r.source,
		Name:        r.model.Name,
		Format:      r.model.Format.String(),
		Triangles:   rep.Triangles,
		Dimensions:  rep.Dimensions,
		Scale:       rep.Transform.Scale,
		SurfaceArea: rep.SurfaceArea,
		Watertight:  rep.Watertight(),
		Degenerate:  rep.Degenerate,
	}
	return json.NewEncoder(w).Encode(out)
}
