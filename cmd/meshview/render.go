package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/printfarm/meshview/pkg/normalize"
	"github.com/printfarm/meshview/pkg/viewer"
	"github.com/printfarm/meshview/pkg/viewer/headless"
)

var (
	renderOutput  string
	renderWidth   int
	renderFrames  int
	renderCaption bool
)

var renderCmd = &cobra.Command{
	Use:   "render <url|file>",
	Short: "Render a single frame of an STL mesh to PNG",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	addViewFlags(renderCmd)
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "preview.png", "output PNG file")
	renderCmd.Flags().IntVar(&renderWidth, "width", viewer.DefaultWidth, "image width in pixels")
	renderCmd.Flags().IntVar(&renderFrames, "frames", 1, "frames to draw before capturing")
	renderCmd.Flags().BoolVar(&renderCaption, "caption", true, "draw the dimensions into the image")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx, cancel := fetchContext(cmd.Context())
	defer cancel()

	img, dims, err := headless.Capture(ctx, newDevice(), newLoader(), viewProps(args[0]), renderWidth, renderFrames,
		viewer.WithLogger(logger))
	if err != nil {
		return err
	}
	if renderCaption {
		drawCaption(img, dims)
	}

	f, err := os.Create(renderOutput)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", renderOutput, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", renderOutput, dims)
	return nil
}

func drawCaption(img *image.RGBA, dims normalize.Dimensions) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{R: 0x2d, G: 0x37, B: 0x48, A: 0xff}),
		Face: face,
		Dot:  fixed.P(8, img.Bounds().Dy()-8),
	}
	d.DrawString(dims.String())
}
