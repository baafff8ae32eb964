package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/printfarm/meshview/pkg/normalize"
	"github.com/printfarm/meshview/pkg/viewer"
	"github.com/printfarm/meshview/pkg/viewer/ebitenhost"
)

var playCmd = &cobra.Command{
	Use:   "play <url|file>",
	Short: "Show an STL mesh in a lightweight game window",
	Long:  "Like view, but hosted by an ebiten game loop instead of a fyne window.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlay,
}

func init() {
	addViewFlags(playCmd)
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	props := viewProps(args[0])
	win := ebitenhost.NewWindow(viewer.DefaultWidth, props.Height)
	win.SetCaption("Loading...")

	props.OnDimensionsCalculated = func(d normalize.Dimensions) {
		win.SetCaption(fmt.Sprintf("%s\n%s", args[0], d))
	}

	v := viewer.New(newDevice(), win, newLoader(),
		viewer.WithLogger(logger),
		viewer.WithDampingFactor(cfg.Viewer.Damping),
	)
	if err := v.Mount(win, props); err != nil {
		return err
	}
	defer v.Unmount()

	go func() {
		if state, err := v.Wait(cmd.Context()); state == viewer.StateFailed {
			win.SetCaption(fmt.Sprintf("Failed to load: %v", err))
		}
	}()

	return win.Open("meshview - " + args[0])
}
