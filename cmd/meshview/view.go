package main

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/spf13/cobra"

	"github.com/printfarm/meshview/pkg/colors"
	"github.com/printfarm/meshview/pkg/loader"
	"github.com/printfarm/meshview/pkg/normalize"
	"github.com/printfarm/meshview/pkg/viewer"
	"github.com/printfarm/meshview/pkg/viewer/fynehost"
	"github.com/printfarm/meshview/pkg/watcher"
)

var (
	viewColor  string
	viewHeight int
	viewWatch  bool
)

var viewCmd = &cobra.Command{
	Use:   "view <url|file>",
	Short: "Open an interactive 3D view of an STL mesh",
	Long: `Open a window showing the mesh on a ground grid. Drag to orbit, right-drag
to pan and scroll to zoom. With --watch a local file is reloaded whenever it
changes on disk.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runView(args[0], viewProps(args[0]), viewWatch)
	},
}

func init() {
	addViewFlags(viewCmd)
	viewCmd.Flags().BoolVar(&viewWatch, "watch", false, "reload a local file when it changes")
	rootCmd.AddCommand(viewCmd)
}

func addViewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&viewColor, "color", "", "mesh color name (see the colors command)")
	cmd.Flags().IntVar(&viewHeight, "height", 0, "viewport height in pixels")
}

// viewProps merges flags over the configured viewer defaults
func viewProps(src string) viewer.Props {
	props := viewer.Props{URL: src, Height: cfg.Viewer.Height, Color: cfg.Viewer.Color}
	if viewColor != "" {
		props.Color = viewColor
	}
	if viewHeight > 0 {
		props.Height = viewHeight
	}
	return props
}

func runView(title string, props viewer.Props, watch bool) error {
	a := app.New()
	w := a.NewWindow("meshview - " + title)

	status := widget.NewLabel("Loading...")
	view := fynehost.NewView(props.Height, cfg.Viewer.FPS)
	v := viewer.New(newDevice(), view, newLoader(),
		viewer.WithLogger(logger),
		viewer.WithDampingFactor(cfg.Viewer.Damping),
	)

	props.OnDimensionsCalculated = func(d normalize.Dimensions) {
		fyne.Do(func() { status.SetText(fmt.Sprintf("Dimensions: %s", d)) })
	}

	// report load failures; dimensions arrive through the callback
	track := func() {
		go func() {
			state, err := v.Wait(context.Background())
			if state == viewer.StateFailed {
				fyne.Do(func() { status.SetText(fmt.Sprintf("Failed to load: %v", err)) })
			}
		}()
	}

	names := make([]string, 0, len(colors.Options()))
	for _, o := range colors.Options() {
		names = append(names, o.Value)
	}
	picker := widget.NewSelect(names, func(name string) {
		if name == props.Color {
			return
		}
		props.Color = name
		status.SetText("Loading...")
		if err := v.Update(props); err != nil {
			logger.Printf("update: %v", err)
		}
		track()
	})
	if _, ok := colors.Lookup(props.Color); ok {
		picker.SetSelected(props.Color)
	}

	if err := v.Mount(view, props); err != nil {
		status.SetText(fmt.Sprintf("Error: %v", err))
	}
	track()

	if path, ok := loader.LocalPath(props.URL); ok && watch {
		fw, err := watcher.NewFileWatcher(cfg.Watch.Debounce, logger)
		if err != nil {
			return err
		}
		defer fw.Close()
		if err := fw.Watch(path, func(string) {
			fyne.Do(func() { status.SetText("Reloading...") })
			if err := v.Reload(); err != nil {
				logger.Printf("reload: %v", err)
			}
			track()
		}); err != nil {
			return err
		}
		fw.Start()
	}

	w.SetOnClosed(func() {
		v.Unmount()
		view.Stop()
	})
	w.SetContent(container.NewBorder(
		container.NewHBox(widget.NewLabel("Color"), picker),
		status, nil, nil,
		view,
	))
	w.Resize(fyne.NewSize(float32(viewer.DefaultWidth), float32(props.Height+80)))
	w.ShowAndRun()
	return nil
}
