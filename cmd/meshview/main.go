package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/printfarm/meshview/internal/config"
	"github.com/printfarm/meshview/pkg/loader"
	"github.com/printfarm/meshview/pkg/render"
	"github.com/printfarm/meshview/version"
)

var (
	configPath string
	cfg        config.Config
	logger     = log.New(os.Stderr, "meshview: ", 0)
)

var rootCmd = &cobra.Command{
	Use:   "meshview",
	Short: "Inspect and preview STL meshes",
	Long: `meshview loads ASCII and binary STL meshes from files or URLs, reports
their dimensions and shows them in an interactive 3D view.`,
	Version:       version.GetFullVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/meshview/config.yaml)")
}

// newLoader builds a mesh loader from the fetch settings
func newLoader() *loader.Loader {
	return loader.New(&loader.HTTPFetcher{
		Client:   &http.Client{Timeout: cfg.Fetch.Timeout},
		MaxBytes: cfg.Fetch.MaxBytes,
	})
}

func newDevice() *render.Device {
	return render.NewDevice(cfg.Viewer.MaxPixelRatio)
}

// fetchContext bounds a command by the configured fetch timeout
func fetchContext(parent context.Context) (context.Context, context.CancelFunc) {
	if cfg.Fetch.Timeout > 0 {
		return context.WithTimeout(parent, cfg.Fetch.Timeout)
	}
	return context.WithCancel(parent)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
