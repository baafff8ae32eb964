package main

import (
	"fmt"
	"net/http"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/printfarm/meshview/pkg/catalog"
)

var (
	printableAPI  string
	printableView bool
)

var printableCmd = &cobra.Command{
	Use:   "printable [id]",
	Short: "List printables or show the mesh of one",
	Long: `Without an id, list the printables of the print farm API. With an id,
resolve its STL URL and report its dimensions, or open it with --view.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPrintable,
}

func init() {
	printableCmd.Flags().StringVar(&printableAPI, "api", "", "API base URL (default from config)")
	printableCmd.Flags().BoolVar(&printableView, "view", false, "open the mesh in the viewer")
	addViewFlags(printableCmd)
	rootCmd.AddCommand(printableCmd)
}

func newCatalog() *catalog.Client {
	base := cfg.APIBase
	if printableAPI != "" {
		base = printableAPI
	}
	return catalog.NewClient(base, &http.Client{Timeout: cfg.Fetch.Timeout})
}

func runPrintable(cmd *cobra.Command, args []string) error {
	ctx, cancel := fetchContext(cmd.Context())
	defer cancel()
	c := newCatalog()

	if len(args) == 0 {
		list, err := c.Printables(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCOLOR\tSTL")
		for _, p := range list {
			u, err := p.MeshURL()
			if err != nil {
				u = "-"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Name, p.Color, u)
		}
		return w.Flush()
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid printable id %q", args[0])
	}
	p, err := c.Printable(ctx, id)
	if err != nil {
		return err
	}
	u, err := p.MeshURL()
	if err != nil {
		return err
	}

	if printableView {
		props := viewProps(u)
		if viewColor == "" && p.Color != "" {
			props.Color = p.Color
		}
		// product pages show printables taller than the default view
		if viewHeight == 0 {
			props.Height = 420
		}
		return runView(p.Name, props, false)
	}

	return runInfo(cmd, []string{u})
}
