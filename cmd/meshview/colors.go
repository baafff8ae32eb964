package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/printfarm/meshview/pkg/colors"
)

var colorsCmd = &cobra.Command{
	Use:   "colors",
	Short: "List the mesh color names",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tLABEL\tHEX\tCSS")
		for _, o := range colors.Options() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.Value, o.Label, o, colors.CSS(o.Value))
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(colorsCmd)
}
