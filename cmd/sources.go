package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/regwatch/regwatch-crawler/internal/source"
)

func newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Lists the built-in sources and their pacing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, sc := range source.All() {
				rendered := "static"
				if sc.RenderedListing || sc.RenderedDetail {
					rendered = "rendered"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-6s %-14s %-9s delay=%s max_items=%d unknown_date=%s\n",
					sc.Name, sc.Label, rendered, sc.InterRequestDelay, sc.MaxItems, sc.UnknownDate)
			}
			return nil
		},
	}
}
