package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shivambatholiya/knovator-job-import/internal/feed"
)

func (c *cli) fetchCmd() *cobra.Command {
	var (
		timeout time.Duration
		all     bool
	)
	cmd := &cobra.Command{
		Use:   "fetch <feed-url>",
		Short: "Download and normalise one feed without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := feed.NewNormalizer(timeout, c.log)
			items, err := n.FetchAndNormalize(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "fetched %d items from %s\n", len(items), args[0])
			if len(items) == 0 {
				return nil
			}

			var v any = items[0]
			if all {
				v = items
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", feed.DefaultTimeout, "feed download timeout")
	cmd.Flags().BoolVar(&all, "all", false, "print every item instead of the first")
	return cmd
}
