package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func trendsCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Print the current trending repositories",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, os.Stderr)
			if err != nil {
				return err
			}
			ctx := a.logger.WithContext(cmd.Context())

			res, err := a.trends.GetOrRefresh(ctx, time.Now())
			if err != nil {
				return fmt.Errorf("fetching trends: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res.Repos)
			}

			if len(res.Repos) == 0 {
				fmt.Fprintln(out, "No trending repositories found")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tREPOSITORY\tSTARS\tLANGUAGE\tURL")
			for i, r := range res.Repos {
				lang := "-"
				if r.Language != nil {
					lang = *r.Language
				}
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", i+1, r.FullName, r.Stars, lang, r.URL)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the repositories as JSON")
	return cmd
}
