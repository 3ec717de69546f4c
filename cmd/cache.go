package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/landpermit-cli/internal/addrcache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the address cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show entry counts of the configured address cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initCache(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Load(ctx); err != nil {
			return eris.Wrap(err, "load address cache")
		}

		s := addrcache.Summarize(st)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "driver:           %s\n", cfg.Cache.Driver)
		fmt.Fprintf(out, "entries:          %d\n", s.Entries)
		fmt.Fprintf(out, "resolved:         %d\n", s.Resolved)
		fmt.Fprintf(out, "empty name:       %d\n", s.EmptyName)
		fmt.Fprintf(out, "no results:       %d\n", s.NoResults)
		fmt.Fprintf(out, "no building name: %d\n", s.NoBuildingName)
		fmt.Fprintf(out, "lookup errors:    %d\n", s.LookupErrors)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	rootCmd.AddCommand(cacheCmd)
}
