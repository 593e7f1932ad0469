package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scholar-cv/internal/scrape"
	"github.com/pdiddy/scholar-cv/internal/sink"
	"github.com/pdiddy/scholar-cv/internal/store"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Collect publications from a scholar profile",
	Long: `Scrape pages through the publication list of a public scholar profile,
unifies the target author's name variants, and writes the collected records
as CSV. Duplicate entries across pagination batches are collapsed; malformed
entries are skipped with a warning.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := scrapeConfigFromCmd(cmd)
		vs := variantSetFromCmd(cmd)

		if cfg.UserID == "" {
			return fmt.Errorf("config: user id is required (--user or scrape.user_id)")
		}

		client, closer, err := newPageClient(cfg)
		if err != nil {
			return err
		}
		if closer != nil {
			defer closer()
		}

		pubs, stats, err := scrape.Collect(cmd.Context(), client, vs, cfg, os.Stderr)
		if err != nil {
			return err
		}
		if len(pubs) == 0 && stats.FetchFailures > 0 {
			return fmt.Errorf("no publications collected after %d failed fetches", stats.FetchFailures)
		}

		output, _ := cmd.Flags().GetString("output")
		if err := sink.WriteFile(output, pubs); err != nil {
			return err
		}

		if archive, _ := cmd.Flags().GetBool("archive"); archive {
			s, err := store.Open(storeConfigFromViper())
			if err != nil {
				return err
			}
			defer s.Close()
			runID, err := s.SaveRun(cmd.Context(), cfg.UserID, vs, pubs)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "archived as run %d\n", runID)
		}

		fmt.Printf("%d publications written to %s", len(pubs), output)
		if stats.Duplicates > 0 {
			fmt.Printf(" (%d duplicates removed)", stats.Duplicates)
		}
		if stats.Malformed > 0 {
			fmt.Printf(" (%d malformed entries skipped)", stats.Malformed)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	scrapeCmd.Flags().String("user", "", "scholar profile user id (e.g. -VPPZ8YAAAAJ)")
	scrapeCmd.Flags().String("name", "", "canonical author name (e.g. 'C. Sánchez Muñoz')")
	scrapeCmd.Flags().StringArray("pseudonym", nil, "alternate spelling to unify (repeatable)")
	scrapeCmd.Flags().Int("max-records", 0, "stop after collecting this many publications (0 = no cap)")
	scrapeCmd.Flags().String("output", "papers.csv", "output CSV file")
	scrapeCmd.Flags().String("engine", "", "page client: http or browser")
	scrapeCmd.Flags().Bool("details", true, "fetch each entry's detail page for full author lists and per-year citations")
	scrapeCmd.Flags().Bool("archive", false, "also save the run to the SQLite archive")

	rootCmd.AddCommand(scrapeCmd)
}
