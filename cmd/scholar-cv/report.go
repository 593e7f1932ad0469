package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scholar-cv/internal/render"
	"github.com/pdiddy/scholar-cv/internal/report"
	"github.com/pdiddy/scholar-cv/internal/scrape"
	"github.com/pdiddy/scholar-cv/internal/sink"
	"github.com/pdiddy/scholar-cv/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a publication report",
	Long: `Report renders a LaTeX or Markdown publication list with summary
statistics (h-index, total citations, authorship positions). Records come
from a CSV written by the scrape subcommand (--from-csv) or from a fresh
scrape when a user id is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		vs := variantSetFromCmd(cmd)
		reportCfg := reportConfigFromCmd(cmd)

		records, err := reportRecords(cmd, vs)
		if err != nil {
			return err
		}

		ordered, summary := report.Assemble(records, vs, reportCfg)

		renderer, err := render.New(reportCfg)
		if err != nil {
			return err
		}

		if err := writeReport(cmd, renderer, ordered, summary, vs); err != nil {
			// A failed render must not waste a fresh scrape; salvage the
			// records as CSV so a later --from-csv run can retry.
			if fromCSV, _ := cmd.Flags().GetString("from-csv"); fromCSV == "" {
				if csvErr := sink.WriteFile("papers.csv", records); csvErr == nil {
					fmt.Fprintln(os.Stderr, "scraped records saved to papers.csv")
				}
			}
			return err
		}
		return nil
	},
}

func writeReport(cmd *cobra.Command, renderer render.Renderer, ordered []types.Publication, summary types.ReportSummary, vs types.VariantSet) error {
	output, _ := cmd.Flags().GetString("output")
	if output == "" || output == "-" {
		return renderer.Render(os.Stdout, ordered, summary, vs)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	if err := renderer.Render(f, ordered, summary, vs); err != nil {
		f.Close()
		return fmt.Errorf("rendering %s: %w", output, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("report with %d publications written to %s\n", summary.RecordCount, output)
	return nil
}

// reportRecords loads the record set from CSV or scrapes it fresh.
func reportRecords(cmd *cobra.Command, vs types.VariantSet) ([]types.Publication, error) {
	if fromCSV, _ := cmd.Flags().GetString("from-csv"); fromCSV != "" {
		return sink.ReadFile(fromCSV)
	}

	cfg := scrapeConfigFromCmd(cmd)
	if cfg.UserID == "" {
		return nil, fmt.Errorf("config: provide --from-csv or a user id (--user or scrape.user_id)")
	}

	client, closer, err := newPageClient(cfg)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer closer()
	}

	pubs, stats, err := scrape.Collect(cmd.Context(), client, vs, cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	if len(pubs) == 0 && stats.FetchFailures > 0 {
		return nil, fmt.Errorf("no publications collected after %d failed fetches", stats.FetchFailures)
	}
	return pubs, nil
}

func init() {
	reportCmd.Flags().String("from-csv", "", "read records from a CSV written by scrape")
	reportCmd.Flags().String("user", "", "scholar profile user id (scrapes fresh when set)")
	reportCmd.Flags().String("name", "", "canonical author name")
	reportCmd.Flags().StringArray("pseudonym", nil, "alternate spelling to unify (repeatable)")
	reportCmd.Flags().Int("max-records", 0, "stop after collecting this many publications (0 = no cap)")
	reportCmd.Flags().String("engine", "", "page client: http or browser")
	reportCmd.Flags().Bool("details", true, "fetch each entry's detail page for full author lists and per-year citations")
	reportCmd.Flags().String("format", "", "output format: latex or markdown")
	reportCmd.Flags().StringArray("journal", nil, "journal to track in the statistics paragraph (repeatable)")
	reportCmd.Flags().String("output", "", "output file (default: stdout)")

	rootCmd.AddCommand(reportCmd)
}
