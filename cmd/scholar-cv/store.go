package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scholar-cv/internal/store"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect the run archive",
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived scrape runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(storeConfigFromViper())
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListRuns(cmd.Context())
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no archived runs")
			return nil
		}
		for _, r := range runs {
			fmt.Printf("%d\t%s\t%s\t%s\t%d records\n",
				r.ID, r.ScrapedAt.Format("2006-01-02 15:04"), r.UserID, r.CanonicalName, r.RecordCount)
		}
		return nil
	},
}

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export an archived run as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		runID, _ := cmd.Flags().GetInt64("run")
		if runID == 0 {
			return fmt.Errorf("config: --run is required")
		}

		st, err := store.Open(storeConfigFromViper())
		if err != nil {
			return err
		}
		defer st.Close()

		output, _ := cmd.Flags().GetString("output")
		if output == "" || output == "-" {
			return st.ExportYAML(cmd.Context(), runID, os.Stdout)
		}

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		if err := st.ExportYAML(cmd.Context(), runID, f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	},
}

func init() {
	storeExportCmd.Flags().Int64("run", 0, "archived run id (see store list)")
	storeExportCmd.Flags().String("output", "", "output file (default: stdout)")

	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeExportCmd)
	rootCmd.AddCommand(storeCmd)
}
