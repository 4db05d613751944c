package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/ideaflow/internal/score"
)

var rubricCmd = &cobra.Command{
	Use:   "rubric",
	Short: "Print the scoring rubric and tier thresholds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if jsonOutput {
			return printJSON(os.Stdout, score.Criteria())
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "STAGE\tCRITERION\tMAX\tDESCRIPTION")
		for _, c := range score.Criteria() {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", c.Stage, c.Key, c.Max, c.Description)
		}
		_ = tw.Flush()

		fmt.Printf("\nTiers: %s >= %d, %s >= %d, %s >= %d, otherwise %s\n",
			score.TierExceptional, score.ExceptionalMin,
			score.TierQualified, score.QualifiedMin,
			score.TierDeveloping, score.DevelopingMin,
			score.TierPending)
		return nil
	},
}

func init() {
	rubricCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
	rootCmd.AddCommand(rubricCmd)
}
