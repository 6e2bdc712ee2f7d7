package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/founder-finder/internal/results"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Compare a results file against expected founders",
	Long: `Verify loads a results file produced by find and checks each company
against an expected-founders YAML file. Name comparison ignores case and
order. Companies missing from the results file are reported as not found.`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().String("results", "founders.json", "results file to check")
	verifyCmd.Flags().String("expected", "expected.yaml", "expected founders file")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	resultsPath, _ := cmd.Flags().GetString("results")
	expectedPath, _ := cmd.Flags().GetString("expected")

	actual, err := results.Load(resultsPath)
	if err != nil {
		return err
	}
	expected, err := results.LoadExpected(expectedPath)
	if err != nil {
		return err
	}

	report := results.Verify(actual, expected)
	report.Print(os.Stdout)

	if !report.AllCorrect() {
		return fmt.Errorf("%d of %d companies incorrect", len(report.Checks)-report.Correct(), len(report.Checks))
	}
	return nil
}
