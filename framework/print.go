package framework

import (
	"fmt"

	"github.com/fatih/color"
)

var (
	passColor = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

// PrintResults writes the end-of-run summary to standard output.
func PrintResults(results Results) {
	skipped := 0
	for _, r := range results.Tests {
		if r.Skipped {
			skipped++
		}
	}
	ran := len(results.Tests) - skipped

	if results.OK() {
		passColor.Printf("All scenarios passed")
		fmt.Printf(" (%d ran, %d skipped)\n", ran, skipped)
		return
	}

	failColor.Printf("FAILED scenarios (%d/%d):\n", len(results.Failures), ran)
	for _, f := range results.Failures {
		fmt.Printf("  %s\n", f.TestID)
		for _, err := range f.Errors {
			fmt.Printf("    %s\n", err)
		}
	}
}
