package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/mybank/expense-contract-tests/framework"
)

var (
	failedLabel  = color.New(color.FgRed).Sprint("FAILED")
	skippedLabel = color.New(color.FgYellow).Sprint("SKIPPED")
)

type ConsoleTestLogger struct {
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool
}

func (c *ConsoleTestLogger) TestStarted(id framework.TestID) {
	fmt.Printf("[%s]\n", id)
}

func (c *ConsoleTestLogger) TestError(id framework.TestID, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		fmt.Printf("  %s\n", line)
	}
}

func (c *ConsoleTestLogger) TestFinished(id framework.TestID, failed bool, debugOutput framework.CapturedOutput) {
	if failed {
		fmt.Printf("  %s: %s\n", failedLabel, id)
	}
	if len(debugOutput) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		debugOutput.Dump(os.Stdout, "    DEBUG ")
	}
}

func (c *ConsoleTestLogger) TestSkipped(id framework.TestID, reason string) {
	if reason == "" {
		fmt.Printf("  %s: %s\n", skippedLabel, id)
	} else {
		fmt.Printf("  %s: %s (%s)\n", skippedLabel, id, reason)
	}
}
