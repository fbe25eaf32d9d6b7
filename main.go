package main

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"regexp"

	"github.com/mybank/expense-contract-tests/config"
	"github.com/mybank/expense-contract-tests/framework"
	"github.com/mybank/expense-contract-tests/mockbank"
	"github.com/mybank/expense-contract-tests/suite"
)

func main() {
	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %s\n", err)
		os.Exit(1)
	}
	if params.serviceURL != "" {
		cfg.BaseURL = params.serviceURL
		cfg.UIBaseURL = params.serviceURL
	}
	if params.uiURL != "" {
		cfg.UIBaseURL = params.uiURL
	}

	if params.selfTest {
		url, err := startMockService()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not start built-in mock service: %s\n", err)
			os.Exit(1)
		}
		fmt.Printf("Running in self-test mode against built-in mock service at %s\n", url)
		cfg.BaseURL = url
		cfg.UIBaseURL = url
	}

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	harness, err := framework.NewHarness(cfg.BaseURL, cfg.StatusTimeout, mainDebugLogger, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service error: %s\n", err)
		os.Exit(1)
	}

	fmt.Println()
	framework.PrintFilterDescription(params.filters)

	fmt.Println("Running scenario suite")

	testLogger := ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}

	opts := suite.Options{Browser: params.browser}
	results := suite.RunTestSuite(harness, cfg, opts, params.filters.AsFilter, &testLogger)

	fmt.Println()
	framework.PrintResults(results)
	if !results.OK() {
		printRerunCommand(os.Args[0], params, results)
		os.Exit(1)
	}
}

// printRerunCommand suggests a command line that runs only the scenarios
// that just failed.
func printRerunCommand(program string, params commandParams, results framework.Results) {
	var b commandBuilder
	b.add(program)
	if params.serviceURL != "" {
		b.add("-url", params.serviceURL)
	}
	if params.browser {
		b.add("-browser")
	}
	b.add("-debug")
	for _, f := range results.Failures {
		b.add("-run", "^"+regexp.QuoteMeta(f.TestID.String())+"$")
	}
	fmt.Printf("\nTo rerun only the failed scenarios:\n  %s\n", b)
}

// startMockService runs the in-process service double on an ephemeral local
// port. The listener lives for the rest of the process.
func startMockService() (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	server := mockbank.NewServer()
	go func() {
		if err := http.Serve(listener, server.Handler()); err != nil {
			panic(err)
		}
	}()
	return "http://" + listener.Addr().String(), nil
}
