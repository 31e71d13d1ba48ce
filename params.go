package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/agroweb/integration-harness/framework/agtest"
)

type commandParams struct {
	filters        agtest.RegexFilters
	skipFile       string
	recordFailures string
	debug          bool
	debugAll       bool
	jUnitFile      string
	resultsDSN     string
	envFile        string
	mockServices   bool
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.StringVar(&c.skipFile, "skip-file", "", "file listing test IDs to skip, one per line")
	fs.StringVar(&c.recordFailures, "record-failures", "", "write the IDs of failed tests to this file")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
	fs.StringVar(&c.jUnitFile, "junit", "",
		"write JUnit XML output to the specified path (a bare file name goes in REPORT_OUTPUT_DIR)")
	fs.StringVar(&c.resultsDSN, "results", "",
		"archive the run summary: file://path.json, redis://host:port, consul://host:port or dynamodb://table")
	fs.StringVar(&c.envFile, "env-file", "", "load environment variables from this file first")
	fs.BoolVar(&c.mockServices, "mock-services", false,
		"run against in-process mock services instead of the configured URLs")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return false
	}
	return true
}
