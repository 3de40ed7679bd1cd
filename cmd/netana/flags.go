package main

import (
	"github.com/urfave/cli/v2"
)

var (
	IsVerbose     bool
	IsVeryVerbose bool
)

// FlagVerbose enables verbose mode, which logs the progress of every pass
var FlagVerbose = &cli.BoolFlag{
	Name:        "verbose",
	Aliases:     []string{"v"},
	Usage:       "enable verbose mode for logging",
	Destination: &IsVerbose,
}

// FlagVeryVerbose enables very verbose mode, which logs every stage of a pass
var FlagVeryVerbose = &cli.BoolFlag{
	Name:        "very-verbose",
	Aliases:     []string{"vv"},
	Usage:       "enable very verbose mode for debugging",
	Destination: &IsVeryVerbose,
}

// FlagLogFile copies the log to a rotated file
var FlagLogFile = &cli.StringFlag{
	Name:      "log-file",
	Usage:     "also write the log to this file, rotated by size",
	TakesFile: true,
}

// FlagTopology names the topology description, read as yaml, json or toml by extension
var FlagTopology = &cli.StringFlag{
	Name:      "topology",
	Aliases:   []string{"t"},
	Usage:     "the topology description file",
	Required:  true,
	TakesFile: true,
}
