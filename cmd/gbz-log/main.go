// Command gbz-log is a tool for viewing and analyzing GBZ codec event logs.
//
// Log files are written by the gbz tool with the -protocol-log flag, or by
// any program that sets ProtocolLogger on a parser, creator or spool to a
// log.FileLogger.
//
// Usage:
//
//	gbz-log <command> [flags] <file.glog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSON or CSV format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View only component events
//	gbz-log view -layer component codec.glog
//
//	# View components of one cluster
//	gbz-log view -cluster prepayment codec.glog
//
//	# Export to JSONL
//	gbz-log export -format jsonl codec.glog
//
//	# Filter by message code and save to new file
//	gbz-log filter -code 0x0045 -o topup.glog codec.glog
//
// Flags may also be set through GBZ_LOG_ prefixed environment variables.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/peterbourgon/ff/v3"

	"github.com/mash-protocol/gbz-go/cmd/gbz-log/commands"
)

const usage = `gbz-log - GBZ Codec Log Analyzer

Usage:
  gbz-log <command> [flags] <file.glog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSON or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "gbz-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// parseFlags parses args with environment variable fallback and requires
// one positional log file argument.
func parseFlags(fs *flag.FlagSet, args []string) string {
	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix("GBZ_LOG")); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func registerFilterFlags(fs *flag.FlagSet, opts *commands.FilterOptions) {
	fs.StringVar(&opts.SessionID, "session", "", "Filter by session ID")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	fs.StringVar(&opts.Layer, "layer", "", "Filter by layer (spool, message, component)")
	fs.StringVar(&opts.Direction, "direction", "", "Filter by direction (in, out)")
	fs.StringVar(&opts.Category, "category", "", "Filter by category (message, state, error)")
	fs.StringVar(&opts.MessageCode, "code", "", "Filter by message code")
	fs.StringVar(&opts.Cluster, "cluster", "", "Filter component events by cluster name or id")
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `gbz-log view - View log file in human-readable format

Usage:
  gbz-log view [flags] <file.glog>

Flags:
`)
		fs.PrintDefaults()
	}

	var opts commands.FilterOptions
	registerFilterFlags(fs, &opts)
	path := parseFlags(fs, args)

	filter, err := commands.BuildFilter(opts)
	if err != nil {
		fail(err)
	}
	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `gbz-log export - Export log file to JSON or CSV format

Usage:
  gbz-log export [flags] <file.glog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	path := parseFlags(fs, args)

	if err := commands.RunExport(path, *format, *output, os.Stdout); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `gbz-log filter - Filter log file and write to new file

Usage:
  gbz-log filter [flags] <file.glog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	var opts commands.FilterOptions
	registerFilterFlags(fs, &opts)
	path := parseFlags(fs, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunFilter(path, *output, opts, os.Stdout); err != nil {
		fail(err)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `gbz-log stats - Show statistics about the log file

Usage:
  gbz-log stats <file.glog>

`)
	}

	path := parseFlags(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
