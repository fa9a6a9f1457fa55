/*
gbz encodes, decodes and inspects GBZ messages.

Messages are described in YAML (see package compose) and encoded with the
embedded encryption policy unless -policy names another rule table.
Encrypted components are sealed with a key derived from -secret.

Every flag can also be set through a GBZ_ prefixed environment variable
(GBZ_SECRET, GBZ_MAX_SIZE, ...) or a -config file of "flag value" lines.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/peterbourgon/ff/v3/ffcli"
)

func main() {
	var (
		in  = os.Stdin
		out = os.Stdout
		err = os.Stderr
	)

	rootCmd, cfg := newRootCmd()
	rootCmd.Subcommands = []*ffcli.Command{
		newEncodeCmd(cfg, in, out, err),
		newDecodeCmd(cfg, in, out, err),
		newShellCmd(cfg, out, err),
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		var num = 0
		for range c {
			num += 1
			if num >= 3 {
				os.Exit(1)
			} else {
				cancel()
			}
		}
	}()

	if err := rootCmd.ParseAndRun(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, context.Canceled) {
			if cfg.verbose {
				fmt.Fprintf(os.Stderr, "%s: cancelled\n", rootCmd.Name)
			}
			return
		}
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		msg := strings.TrimPrefix(err.Error(), "gbz: ")
		fmt.Fprintf(os.Stderr, "%s: %s\n", rootCmd.Name, msg)
		os.Exit(1)
	}
}
