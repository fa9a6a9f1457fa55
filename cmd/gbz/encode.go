package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/mash-protocol/gbz-go/pkg/compose"
	"github.com/mash-protocol/gbz-go/pkg/spool"
)

type encodeConfig struct {
	rootConfig *rootConfig
	in         io.Reader
	out        io.Writer
	err        io.Writer

	format    string
	output    string
	spoolPath string
	buffer    int
	carry     bool
}

func (c *encodeConfig) Exec(ctx context.Context, args []string) (retErr error) {
	if len(args) == 0 {
		args = []string{"-"}
	}

	cc, err := c.rootConfig.codec(c.err)
	if err != nil {
		return err
	}
	defer closeFile(cc, &retErr)

	out := c.out
	if c.output != "" {
		f, err := os.Create(c.output)
		if err != nil {
			return err
		}
		defer closeFile(f, &retErr)
		out = f
	}

	var sw *spool.Writer
	if c.spoolPath != "" {
		f, err := os.OpenFile(c.spoolPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer closeFile(f, &retErr)
		sw = spool.NewWriter(f)
		sw.SetLogger(cc.protocolLogger, uuid.NewString())
	}

	var prev *compose.BuildResult
	for _, path := range args {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := readSource(c.in, path)
		if err != nil {
			return err
		}
		m, err := compose.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if c.carry && prev != nil {
			m.SequenceNumber = prev.SequenceNumber
			m.FrameCounter = prev.FrameCounter
		}

		opts := compose.BuildOptions{Base: cc.creatorConfig()}
		if c.buffer > 0 {
			opts.Base.Buffer = make([]byte, c.buffer)
		}
		res, err := m.Build(opts)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		prev = res

		if sw != nil {
			t, err := m.MessageType()
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			rec := spool.Record{Type: t, MessageCode: m.MessageCode, Message: res.Payload}
			if err := sw.Write(rec); err != nil {
				return err
			}
			if c.rootConfig.verbose {
				fmt.Fprintf(c.err, "%s: spooled %d bytes\n", path, len(res.Payload))
			}
			continue
		}
		if err := writeBytes(out, res.Payload, c.format); err != nil {
			return err
		}
	}
	return nil
}

func newEncodeCmd(rootConfig *rootConfig, in io.Reader, out io.Writer, err io.Writer) *ffcli.Command {
	cfg := encodeConfig{
		rootConfig: rootConfig,
		in:         in,
		out:        out,
		err:        err,
	}

	fs := flag.NewFlagSet("gbz encode", flag.ExitOnError)
	fs.StringVar(&cfg.format, "format", "hex", "output format, hex or bin")
	fs.StringVar(&cfg.output, "o", "", "write output to file instead of stdout")
	fs.StringVar(&cfg.spoolPath, "spool", "", "append messages to a spool file instead of writing them")
	fs.IntVar(&cfg.buffer, "buffer", 0, "encode into a fixed buffer of this many bytes")
	fs.BoolVar(&cfg.carry, "carry", false, "continue sequence number and frame counter across files")
	rootConfig.registerFlags(fs)

	return addLongHelp(&ffcli.Command{
		Name:       "encode",
		ShortUsage: "encode [flags] [description.yaml ...]",
		ShortHelp:  "Encodes YAML message descriptions into GBZ messages.",
		LongHelp: `Encodes YAML message descriptions into GBZ messages.

Each description is built through a creator with the configured policy and
cipher. Reads stdin when no file is given. With -carry the transaction
sequence number and frame counter continue from the previous message.`,
		FlagSet: fs,
		Options: ffOptions(),
		Exec:    cfg.Exec,
	})
}
