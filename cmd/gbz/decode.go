package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/mash-protocol/gbz-go/pkg/compose"
	"github.com/mash-protocol/gbz-go/pkg/gbz"
	"github.com/mash-protocol/gbz-go/pkg/inspect"
	"github.com/mash-protocol/gbz-go/pkg/spool"
)

type decodeConfig struct {
	rootConfig *rootConfig
	in         io.Reader
	out        io.Writer
	err        io.Writer

	msgType     string
	messageCode string
	format      string
	selector    string
	yaml        bool
	spoolInput  bool
	ids         bool
	maxPayload  int
}

func (c *decodeConfig) Exec(ctx context.Context, args []string) (retErr error) {
	if len(args) > 1 {
		return flag.ErrHelp
	}
	path := ""
	if len(args) == 1 {
		path = args[0]
	}

	cc, err := c.rootConfig.codec(c.err)
	if err != nil {
		return err
	}
	defer closeFile(cc, &retErr)

	if c.spoolInput {
		return c.decodeSpool(ctx, cc, path)
	}

	t, err := gbz.ParseMessageType(c.msgType)
	if err != nil {
		return err
	}
	code, err := parseUint16(c.messageCode)
	if err != nil {
		return err
	}
	raw, err := readSource(c.in, path)
	if err != nil {
		return err
	}
	data, err := decodeBytes(raw, c.format)
	if err != nil {
		return err
	}
	return c.decodeMessage(cc.parserConfig(t, code), data)
}

func (c *decodeConfig) decodeSpool(ctx context.Context, cc *codec, path string) error {
	var r io.Reader = c.in
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	sr := spool.NewReader(r)
	sr.SetLogger(cc.protocolLogger, uuid.NewString())
	if cc.maxSize > 0 {
		sr.SetMaxRecordSize(uint32(cc.maxSize) + spool.RecordHeaderSize)
	}

	var firstErr error
	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := sr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "# record %d: %s, message code 0x%04X\n", n, rec.Type, rec.MessageCode)
		if err := c.decodeMessage(cc.parserConfig(rec.Type, rec.MessageCode), rec.Message); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("record %d: %w", n, err)
		}
	}
	return firstErr
}

func (c *decodeConfig) decodeMessage(cfg gbz.ParserConfig, data []byte) error {
	if c.yaml {
		m, err := compose.Describe(data, cfg)
		if m != nil {
			out, merr := m.Marshal()
			if merr != nil {
				return merr
			}
			if _, werr := c.out.Write(out); werr != nil {
				return werr
			}
		}
		return err
	}

	ins, err := inspect.NewInspector(data, cfg)
	if err != nil {
		return err
	}
	f := inspect.NewFormatter()
	f.ShowIDs = c.ids
	f.MaxPayloadBytes = c.maxPayload
	ins.SetFormatter(f)

	if c.selector == "" {
		fmt.Fprint(c.out, ins.Summary())
		return ins.Err()
	}
	sel, err := inspect.ParseSelector(c.selector)
	if err != nil {
		return err
	}
	fmt.Fprint(c.out, ins.Show(sel))
	return ins.Err()
}

func newDecodeCmd(rootConfig *rootConfig, in io.Reader, out io.Writer, err io.Writer) *ffcli.Command {
	cfg := decodeConfig{
		rootConfig: rootConfig,
		in:         in,
		out:        out,
		err:        err,
	}

	fs := flag.NewFlagSet("gbz decode", flag.ExitOnError)
	fs.StringVar(&cfg.msgType, "type", "command", "message type, command, response or alert")
	fs.StringVar(&cfg.messageCode, "code", "0x0000", "use case message code")
	fs.StringVar(&cfg.format, "format", "hex", "input format, hex or bin")
	fs.StringVar(&cfg.selector, "select", "", "show only matching components, e.g. #1, price or price/cmd/0x01")
	fs.BoolVar(&cfg.yaml, "yaml", false, "print a YAML description instead of a summary")
	fs.BoolVar(&cfg.spoolInput, "spool", false, "input is a spool file, type and code come from each record")
	fs.BoolVar(&cfg.ids, "ids", false, "show numeric ids next to names")
	fs.IntVar(&cfg.maxPayload, "max-payload", 64, "truncate payload dumps to this many bytes (0 = no limit)")
	rootConfig.registerFlags(fs)

	return addLongHelp(&ffcli.Command{
		Name:       "decode",
		ShortUsage: "decode [flags] [message]",
		ShortHelp:  "Decodes a GBZ message and prints its components.",
		LongHelp: `Decodes a GBZ message and prints its components.

Reads the message from the named file or stdin. A component that fails to
decrypt is still shown, with its ciphertext. Decoding stops at the first
malformed component; the components before it are printed and the command
exits with an error.`,
		FlagSet: fs,
		Options: ffOptions(),
		Exec:    cfg.Exec,
	})
}
