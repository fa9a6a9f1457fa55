package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/mash-protocol/gbz-go/pkg/compose"
	"github.com/mash-protocol/gbz-go/pkg/gbz"
	"github.com/mash-protocol/gbz-go/pkg/inspect"
	"github.com/mash-protocol/gbz-go/pkg/zcl"
)

// shell is an interactive session that builds and decodes messages.
type shell struct {
	cc        *codec
	out       io.Writer
	formatter *inspect.Formatter

	creator *gbz.Creator

	// Last assembled or loaded message.
	last     []byte
	lastType gbz.MessageType
	lastCode uint16

	// Counters carried into the next creator.
	seq          uint8
	frameCounter uint8
}

func newShell(cc *codec, out io.Writer) *shell {
	return &shell{
		cc:        cc,
		out:       out,
		formatter: inspect.NewFormatter(),
	}
}

// run reads commands until EOF, "quit" or ctx is done.
func (s *shell) run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "gbz> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()
	s.out = rl.Stdout()
	defer s.close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			// EOF or interrupt
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			return nil
		}
		if !s.execute(line) {
			return nil
		}
	}
}

// execute runs one command line. It returns false when the shell should
// exit.
func (s *shell) execute(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" || strings.HasPrefix(input, "#") {
		return true
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "new", "n":
		s.cmdNew(args)

	case "add":
		s.cmdAdd(args)

	case "assemble", "a":
		s.cmdAssemble()

	case "load":
		s.cmdLoad(args)

	case "show", "s":
		s.cmdShow(args)

	case "yaml":
		s.cmdYAML()

	case "policy", "p":
		s.cmdPolicy(args)

	case "size":
		s.cmdSize(args)

	case "status":
		s.cmdStatus()

	case "quit", "exit", "q":
		s.close()
		return false

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (s *shell) close() {
	if s.creator != nil {
		s.creator.Cleanup()
		s.creator = nil
	}
}

func (s *shell) printHelp() {
	fmt.Fprintln(s.out, `
GBZ Shell Commands:
  Building:
    new <type> <code> [alert-code alert-time] - Start a message (command, response, alert)
    add <cluster> <fc> <cmd> [payload] [from=<ts>] - Append a ZCL command
    assemble                 - Assemble the message and print it as hex
    status                   - Show the message being built

  Decoding:
    load <type> <code> <hex> - Load a message for decoding
    show [selector]          - Decode the last message (all, #N, price, price/cmd/1)
    yaml                     - Print the last message as a YAML description

  Policy:
    policy <code> <cluster> <cmd> - Show whether a component would be encrypted
    size <payload-len> [enc <cipher-len>] [fdt] - Compute a component size

  General:
    help                     - Show this help
    quit                     - Exit shell`)
}

// cmdNew handles the new command.
func (s *shell) cmdNew(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: new <type> <code> [alert-code alert-time]")
		fmt.Fprintln(s.out, "  Example: new alert 0x0080 0x1234 0")
		return
	}
	t, err := gbz.ParseMessageType(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	code, err := parseUint16(args[1])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}

	cfg := s.cc.creatorConfig()
	cfg.Type = t
	cfg.MessageCode = code
	cfg.SequenceNumber = s.seq
	cfg.FrameCounter = s.frameCounter
	if t == gbz.MessageTypeAlert && len(args) >= 3 {
		if cfg.AlertCode, err = parseUint16(args[2]); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
		if len(args) >= 4 {
			if cfg.AlertTimestamp, err = parseUint32(args[3]); err != nil {
				fmt.Fprintf(s.out, "Error: %v\n", err)
				return
			}
		}
	}

	s.close()
	c, err := gbz.NewCreator(cfg)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.creator = c
	s.lastType = t
	s.lastCode = code
	fmt.Fprintf(s.out, "New %s message, code 0x%04X\n", t, code)
}

// cmdAdd handles the add command.
func (s *shell) cmdAdd(args []string) {
	if s.creator == nil {
		fmt.Fprintln(s.out, "No message in progress. Use 'new' first.")
		return
	}
	if len(args) < 3 {
		fmt.Fprintln(s.out, "Usage: add <cluster> <fc> <cmd> [payload] [from=<ts>]")
		fmt.Fprintln(s.out, "  Example: add price 0x09 0x00 0102 from=0x1F000000")
		return
	}

	cluster, ok := inspect.ResolveClusterName(args[0])
	if !ok {
		fmt.Fprintf(s.out, "Unknown cluster: %s\n", args[0])
		return
	}
	fc, err := parseUint8(args[1])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	id, err := parseUint8(args[2])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}

	cmd := &zcl.Command{ClusterID: cluster, FrameControl: zcl.FrameControl(fc), CommandID: id}
	for _, arg := range args[3:] {
		if v, found := strings.CutPrefix(arg, "from="); found {
			ts, err := parseUint32(v)
			if err != nil {
				fmt.Fprintf(s.out, "Error: %v\n", err)
				return
			}
			cmd.HasFromDateTime = true
			cmd.FromDateTime = ts
			continue
		}
		payload, err := compose.ParseHex(arg)
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
		cmd.Payload = append(cmd.Payload, payload...)
	}

	size, err := s.creator.AppendCommand(cmd)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Component %d added (%d bytes, message %d bytes)\n",
		s.creator.ComponentCount()-1, size, s.creator.Len())
}

// cmdAssemble handles the assemble command.
func (s *shell) cmdAssemble() {
	if s.creator == nil {
		fmt.Fprintln(s.out, "No message in progress. Use 'new' first.")
		return
	}
	msg, err := s.creator.Assemble()
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.last = append([]byte(nil), msg.Payload...)
	s.seq = s.creator.SequenceNumber()
	s.frameCounter = s.creator.FrameCounter()
	s.close()

	fmt.Fprintf(s.out, "%X\n", s.last)
	fmt.Fprintf(s.out, "(%d bytes, next tsn %d, next frame counter %d)\n", len(s.last), s.seq, s.frameCounter)
}

// cmdLoad handles the load command.
func (s *shell) cmdLoad(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(s.out, "Usage: load <type> <code> <hex>")
		return
	}
	t, err := gbz.ParseMessageType(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	code, err := parseUint16(args[1])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	data, err := compose.ParseHex(strings.Join(args[2:], ""))
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.last, s.lastType, s.lastCode = data, t, code
	fmt.Fprintf(s.out, "Loaded %d bytes\n", len(data))
}

// cmdShow handles the show command.
func (s *shell) cmdShow(args []string) {
	if s.last == nil {
		fmt.Fprintln(s.out, "No message. Use 'assemble' or 'load' first.")
		return
	}
	ins, err := inspect.NewInspector(s.last, s.cc.parserConfig(s.lastType, s.lastCode))
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	ins.SetFormatter(s.formatter)

	if len(args) == 0 {
		fmt.Fprint(s.out, ins.Summary())
		return
	}
	sel, err := inspect.ParseSelector(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid selector: %v\n", err)
		return
	}
	fmt.Fprint(s.out, ins.Show(sel))
	if ins.Err() != nil {
		fmt.Fprintf(s.out, "Decode stopped: %v\n", ins.Err())
	}
}

// cmdYAML handles the yaml command.
func (s *shell) cmdYAML() {
	if s.last == nil {
		fmt.Fprintln(s.out, "No message. Use 'assemble' or 'load' first.")
		return
	}
	m, err := compose.Describe(s.last, s.cc.parserConfig(s.lastType, s.lastCode))
	if m != nil {
		out, merr := m.Marshal()
		if merr != nil {
			fmt.Fprintf(s.out, "Error: %v\n", merr)
			return
		}
		fmt.Fprint(s.out, string(out))
	}
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
}

// cmdPolicy handles the policy command.
func (s *shell) cmdPolicy(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(s.out, "Usage: policy <code> <cluster> <cmd>")
		fmt.Fprintln(s.out, "  Example: policy 0x0045 prepayment 0x04")
		return
	}
	code, err := parseUint16(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	cluster, ok := inspect.ResolveClusterName(args[1])
	if !ok {
		fmt.Fprintf(s.out, "Unknown cluster: %s\n", args[1])
		return
	}
	id, err := parseUint8(args[2])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}

	fc := zcl.NewFrameControl(true, true, false)
	encrypt := s.cc.policy.ShouldEncrypt(code, cluster, id, fc, nil)
	rule := s.cc.policy.Lookup(code, cluster, id, fc, nil)
	switch {
	case rule != nil:
		fmt.Fprintf(s.out, "encrypt=%v (rule %q)\n", encrypt, rule.Name)
	default:
		fmt.Fprintf(s.out, "encrypt=%v\n", encrypt)
	}
}

// cmdSize handles the size command.
func (s *shell) cmdSize(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: size <payload-len> [enc <cipher-len>] [fdt]")
		return
	}
	n, err := parseUint16(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	cmd := &zcl.Command{Payload: make([]byte, n)}
	encrypted := false
	cipherLen := 0
	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "fdt":
			cmd.HasFromDateTime = true
		case "enc":
			encrypted = true
			if i+1 < len(args) {
				v, err := parseUint16(args[i+1])
				if err != nil {
					fmt.Fprintf(s.out, "Error: %v\n", err)
					return
				}
				cipherLen = int(v)
				i++
			}
		default:
			fmt.Fprintf(s.out, "Unknown option: %s\n", args[i])
			return
		}
	}

	size, err := gbz.ComponentSize(cmd, encrypted, cipherLen)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "%d bytes\n", size)
}

// cmdStatus handles the status command.
func (s *shell) cmdStatus() {
	if s.creator == nil {
		fmt.Fprintln(s.out, "No message in progress")
	} else {
		fmt.Fprintf(s.out, "Building %s message, code 0x%04X: %d component(s), %d bytes\n",
			s.lastType, s.lastCode, s.creator.ComponentCount(), s.creator.Len())
	}
	fmt.Fprintf(s.out, "Next tsn %d, next frame counter %d\n", s.seq, s.frameCounter)
	if s.last != nil {
		fmt.Fprintf(s.out, "Last message: %d bytes\n", len(s.last))
	}
}

type shellConfig struct {
	rootConfig *rootConfig
	out        io.Writer
	err        io.Writer
}

func (c *shellConfig) Exec(ctx context.Context, _ []string) (retErr error) {
	cc, err := c.rootConfig.codec(c.err)
	if err != nil {
		return err
	}
	defer closeFile(cc, &retErr)

	return newShell(cc, c.out).run(ctx)
}

func newShellCmd(rootConfig *rootConfig, out io.Writer, err io.Writer) *ffcli.Command {
	cfg := shellConfig{
		rootConfig: rootConfig,
		out:        out,
		err:        err,
	}

	fs := flag.NewFlagSet("gbz shell", flag.ExitOnError)
	rootConfig.registerFlags(fs)

	return addLongHelp(&ffcli.Command{
		Name:       "shell",
		ShortUsage: "shell [flags]",
		ShortHelp:  "Starts an interactive shell for building and decoding messages.",
		FlagSet:    fs,
		Options:    ffOptions(),
		Exec:       cfg.Exec,
	})
}
