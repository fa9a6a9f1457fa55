package main

import (
	"context"
	"flag"
	"io"
	"log/slog"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/mash-protocol/gbz-go/pkg/compose"
	"github.com/mash-protocol/gbz-go/pkg/gbz"
	"github.com/mash-protocol/gbz-go/pkg/log"
	"github.com/mash-protocol/gbz-go/pkg/policy"
	"github.com/mash-protocol/gbz-go/pkg/seal"
)

type rootConfig struct {
	verbose     bool
	configFile  string
	secret      string
	salt        string
	epoch       uint
	policyFile  string
	protocolLog string
	maxSize     int
}

func (c *rootConfig) registerFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "v", false, "increase log verbosity")
	fs.StringVar(&c.configFile, "config", "", "config file with one \"flag value\" pair per line")
	fs.StringVar(&c.secret, "secret", "", "shared secret in hex, enables component encryption")
	fs.StringVar(&c.salt, "salt", "", "optional key derivation salt in hex")
	fs.UintVar(&c.epoch, "epoch", 0, "key epoch authenticated with every component")
	fs.StringVar(&c.policyFile, "policy", "", "encryption policy YAML (default: embedded rule table)")
	fs.StringVar(&c.protocolLog, "protocol-log", "", "append codec events to this CBOR log file")
	fs.IntVar(&c.maxSize, "max-size", gbz.DefaultMaxMessageSize, "maximum message size in bytes (0 = unbounded)")
}

func (c *rootConfig) Exec(context.Context, []string) error {
	return flag.ErrHelp
}

func newRootCmd() (*ffcli.Command, *rootConfig) {
	var cfg rootConfig

	fs := flag.NewFlagSet("gbz", flag.ExitOnError)
	cfg.registerFlags(fs)

	return addLongHelp(&ffcli.Command{
		Name:       "gbz",
		ShortUsage: "gbz [flags] <subcommand>",
		ShortHelp:  "Encode, decode and inspect GBZ messages.",
		FlagSet:    fs,
		Options:    ffOptions(),
		Exec:       cfg.Exec,
	}), &cfg
}

func ffOptions() []ff.Option {
	return []ff.Option{
		ff.WithEnvVarPrefix("GBZ"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	}
}

var gbzLongHelp = `

GENERAL
Message types are command, response and alert. Message codes select the
encryption policy rules; 0xFFFF encrypts every component and 0xFFFE none.

Without -secret no cipher is configured and any component the policy
selects for encryption fails to encode. Decoding still succeeds and shows
the ciphertext with decryption "failed".`

func addLongHelp(cmd *ffcli.Command) *ffcli.Command {
	if cmd.LongHelp == "" {
		cmd.LongHelp = cmd.ShortHelp
	}

	cmd.LongHelp += gbzLongHelp

	return cmd
}

// logger returns the operational logger, nil unless -v is set.
func (c *rootConfig) logger(w io.Writer) *slog.Logger {
	if !c.verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (c *rootConfig) cipher() (gbz.Cipher, error) {
	if c.secret == "" {
		return nil, nil
	}
	secret, err := compose.ParseHex(c.secret)
	if err != nil {
		return nil, err
	}
	var salt []byte
	if c.salt != "" {
		if salt, err = compose.ParseHex(c.salt); err != nil {
			return nil, err
		}
	}
	s, err := seal.New(seal.Config{Secret: secret, Salt: salt, Epoch: uint32(c.epoch)})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (c *rootConfig) policyTable() (*policy.Table, error) {
	if c.policyFile == "" {
		return policy.Default()
	}
	return policy.LoadFile(c.policyFile)
}

// protocolLogger opens the -protocol-log file. The returned closer is
// never nil.
func (c *rootConfig) protocolLogger() (log.Logger, io.Closer, error) {
	if c.protocolLog == "" {
		return nil, io.NopCloser(nil), nil
	}
	fl, err := log.NewFileLogger(c.protocolLog)
	if err != nil {
		return nil, nil, err
	}
	return fl, fl, nil
}

// codec bundles the shared settings of one command run.
type codec struct {
	logger         *slog.Logger
	protocolLogger log.Logger
	cipher         gbz.Cipher
	policy         *policy.Table
	maxSize        int
	closer         io.Closer
}

func (c *rootConfig) codec(errOut io.Writer) (*codec, error) {
	ciph, err := c.cipher()
	if err != nil {
		return nil, err
	}
	table, err := c.policyTable()
	if err != nil {
		return nil, err
	}
	plog, closer, err := c.protocolLogger()
	if err != nil {
		return nil, err
	}
	logger := c.logger(errOut)
	if logger != nil {
		// -v mirrors protocol events to stderr.
		if plog != nil {
			plog = log.NewMultiLogger(plog, log.NewSlogAdapter(logger))
		} else {
			plog = log.NewSlogAdapter(logger)
		}
	}
	return &codec{
		logger:         logger,
		protocolLogger: plog,
		cipher:         ciph,
		policy:         table,
		maxSize:        c.maxSize,
		closer:         closer,
	}, nil
}

func (cc *codec) Close() error {
	return cc.closer.Close()
}

func (cc *codec) creatorConfig() gbz.CreatorConfig {
	cfg := gbz.DefaultCreatorConfig()
	cfg.MaxMessageSize = cc.maxSize
	cfg.Cipher = cc.cipher
	cfg.Policy = cc.policy
	cfg.Logger = cc.logger
	cfg.ProtocolLogger = cc.protocolLogger
	return cfg
}

func (cc *codec) parserConfig(t gbz.MessageType, messageCode uint16) gbz.ParserConfig {
	cfg := gbz.DefaultParserConfig()
	cfg.Type = t
	cfg.MessageCode = messageCode
	cfg.MaxMessageSize = cc.maxSize
	cfg.Cipher = cc.cipher
	cfg.Logger = cc.logger
	cfg.ProtocolLogger = cc.protocolLogger
	return cfg
}
