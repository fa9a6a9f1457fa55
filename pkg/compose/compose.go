// Package compose converts between YAML message descriptions and GBZ
// bytes. It backs the encode and decode commands of the gbz tool.
//
// A description looks like:
//
//	type: alert
//	messageCode: 0x0080
//	alertCode: 0x1234
//	alertTimestamp: 0xAABBCCDD
//	commands:
//	  - cluster: 0x0009
//	    frameControl: 0x09
//	    command: 0x00
//	    payload: "01 02"
//	  - cluster: 0x0702
//	    frameControl: 0x09
//	    command: 0x01
//	    fromDateTime: 0x5F5E1000
package compose

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mash-protocol/gbz-go/pkg/gbz"
	"github.com/mash-protocol/gbz-go/pkg/zcl"
)

// ErrNoCommands is returned when building a description without commands
// and AllowEmpty is not set.
var ErrNoCommands = errors.New("compose: message has no commands")

// Message describes a GBZ message.
type Message struct {
	Type           string    `yaml:"type"`
	MessageCode    uint16    `yaml:"messageCode"`
	AlertCode      uint16    `yaml:"alertCode,omitempty"`
	AlertTimestamp uint32    `yaml:"alertTimestamp,omitempty"`
	SequenceNumber uint8     `yaml:"sequenceNumber,omitempty"`
	FrameCounter   uint8     `yaml:"frameCounter,omitempty"`
	Commands       []Command `yaml:"commands"`
}

// Command describes one component. The fields after FromDateTime are
// filled when describing a parsed message and ignored when building.
type Command struct {
	Cluster      uint16   `yaml:"cluster"`
	FrameControl uint8    `yaml:"frameControl"`
	Command      uint8    `yaml:"command"`
	Payload      HexBytes `yaml:"payload,omitempty"`
	FromDateTime *uint32  `yaml:"fromDateTime,omitempty"`

	Sequence     *uint8 `yaml:"sequence,omitempty"`
	Encrypted    bool   `yaml:"encrypted,omitempty"`
	FrameCounter *uint8 `yaml:"frameCounter,omitempty"`
	Decryption   string `yaml:"decryption,omitempty"`
}

// HexBytes is a byte string written as hex in YAML. Whitespace and ':'
// separators are accepted on input.
type HexBytes []byte

// MarshalYAML implements yaml.Marshaler.
func (h HexBytes) MarshalYAML() (any, error) {
	return strings.ToUpper(hex.EncodeToString(h)), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (h *HexBytes) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	b, err := ParseHex(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*h = b
	return nil
}

// ParseHex decodes a hex string, ignoring whitespace, ':' separators and a
// leading 0x.
func ParseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ':':
			return -1
		}
		return r
	}, s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex payload: %w", err)
	}
	return b, nil
}

// Parse reads a YAML description.
func Parse(data []byte) (*Message, error) {
	var m Message
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing message: %w", err)
	}
	if _, err := m.MessageType(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadFile reads a YAML description from path.
func LoadFile(path string) (*Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading message: %w", err)
	}
	return Parse(data)
}

// Marshal writes the description as YAML.
func (m *Message) Marshal() ([]byte, error) {
	return yaml.Marshal(m)
}

// MessageType returns the GBZ message type named by Type.
// An empty Type means a command message.
func (m *Message) MessageType() (gbz.MessageType, error) {
	if m.Type == "" {
		return gbz.MessageTypeCommand, nil
	}
	t, err := gbz.ParseMessageType(strings.ToLower(m.Type))
	if err != nil {
		return 0, fmt.Errorf("message type %q: %w", m.Type, err)
	}
	return t, nil
}

// BuildOptions carries the codec settings that are not part of a
// description.
type BuildOptions struct {
	// Base supplies cipher, policy, buffer and loggers. Type, message code,
	// alert fields and counters are taken from the description.
	Base gbz.CreatorConfig

	// AllowEmpty permits messages without commands.
	AllowEmpty bool
}

// Build encodes the description. It returns the assembled bytes and the
// creator's counters after the last command, so callers can continue the
// sequence in the next message.
func (m *Message) Build(opts BuildOptions) (*BuildResult, error) {
	if len(m.Commands) == 0 && !opts.AllowEmpty {
		return nil, ErrNoCommands
	}
	t, err := m.MessageType()
	if err != nil {
		return nil, err
	}

	cfg := opts.Base
	cfg.Type = t
	cfg.MessageCode = m.MessageCode
	cfg.AlertCode = m.AlertCode
	cfg.AlertTimestamp = m.AlertTimestamp
	cfg.SequenceNumber = m.SequenceNumber
	cfg.FrameCounter = m.FrameCounter

	c, err := gbz.NewCreator(cfg)
	if err != nil {
		return nil, err
	}
	defer c.Cleanup()

	for i, cmd := range m.Commands {
		if _, err := c.AppendCommand(cmd.zcl()); err != nil {
			return nil, fmt.Errorf("command %d (cluster 0x%04X): %w", i, cmd.Cluster, err)
		}
	}
	msg, err := c.Assemble()
	if err != nil {
		return nil, err
	}

	payload := msg.Payload
	if !msg.OwnershipTransferred {
		payload = append([]byte(nil), payload...)
	}
	return &BuildResult{
		Payload:        payload,
		SequenceNumber: c.SequenceNumber(),
		FrameCounter:   c.FrameCounter(),
	}, nil
}

// BuildResult is the output of Build.
type BuildResult struct {
	Payload        []byte
	SequenceNumber uint8
	FrameCounter   uint8
}

func (c *Command) zcl() *zcl.Command {
	cmd := &zcl.Command{
		ClusterID:    c.Cluster,
		FrameControl: zcl.FrameControl(c.FrameControl),
		CommandID:    c.Command,
		Payload:      c.Payload,
	}
	if c.FromDateTime != nil {
		cmd.HasFromDateTime = true
		cmd.FromDateTime = *c.FromDateTime
	}
	return cmd
}

// Describe decodes data into a description. Commands that fail to decode
// stop the walk; the partial description is returned with the error.
func Describe(data []byte, cfg gbz.ParserConfig) (*Message, error) {
	if _, err := gbz.DecodeHeader(data, cfg.Type); err != nil {
		return nil, err
	}
	header, cmds, err := gbz.ParseAll(data, cfg)

	m := &Message{
		Type:        strings.ToLower(cfg.Type.String()),
		MessageCode: cfg.MessageCode,
	}
	if cfg.Type == gbz.MessageTypeAlert {
		m.AlertCode = header.AlertCode
		m.AlertTimestamp = header.AlertTimestamp
	}
	for _, pc := range cmds {
		m.Commands = append(m.Commands, describeCommand(pc))
	}
	return m, err
}

func describeCommand(pc *gbz.ParsedCommand) Command {
	seq := pc.TransactionSequenceNumber
	c := Command{
		Cluster:      pc.ClusterID,
		FrameControl: uint8(pc.FrameControl),
		Command:      pc.CommandID,
		Sequence:     &seq,
		Encrypted:    pc.Encrypted,
	}
	if b, err := pc.Payload.Clone(); err == nil {
		c.Payload = b
	}
	if pc.HasFromDateTime {
		fdt := pc.FromDateTime
		c.FromDateTime = &fdt
	}
	if pc.Encrypted {
		fc := pc.FrameCounter
		c.FrameCounter = &fc
		c.Decryption = pc.Decryption.String()
	}
	return c
}
