package gbz

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mash-protocol/gbz-go/pkg/log"
)

// Parser walks a GBZ message component by component.
//
// Payload spans of unencrypted components alias the parser's buffer and
// become invalid after Cleanup. A Parser is not safe for concurrent use.
type Parser struct {
	config ParserConfig
	header Header

	data   []byte
	cursor int
	parsed int

	// exhausted is set once every announced component was read or the
	// input turned out to be malformed.
	exhausted bool

	lease  *lease
	logger *slog.Logger
	events protocolLog
}

// NewParser validates the header of data and prepares iteration.
func NewParser(data []byte, config ParserConfig) (*Parser, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.SessionID == "" {
		config.SessionID = uuid.NewString()
	}

	p := &Parser{
		config: config,
		lease:  &lease{},
		logger: config.Logger,
		events: protocolLog{
			logger:      config.ProtocolLogger,
			sessionID:   config.SessionID,
			direction:   log.DirectionIn,
			messageType: config.Type.logType(),
			messageCode: config.MessageCode,
		},
	}

	header, err := DecodeHeader(data, config.Type)
	if err != nil {
		p.events.error(log.LayerMessage, err)
		return nil, err
	}

	if config.CopyInput {
		if config.MaxMessageSize > 0 && len(data) > config.MaxMessageSize {
			err := fmt.Errorf("%w: %d > %d", ErrAllocationFailure, len(data), config.MaxMessageSize)
			p.events.error(log.LayerMessage, err)
			return nil, err
		}
		data = append([]byte(nil), data...)
	}

	p.header = header
	p.data = data
	p.cursor = header.Size()
	p.exhausted = header.ComponentCount == 0

	p.events.header(data, header.ComponentCount, len(data))
	p.events.state(log.StateEntityParser, "", "ready", "")
	return p, nil
}

// HasNext reports whether NextCommand may return another command.
func (p *Parser) HasNext() bool {
	return !p.lease.released && !p.exhausted && p.parsed < int(p.header.ComponentCount)
}

// NextCommand decodes the next component.
//
// A component that fails to decrypt is still returned: its Payload holds
// the ciphertext and Decryption is DecryptionFailed. Malformed input ends
// the iteration. A component with both the encrypted and from date time
// bits set is rejected with ErrInvalidFieldCombination and skipped.
func (p *Parser) NextCommand() (*ParsedCommand, error) {
	if p.lease.released {
		return nil, ErrReleased
	}
	if !p.HasNext() {
		return nil, ErrNoMoreCommands
	}

	size, err := componentSize(p.data[p.cursor:])
	if err != nil {
		return nil, p.fail(err)
	}
	start := p.cursor
	p.cursor += size
	index := p.parsed
	p.parsed++
	if p.parsed == int(p.header.ComponentCount) {
		p.markExhausted("all components read")
	}

	raw, err := decodeComponent(p.data[start:p.cursor])
	if errors.Is(err, ErrInvalidFieldCombination) {
		err = fmt.Errorf("%w: component %d, cluster 0x%04X", err, index, raw.clusterID)
		p.debug("component rejected", "index", index, "error", err)
		p.events.error(log.LayerComponent, err)
		return nil, err
	}
	if err != nil {
		return nil, p.fail(err)
	}

	cmd := &ParsedCommand{
		Index:                     index,
		Last:                      raw.last(),
		ClusterID:                 raw.clusterID,
		FrameControl:              raw.frameControl,
		CommandID:                 raw.commandID,
		TransactionSequenceNumber: raw.seq,
		HasFromDateTime:           raw.hasFromDateTime(),
		FromDateTime:              raw.fromDateTime,
		Encrypted:                 raw.encrypted(),
		AdditionalHeaderControl:   raw.addlControl,
		FrameCounter:              raw.frameCounter,
		Payload:                   Span{data: raw.body, lease: p.lease},
	}
	if cmd.Encrypted {
		cmd.CipheredLength = len(raw.body)
		p.decrypt(cmd, raw.body)
	}

	p.events.component(componentEvent(cmd, size))
	return cmd, nil
}

// decrypt replaces the payload with plaintext, or keeps the ciphertext and
// records the failure.
func (p *Parser) decrypt(cmd *ParsedCommand, ciphertext []byte) {
	var (
		plain []byte
		err   error
	)
	if p.config.Cipher == nil {
		err = errors.New("no cipher configured")
	} else {
		plain, err = p.config.Cipher.Decrypt(ComponentInfo{
			MessageCode:    p.config.MessageCode,
			ClusterID:      cmd.ClusterID,
			CommandID:      cmd.CommandID,
			FrameControl:   cmd.FrameControl,
			SequenceNumber: cmd.TransactionSequenceNumber,
			FrameCounter:   cmd.FrameCounter,
		}, ciphertext)
	}
	if err != nil {
		cmd.Decryption = DecryptionFailed
		cmd.DecryptionErr = fmt.Errorf("%w: %v", ErrDecryptionFailure, err)
		if p.logger != nil {
			p.logger.Warn("decryption failed, exposing ciphertext",
				"session", p.config.SessionID,
				"index", cmd.Index,
				"cluster", fmt.Sprintf("0x%04X", cmd.ClusterID),
				"error", err)
		}
		p.events.error(log.LayerComponent, cmd.DecryptionErr)
		return
	}
	cmd.Decryption = DecryptionSucceeded
	cmd.Payload = Span{data: plain, lease: p.lease}
}

func (p *Parser) fail(err error) error {
	p.markExhausted("malformed input")
	p.debug("parse failed", "offset", p.cursor, "error", err)
	p.events.error(log.LayerComponent, err)
	return err
}

func (p *Parser) markExhausted(reason string) {
	if p.exhausted {
		return
	}
	p.exhausted = true
	p.events.state(log.StateEntityParser, "ready", "exhausted", reason)
}

// Cleanup releases the parser's buffer and invalidates every payload span
// it returned. It is safe to call more than once.
func (p *Parser) Cleanup() {
	if p.lease.released {
		return
	}
	p.lease.released = true
	p.data = nil
	p.events.state(log.StateEntityParser, "", "released", "")
}

// Header returns the decoded message header.
func (p *Parser) Header() Header {
	return p.header
}

// ComponentCount returns the ComponentCount announced by the header.
func (p *Parser) ComponentCount() int {
	return int(p.header.ComponentCount)
}

// Parsed returns the number of components consumed so far.
func (p *Parser) Parsed() int {
	return p.parsed
}

// AlertCode returns the alert code of alert messages.
func (p *Parser) AlertCode() uint16 {
	return p.header.AlertCode
}

// AlertTimestamp returns the alert timestamp of alert messages.
func (p *Parser) AlertTimestamp() uint32 {
	return p.header.AlertTimestamp
}

// Len returns the input length, or 0 after Cleanup.
func (p *Parser) Len() int {
	return len(p.data)
}

// SessionID returns the identifier used in protocol events.
func (p *Parser) SessionID() string {
	return p.config.SessionID
}

func (p *Parser) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, append([]any{"session", p.config.SessionID}, args...)...)
	}
}

// ParseAll decodes every component of data. Payloads are copied, so the
// result outlives the parser. Components rejected with
// ErrInvalidFieldCombination are skipped and the first such error is
// returned after the walk; any other error stops decoding.
func ParseAll(data []byte, config ParserConfig) (Header, []*ParsedCommand, error) {
	p, err := NewParser(data, config)
	if err != nil {
		return Header{}, nil, err
	}
	defer p.Cleanup()

	var (
		cmds     []*ParsedCommand
		rejected error
	)
	for p.HasNext() {
		cmd, err := p.NextCommand()
		if errors.Is(err, ErrInvalidFieldCombination) {
			if rejected == nil {
				rejected = err
			}
			continue
		}
		if err != nil {
			return p.Header(), cmds, err
		}
		payload, err := cmd.Payload.Clone()
		if err != nil {
			return p.Header(), cmds, err
		}
		cmd.Payload = Span{data: payload}
		cmds = append(cmds, cmd)
	}
	return p.Header(), cmds, rejected
}
