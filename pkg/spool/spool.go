// Package spool stores assembled GBZ messages as length-prefixed records
// for store-and-forward delivery.
//
// Record layout (big-endian):
//
//	Length:4 Type:1 MessageCode:2 Message:Length-3
//
// Length counts the type, message code and message bytes.
package spool

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mash-protocol/gbz-go/pkg/gbz"
	"github.com/mash-protocol/gbz-go/pkg/log"
)

// Framing constants.
const (
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4

	// RecordHeaderSize is Type (1) + MessageCode (2).
	RecordHeaderSize = 3

	// DefaultMaxRecordSize bounds a record body.
	DefaultMaxRecordSize = RecordHeaderSize + gbz.DefaultMaxMessageSize

	// MaxLogFrameDataSize is the maximum frame data size to include in logs (4 KB).
	MaxLogFrameDataSize = 4096
)

// Spool errors.
var (
	// ErrRecordTooLarge indicates the record exceeds the maximum size.
	ErrRecordTooLarge = errors.New("spool: record too large")

	// ErrRecordTooShort indicates a record without a complete header.
	ErrRecordTooShort = errors.New("spool: record too short")

	// ErrRecordTruncated indicates the stream ended inside a record.
	ErrRecordTruncated = errors.New("spool: record truncated")
)

// Record is one spooled GBZ message.
type Record struct {
	Type        gbz.MessageType
	MessageCode uint16
	Message     []byte
}

// Writer appends records to an underlying writer.
type Writer struct {
	w             io.Writer
	maxRecordSize uint32
	mu            sync.Mutex

	// Logging support (optional)
	logger    log.Logger
	sessionID string
}

// NewWriter creates a record writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:             w,
		maxRecordSize: DefaultMaxRecordSize,
	}
}

// SetLogger configures logging for this writer.
// Pass nil to disable logging.
func (sw *Writer) SetLogger(logger log.Logger, sessionID string) {
	sw.logger = logger
	sw.sessionID = sessionID
}

// Write validates the GBZ header of rec.Message and appends the record.
// Thread-safe: can be called from multiple goroutines.
func (sw *Writer) Write(rec Record) error {
	if _, err := gbz.DecodeHeader(rec.Message, rec.Type); err != nil {
		return fmt.Errorf("spool: %w", err)
	}
	body := RecordHeaderSize + len(rec.Message)
	if uint32(body) > sw.maxRecordSize {
		return fmt.Errorf("%w: %d > %d", ErrRecordTooLarge, body, sw.maxRecordSize)
	}

	var head [LengthPrefixSize + RecordHeaderSize]byte
	binary.BigEndian.PutUint32(head[0:4], uint32(body))
	head[4] = uint8(rec.Type)
	binary.BigEndian.PutUint16(head[5:7], rec.MessageCode)

	sw.mu.Lock()
	defer sw.mu.Unlock()

	if _, err := sw.w.Write(head[:]); err != nil {
		return fmt.Errorf("failed to write record header: %w", err)
	}
	if _, err := sw.w.Write(rec.Message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	if sw.logger != nil {
		sw.logger.Log(makeFrameEvent(sw.sessionID, rec, log.DirectionOut))
	}
	return nil
}

// Reader reads records from an underlying reader.
type Reader struct {
	r             io.Reader
	maxRecordSize uint32
	lengthBuf     [LengthPrefixSize]byte

	// Logging support (optional)
	logger    log.Logger
	sessionID string
}

// NewReader creates a record reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		r:             r,
		maxRecordSize: DefaultMaxRecordSize,
	}
}

// SetLogger configures logging for this reader.
// Pass nil to disable logging.
func (sr *Reader) SetLogger(logger log.Logger, sessionID string) {
	sr.logger = logger
	sr.sessionID = sessionID
}

// SetMaxRecordSize updates the maximum record body size.
func (sr *Reader) SetMaxRecordSize(size uint32) {
	sr.maxRecordSize = size
}

// Read returns the next record, or io.EOF at a clean end of stream.
func (sr *Reader) Read() (Record, error) {
	if _, err := io.ReadFull(sr.r, sr.lengthBuf[:]); err != nil {
		if err == io.EOF {
			return Record{}, err
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Record{}, ErrRecordTruncated
		}
		return Record{}, fmt.Errorf("failed to read length prefix: %w", err)
	}

	length := binary.BigEndian.Uint32(sr.lengthBuf[:])
	if length < RecordHeaderSize {
		return Record{}, fmt.Errorf("%w: %d bytes", ErrRecordTooShort, length)
	}
	if length > sr.maxRecordSize {
		return Record{}, fmt.Errorf("%w: %d > %d", ErrRecordTooLarge, length, sr.maxRecordSize)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(sr.r, body); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || err == io.EOF {
			return Record{}, ErrRecordTruncated
		}
		return Record{}, fmt.Errorf("failed to read record: %w", err)
	}

	rec := Record{
		Type:        gbz.MessageType(body[0]),
		MessageCode: binary.BigEndian.Uint16(body[1:3]),
		Message:     body[RecordHeaderSize:],
	}
	if !rec.Type.IsValid() {
		return Record{}, fmt.Errorf("spool: %w: %d", gbz.ErrInvalidMessageType, body[0])
	}

	if sr.logger != nil {
		sr.logger.Log(makeFrameEvent(sr.sessionID, rec, log.DirectionIn))
	}
	return rec, nil
}

// ReadAll reads records until io.EOF.
func (sr *Reader) ReadAll() ([]Record, error) {
	var out []Record
	for {
		rec, err := sr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// makeFrameEvent creates a log event for a record.
func makeFrameEvent(sessionID string, rec Record, direction log.Direction) log.Event {
	data := rec.Message
	truncated := false
	if len(data) > MaxLogFrameDataSize {
		data = data[:MaxLogFrameDataSize]
		truncated = true
	}

	return log.Event{
		Timestamp:   time.Now(),
		SessionID:   sessionID,
		Direction:   direction,
		Layer:       log.LayerSpool,
		Category:    log.CategoryMessage,
		MessageType: log.MessageType(rec.Type),
		MessageCode: rec.MessageCode,
		Frame: &log.FrameEvent{
			Size:      LengthPrefixSize + RecordHeaderSize + len(rec.Message),
			Data:      data,
			Truncated: truncated,
		},
	}
}
