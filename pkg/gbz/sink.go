package gbz

import "fmt"

// Handle identifies a component written to a Sink. It is a node index for
// ListSink and a byte offset for FixedBufferSink.
type Handle int

// Sink is the storage the Creator writes components into.
//
// Reserve either returns a region of exactly n bytes or an error without
// changing the sink. Regions returned earlier stay addressable through
// their handle until Assemble or Release.
type Sink interface {
	// Header returns the message header bytes held by the sink.
	Header() []byte

	// Reserve allocates n bytes for the next component.
	Reserve(n int) (Handle, []byte, error)

	// Component returns the bytes of a previously reserved component.
	Component(h Handle) []byte

	// Len returns the message size so far, header included.
	Len() int

	// Assemble returns the finished message.
	Assemble() (*Message, error)

	// Release drops all storage held by the sink.
	Release()
}

// Message is an assembled GBZ message.
type Message struct {
	Payload []byte

	// OwnershipTransferred is true when Payload was allocated for the
	// caller, and false when it aliases the caller's own buffer.
	OwnershipTransferred bool
}

// Len returns the message length in bytes.
func (m *Message) Len() int {
	return len(m.Payload)
}

// ListSink keeps every component in its own node and copies them into one
// buffer on Assemble.
type ListSink struct {
	header  []byte
	nodes   [][]byte
	size    int
	maxSize int
}

// NewListSink creates a list sink holding a copy of header. maxSize bounds
// the assembled message (0 means unbounded).
func NewListSink(header []byte, maxSize int) (*ListSink, error) {
	if maxSize > 0 && len(header) > maxSize {
		return nil, ErrAllocationFailure
	}
	h := make([]byte, len(header))
	copy(h, header)
	return &ListSink{
		header:  h,
		size:    len(h),
		maxSize: maxSize,
	}, nil
}

// Header implements Sink.
func (s *ListSink) Header() []byte {
	return s.header
}

// Reserve implements Sink.
func (s *ListSink) Reserve(n int) (Handle, []byte, error) {
	if s.header == nil {
		return 0, nil, ErrHeaderNotInitialized
	}
	if s.maxSize > 0 && s.size+n > s.maxSize {
		return 0, nil, fmt.Errorf("%w: %d > %d", ErrAllocationFailure, s.size+n, s.maxSize)
	}
	node := make([]byte, n)
	s.nodes = append(s.nodes, node)
	s.size += n
	return Handle(len(s.nodes) - 1), node, nil
}

// Component implements Sink.
func (s *ListSink) Component(h Handle) []byte {
	if int(h) < 0 || int(h) >= len(s.nodes) {
		return nil
	}
	return s.nodes[h]
}

// Nodes returns the number of pending component nodes.
func (s *ListSink) Nodes() int {
	return len(s.nodes)
}

// Len implements Sink.
func (s *ListSink) Len() int {
	return s.size
}

// Assemble copies the header and every node, in append order, into one
// buffer and releases the nodes.
func (s *ListSink) Assemble() (*Message, error) {
	if s.header == nil {
		return nil, ErrHeaderNotInitialized
	}
	out := make([]byte, 0, s.size)
	out = append(out, s.header...)
	for _, node := range s.nodes {
		out = append(out, node...)
	}
	s.nodes = nil
	s.size = len(s.header)
	return &Message{Payload: out, OwnershipTransferred: true}, nil
}

// Release implements Sink.
func (s *ListSink) Release() {
	s.header = nil
	s.nodes = nil
	s.size = 0
}

// FixedBufferSink writes the message in place into a caller-owned buffer.
type FixedBufferSink struct {
	buf        []byte
	headerSize int
	written    int
}

// NewFixedBufferSink writes header at the start of buf.
func NewFixedBufferSink(buf []byte, header []byte) (*FixedBufferSink, error) {
	if len(header) > len(buf) {
		return nil, fmt.Errorf("%w: header needs %d bytes, buffer has %d", ErrInsufficientSpace, len(header), len(buf))
	}
	copy(buf, header)
	return &FixedBufferSink{
		buf:        buf,
		headerSize: len(header),
		written:    len(header),
	}, nil
}

// Header implements Sink.
func (s *FixedBufferSink) Header() []byte {
	if s.buf == nil {
		return nil
	}
	return s.buf[:s.headerSize]
}

// Reserve implements Sink. The buffer is not touched when n does not fit.
func (s *FixedBufferSink) Reserve(n int) (Handle, []byte, error) {
	if s.buf == nil {
		return 0, nil, ErrHeaderNotInitialized
	}
	if n > s.Remaining() {
		return 0, nil, fmt.Errorf("%w: need %d bytes, %d remaining", ErrInsufficientSpace, n, s.Remaining())
	}
	h := Handle(s.written)
	region := s.buf[s.written : s.written+n]
	s.written += n
	return h, region, nil
}

// Component implements Sink.
func (s *FixedBufferSink) Component(h Handle) []byte {
	if int(h) < s.headerSize || int(h) >= s.written {
		return nil
	}
	return s.buf[h:s.written]
}

// Remaining returns the free capacity of the buffer.
func (s *FixedBufferSink) Remaining() int {
	return len(s.buf) - s.written
}

// Len implements Sink.
func (s *FixedBufferSink) Len() int {
	return s.written
}

// Assemble returns the written prefix of the caller's buffer.
func (s *FixedBufferSink) Assemble() (*Message, error) {
	if s.buf == nil {
		return nil, ErrHeaderNotInitialized
	}
	return &Message{Payload: s.buf[:s.written], OwnershipTransferred: false}, nil
}

// Release implements Sink. The caller's buffer is left as is.
func (s *FixedBufferSink) Release() {
	s.buf = nil
	s.written = 0
	s.headerSize = 0
}

var (
	_ Sink = (*ListSink)(nil)
	_ Sink = (*FixedBufferSink)(nil)
)
