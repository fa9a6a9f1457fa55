package gbz

// lease ties spans to the lifetime of the parser that produced them.
type lease struct {
	released bool
}

// Span is a payload view returned by the parser. Unencrypted payloads alias
// the parser's buffer; after Parser.Cleanup every span reports ErrReleased.
type Span struct {
	data  []byte
	lease *lease
}

// Bytes returns the viewed bytes. The slice must not be retained past
// Parser.Cleanup; use Clone for that.
func (s Span) Bytes() ([]byte, error) {
	if !s.Valid() {
		return nil, ErrReleased
	}
	return s.data, nil
}

// Clone returns a copy of the viewed bytes that outlives the parser.
func (s Span) Clone() ([]byte, error) {
	b, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// Len returns the span length, or 0 once released.
func (s Span) Len() int {
	if !s.Valid() {
		return 0
	}
	return len(s.data)
}

// Valid reports whether the span may still be read.
func (s Span) Valid() bool {
	return s.lease == nil || !s.lease.released
}
