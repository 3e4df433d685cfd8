package certio

import "fmt"

// StreamReader is a minimal, zero-copy DER cursor implementing Asn1Reader
// over a caller-owned byte slice. It understands only what the trust cache
// needs to walk past an X.509 TBSCertificate's leading fields to the
// subject DN (spec.md §6's read_sequence/read_universal/peek_tag/skip/
// get_object_length/mem_block) — it is not a general ASN.1 decoder, and
// deliberately does not live under package trust so a caller with a real
// decoder can swap it in via the Asn1Reader interface instead.
type StreamReader struct {
	buf []byte
	pos int
}

// NewStreamReader wraps buf for sequential DER traversal starting at offset 0.
func NewStreamReader(buf []byte) *StreamReader {
	return &StreamReader{buf: buf}
}

func (s *StreamReader) tagLength(pos int) (tag byte, length, headerLen int, err error) {
	if pos >= len(s.buf) {
		return 0, 0, 0, fmt.Errorf("certio: truncated tag: %w", ErrParseFailed)
	}
	tag = s.buf[pos]
	if pos+1 >= len(s.buf) {
		return 0, 0, 0, fmt.Errorf("certio: truncated length: %w", ErrParseFailed)
	}
	lb := s.buf[pos+1]
	if lb&0x80 == 0 {
		return tag, int(lb), 2, nil
	}
	n := int(lb & 0x7f)
	if n == 0 || pos+2+n > len(s.buf) {
		return 0, 0, 0, fmt.Errorf("certio: bad long-form length: %w", ErrParseFailed)
	}
	length = 0
	for i := 0; i < n; i++ {
		length = (length << 8) | int(s.buf[pos+2+i])
	}
	return tag, length, 2 + n, nil
}

// ReadSequence enters the SEQUENCE at the cursor, positioning the cursor at
// its first content byte, and returns the content length.
func (s *StreamReader) ReadSequence() (int, error) {
	_, length, headerLen, err := s.tagLength(s.pos)
	if err != nil {
		return 0, err
	}
	s.pos += headerLen
	return length, nil
}

// ReadUniversal skips the element at the cursor entirely (tag, length and
// content), without interpreting it.
func (s *StreamReader) ReadUniversal() error {
	_, length, headerLen, err := s.tagLength(s.pos)
	if err != nil {
		return err
	}
	if s.pos+headerLen+length > len(s.buf) {
		return fmt.Errorf("certio: element overruns buffer: %w", ErrParseFailed)
	}
	s.pos += headerLen + length
	return nil
}

// PeekTag returns the tag byte at the cursor without consuming it.
func (s *StreamReader) PeekTag() (int, error) {
	if s.pos >= len(s.buf) {
		return 0, fmt.Errorf("certio: peek past end: %w", ErrParseFailed)
	}
	return int(s.buf[s.pos]), nil
}

// Skip advances the cursor by n content bytes (used after ObjectLength to
// step over an already-measured element, e.g. the subject DN itself).
func (s *StreamReader) Skip(n int) error {
	if s.pos+n > len(s.buf) {
		return fmt.Errorf("certio: skip past end: %w", ErrParseFailed)
	}
	s.pos += n
	return nil
}

// ObjectLength returns the *total* length (tag + length header + content) of
// the element at the cursor without consuming it, matching the cryptlib
// getStreamObjectLength convention that original_source's trustmgr.c relies
// on: callers pass the result straight to MemBlock(0, n) to capture the
// whole element, then Skip(n) to step over it.
func (s *StreamReader) ObjectLength() (int, error) {
	_, length, headerLen, err := s.tagLength(s.pos)
	if err != nil {
		return 0, err
	}
	return headerLen + length, nil
}

// MemBlock returns a zero-copy view of length bytes starting start bytes
// past the current cursor, without moving the cursor. A caller that wants
// the data at the cursor itself (e.g. to capture an element located by
// ObjectLength before Skip-ing past it) passes start == 0.
func (s *StreamReader) MemBlock(start, length int) ([]byte, error) {
	from := s.pos + start
	if start < 0 || length < 0 || from+length > len(s.buf) {
		return nil, fmt.Errorf("certio: mem block out of range: %w", ErrParseFailed)
	}
	return s.buf[from : from+length], nil
}
