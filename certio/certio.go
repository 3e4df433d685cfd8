// Package certio declares the external collaborators the trust cache depends
// on: a zero-copy ASN.1 reader and a certificate constructor. Both are out of
// scope for this module (spec.md §1 lists the ASN.1 parser and the public
// certificate/session/envelope machinery as external collaborators) — their
// shape is pinned down here, together with StreamReader (der.go), a minimal
// DER cursor that package trust uses to locate subject DNs, so trust can be
// built and tested without pulling in a full certificate stack.
package certio

import "errors"

// ErrParseFailed is returned, wrapped, by Asn1Reader implementations when the
// underlying buffer does not contain a well-formed element at the cursor.
var ErrParseFailed = errors.New("certio: parse failed")

// Asn1Reader is the subset of a streaming ASN.1 decoder that the trust cache
// needs to locate a certificate's encoded subject DN: read_sequence,
// read_universal (skip an element), peek_tag, skip, get_object_length and
// mem_block from spec.md §6.
type Asn1Reader interface {
	// ReadSequence enters the next SEQUENCE, returning its content length.
	ReadSequence() (int, error)

	// ReadUniversal skips over the next element without interpreting it.
	ReadUniversal() error

	// PeekTag returns the tag of the next element without consuming it.
	PeekTag() (int, error)

	// Skip advances the cursor by n bytes.
	Skip(n int) error

	// ObjectLength returns the total length (header plus content) of the
	// element at the cursor.
	ObjectLength() (int, error)

	// MemBlock returns a zero-copy view of length bytes starting start bytes
	// past the reader's cursor.
	MemBlock(start, length int) ([]byte, error)
}

// CertHandle is an opaque reference-counted certificate object, analogous to
// cryptlib's CRYPT_CERTIFICATE. Package trust relies on the four methods
// below.
type CertHandle interface {
	// SubjectDN returns the encoded (DER) subject distinguished name.
	SubjectDN() []byte

	// IsSelfSigned reports whether the certificate's issuer and subject DN
	// match, per spec.md §4.6 step 1 ("searching for an issuer and the
	// certificate reports self-signed").
	IsSelfSigned() bool

	// HasPrivateKeyContext reports whether a private-key context is attached
	// to this handle, per spec.md §4.6 insertion rules.
	HasPrivateKeyContext() bool

	// Encoded returns the DER encoding of the whole certificate, used when
	// the trust cache needs to fall back to lazy re-materialisation instead
	// of holding a direct reference (spec.md §4.6).
	Encoded() []byte
}

// CertConstructor builds a CertHandle from its encoded (DER) form. This is
// the "external cert-create interface" of spec.md §4.6's materialisation step.
type CertConstructor interface {
	// CreateCertIndirect parses encoded and returns a certificate handle, or
	// ErrParseFailed (wrapped) if encoded is not a well-formed certificate.
	CreateCertIndirect(encoded []byte) (CertHandle, error)
}
