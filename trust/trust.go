// Package trust implements the certificate trust cache of spec.md §4.6: a
// 256-bucket hash table keyed by a checksum of the certificate's subject
// name, with lazy materialisation from a stored encoded form.
package trust

import (
	"crypto/sha1" //nolint:gosec // 20-byte subject-name hash per spec.md §3's [u8; 20], not a security boundary.
	"fmt"
	"hash/crc32"
	"sync"

	"github.com/vaultcore/sysdevice/certio"
)

const bucketCount = 256

// Entry is a single cached trust record (spec.md §3).
type Entry struct {
	subjectChecksum uint32
	subjectHash     [sha1.Size]byte

	mu            sync.Mutex
	storedEncoded []byte
	materialised  certio.CertHandle
}

// Table is the trust cache (component F). All mutating methods lock the
// whole table for their duration (spec.md §5: "Trust-cache buckets are
// mutated only with the device lock held; lookup holds the lock for its
// entire walk"); the owning device is expected to serialize access with its
// own suspend/resume lock, but Table is also independently safe to use.
type Table struct {
	mu      sync.Mutex
	buckets [bucketCount][]*Entry
}

// NewTable returns an empty trust cache.
func NewTable() *Table {
	return &Table{}
}

func bucketIndex(checksum uint32) int {
	return int(checksum & 0xFF)
}

// subjectID computes the checksum and 20-byte hash of a subject DN.
func subjectID(dn []byte) (uint32, [sha1.Size]byte) {
	checksum := crc32.ChecksumIEEE(dn)
	return checksum, sha1.Sum(dn) //nolint:gosec // see package doc
}

// extractSubjectDN walks a certificate's encoded TBSCertificate via the
// external ASN.1 reader to locate the subject DN, mirroring
// original_source's trustmgr.c getCertIdInfo: outer wrapper, inner wrapper,
// optional version tag, serial number, signature algorithm, issuer DN,
// validity, then the subject DN itself.
func extractSubjectDN(r certio.Asn1Reader) ([]byte, error) {
	if _, err := r.ReadSequence(); err != nil { // outer wrapper
		return nil, err
	}
	if _, err := r.ReadSequence(); err != nil { // inner (TBSCertificate) wrapper
		return nil, err
	}
	if tag, err := r.PeekTag(); err != nil {
		return nil, err
	} else if tag == 0xA0 { // [0] EXPLICIT version
		if err := r.ReadUniversal(); err != nil {
			return nil, err
		}
	}
	for i := 0; i < 4; i++ { // serial number, signature algo, issuer DN, validity
		if err := r.ReadUniversal(); err != nil {
			return nil, err
		}
	}
	length, err := r.ObjectLength()
	if err != nil {
		return nil, err
	}
	dn, err := r.MemBlock(0, length) // caller-specific: offset handled by the reader's own cursor
	if err != nil {
		return nil, err
	}
	if err := r.Skip(length); err != nil {
		return nil, err
	}
	return dn, nil
}

// findLocked walks the bucket for (checksum, hash), returning the matching
// entry or nil. Caller must hold t.mu.
func (t *Table) findLocked(checksum uint32, hash [sha1.Size]byte) *Entry {
	for _, e := range t.buckets[bucketIndex(checksum)] {
		if e.subjectChecksum == checksum && e.subjectHash == hash {
			return e
		}
	}
	return nil
}

// Find looks up a trust entry by certificate handle. If forIssuer is true
// and cert reports self-signed, Find returns (nil, nil) immediately — this
// prevents infinite loops walking a CA root's issuer chain (spec.md §4.6
// step 1, scenario S4).
func (t *Table) Find(cert certio.CertHandle, forIssuer bool) (*Entry, error) {
	if forIssuer && cert.IsSelfSigned() {
		return nil, nil
	}
	checksum, hash := subjectID(cert.SubjectDN())

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.findLocked(checksum, hash), nil
}

// FindEncoded looks up a trust entry from a raw encoded certificate via the
// external ASN.1 interface, for callers that have not materialised a handle.
func (t *Table) FindEncoded(r certio.Asn1Reader) (*Entry, error) {
	dn, err := extractSubjectDN(r)
	if err != nil {
		return nil, fmt.Errorf("%w", certio.ErrParseFailed)
	}
	checksum, hash := subjectID(dn)

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.findLocked(checksum, hash), nil
}

// Add inserts a single already-materialised certificate. Per spec.md §4.6:
// if the certificate carries a private-key context, or carries no context at
// all (hasContext == false), the entry stores the encoded form for lazy
// re-materialisation instead of holding the handle directly.
func (t *Table) Add(cert certio.CertHandle, hasContext bool) error {
	checksum, hash := subjectID(cert.SubjectDN())

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.findLocked(checksum, hash) != nil {
		return ErrDuplicate
	}

	e := &Entry{subjectChecksum: checksum, subjectHash: hash}
	if cert.HasPrivateKeyContext() || !hasContext {
		e.storedEncoded = append([]byte(nil), cert.Encoded()...)
	} else {
		e.materialised = cert
	}

	idx := bucketIndex(checksum)
	t.buckets[idx] = append(t.buckets[idx], e)
	return nil
}

// AddEncoded inserts a certificate from its raw encoded form (e.g. supplied
// one blob at a time by a configuration loader, per spec.md §6), storing it
// for lazy materialisation.
func (t *Table) AddEncoded(encoded []byte, r certio.Asn1Reader) error {
	dn, err := extractSubjectDN(r)
	if err != nil {
		return fmt.Errorf("%w", certio.ErrParseFailed)
	}
	checksum, hash := subjectID(dn)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.findLocked(checksum, hash) != nil {
		return ErrDuplicate
	}

	e := &Entry{
		subjectChecksum: checksum,
		subjectHash:     hash,
		storedEncoded:   append([]byte(nil), encoded...),
	}
	idx := bucketIndex(checksum)
	t.buckets[idx] = append(t.buckets[idx], e)
	return nil
}

// AddChain inserts every certificate in chain. Duplicates are non-fatal and
// simply skipped; ErrAlreadyPresent is returned only if *no* element of the
// chain was newly inserted (spec.md §4.6).
func (t *Table) AddChain(chain []certio.CertHandle, hasContext bool) error {
	inserted := 0
	for _, cert := range chain {
		err := t.Add(cert, hasContext)
		if err == nil {
			inserted++
			continue
		}
		if err != ErrDuplicate {
			return err
		}
	}
	if inserted == 0 {
		return ErrAlreadyPresent
	}
	return nil
}

// Materialise parses an entry's stored encoded form via the supplied
// constructor, on success replacing the encoded form (which is zeroised and
// dropped) with the resulting handle. If the entry is already materialised,
// its existing handle is returned without re-parsing (spec.md §8 property 6).
func (t *Table) Materialise(e *Entry, ctor certio.CertConstructor) (certio.CertHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.materialised != nil {
		return e.materialised, nil
	}
	h, err := ctor.CreateCertIndirect(e.storedEncoded)
	if err != nil {
		return nil, err
	}
	zeroize(e.storedEncoded)
	e.storedEncoded = nil
	e.materialised = h
	return h, nil
}

// Delete unlinks e from its bucket, zeroises any stored encoded form, and
// clears its fields (spec.md §4.6 "Deletion").
func (t *Table) Delete(e *Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := bucketIndex(e.subjectChecksum)
	bucket := t.buckets[idx]
	for i, cand := range bucket {
		if cand == e {
			t.buckets[idx] = append(bucket[:i], bucket[i+1:]...)
			e.mu.Lock()
			zeroize(e.storedEncoded)
			e.storedEncoded = nil
			e.materialised = nil
			e.mu.Unlock()
			e.subjectChecksum = 0
			e.subjectHash = [sha1.Size]byte{}
			return nil
		}
	}
	return ErrNotFound
}

// Close zeroises every entry's stored encoded form and empties every
// bucket, per spec.md §4.7's Destroy handler ("Tear down ... F"). The Table
// must not be used after Close.
func (t *Table) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for idx, bucket := range t.buckets {
		for _, e := range bucket {
			e.mu.Lock()
			zeroize(e.storedEncoded)
			e.storedEncoded = nil
			e.materialised = nil
			e.mu.Unlock()
		}
		t.buckets[idx] = nil
	}
}

// Len returns the total number of entries across all buckets.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, b := range t.buckets {
		n += len(b)
	}
	return n
}

// Visitor is called once per entry during Enumerate, after lazy
// materialisation if needed.
type Visitor func(handle certio.CertHandle, e *Entry) error

// Enumerate walks every bucket, materialising each entry as needed (via
// ctor) and invoking visit. Any error from visit aborts enumeration
// immediately and is returned to the caller (spec.md §4.6 "Enumeration").
func (t *Table) Enumerate(ctor certio.CertConstructor, visit Visitor) error {
	t.mu.Lock()
	var all []*Entry
	for _, b := range t.buckets {
		all = append(all, b...)
	}
	t.mu.Unlock()

	for _, e := range all {
		h, err := t.Materialise(e, ctor)
		if err != nil {
			return err
		}
		if err := visit(h, e); err != nil {
			return err
		}
	}
	return nil
}

func zeroize(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
