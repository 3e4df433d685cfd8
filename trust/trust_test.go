package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultcore/sysdevice/certio"
)

// fakeCert is a minimal certio.CertHandle fixture for tests. It is not a
// real X.509 certificate implementation — package certio's Asn1Reader and
// CertConstructor are external collaborators per spec.md §1.
type fakeCert struct {
	subject    []byte // the full subject-DN TLV, tag+length+content
	encoded    []byte
	selfSigned bool
	hasContext bool
}

func (f *fakeCert) SubjectDN() []byte         { return f.subject }
func (f *fakeCert) IsSelfSigned() bool        { return f.selfSigned }
func (f *fakeCert) HasPrivateKeyContext() bool { return f.hasContext }
func (f *fakeCert) Encoded() []byte           { return f.encoded }

type fakeConstructor struct {
	calls int
	certs map[string]*fakeCert // keyed by encoded form, as a string
}

func (c *fakeConstructor) CreateCertIndirect(encoded []byte) (certio.CertHandle, error) {
	c.calls++
	if cert, ok := c.certs[string(encoded)]; ok {
		return cert, nil
	}
	return nil, certio.ErrParseFailed
}

// wrapTag wraps content in a DER tag+length header.
func wrapTag(tag byte, content []byte) []byte {
	out := []byte{tag}
	out = append(out, encodeLength(len(content))...)
	return append(out, content...)
}

func encodeLength(n int) []byte {
	if n < 0x80 {
		return []byte{byte(n)}
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte(n & 0xFF)}, b...)
		n >>= 8
	}
	return append([]byte{byte(0x80 | len(b))}, b...)
}

// subjectTLV returns the full SEQUENCE TLV (tag+length+content) for a
// single-string subject DN — the identity basis shared by the handle path
// (fakeCert.subject) and the encoded-certificate path (extractSubjectDN's
// ObjectLength/MemBlock/Skip, which also captures the full TLV).
func subjectTLV(name string) []byte {
	return wrapTag(0x30, []byte(name))
}

// encodeMinimalCert builds a DER blob shaped like an X.509 TBSCertificate
// (outer SEQUENCE, inner SEQUENCE, serial, sigalg, issuer, validity,
// subject) so extractSubjectDN's fixed walk locates the subject TLV,
// without depending on a real certificate library.
func encodeMinimalCert(subject string) []byte {
	serial := wrapTag(0x02, []byte{0x01})
	sigAlg := wrapTag(0x30, []byte("sigalg"))
	issuer := wrapTag(0x30, []byte("issuer"))
	validity := wrapTag(0x30, []byte("validity"))
	subj := subjectTLV(subject)

	var inner []byte
	inner = append(inner, serial...)
	inner = append(inner, sigAlg...)
	inner = append(inner, issuer...)
	inner = append(inner, validity...)
	inner = append(inner, subj...)

	innerSeq := wrapTag(0x30, inner)
	return wrapTag(0x30, innerSeq)
}

func newFakeCert(subject string, selfSigned bool) *fakeCert {
	return &fakeCert{
		subject:    subjectTLV(subject),
		encoded:    encodeMinimalCert(subject),
		selfSigned: selfSigned,
	}
}

func newReaderFor(encoded []byte) certio.Asn1Reader {
	return certio.NewStreamReader(encoded)
}

func TestAddAndFind(t *testing.T) {
	tbl := NewTable()
	cert := newFakeCert("CN=leaf", false)

	require.NoError(t, tbl.Add(cert, true))

	found, err := tbl.Find(cert, false)
	require.NoError(t, err)
	require.NotNil(t, found)
}

func TestDuplicateInsertReturnsDuplicate(t *testing.T) {
	tbl := NewTable()
	cert := newFakeCert("CN=leaf", false)
	require.NoError(t, tbl.Add(cert, true))

	err := tbl.Add(cert, true)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, 1, tbl.Len())
}

func TestDeleteRemovesFromBucket(t *testing.T) {
	tbl := NewTable()
	cert := newFakeCert("CN=leaf", false)
	require.NoError(t, tbl.Add(cert, true))

	entry, err := tbl.Find(cert, false)
	require.NoError(t, err)
	require.NotNil(t, entry)

	before := tbl.Len()
	require.NoError(t, tbl.Delete(entry))
	assert.Equal(t, before-1, tbl.Len())

	found, err := tbl.Find(cert, false)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindIssuerOnSelfSignedReturnsNone(t *testing.T) {
	tbl := NewTable()
	root := newFakeCert("CN=root", true)
	require.NoError(t, tbl.Add(root, true))

	found, err := tbl.Find(root, true) // forIssuer == true
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestAddChainSkipsDuplicatesFailsOnlyIfNoneInserted(t *testing.T) {
	tbl := NewTable()
	a := newFakeCert("CN=a", false)
	b := newFakeCert("CN=b", false)

	require.NoError(t, tbl.AddChain([]certio.CertHandle{a, b}, true))
	assert.Equal(t, 2, tbl.Len())

	// Re-adding the same chain: every element is a duplicate.
	err := tbl.AddChain([]certio.CertHandle{a, b}, true)
	assert.ErrorIs(t, err, ErrAlreadyPresent)
	assert.Equal(t, 2, tbl.Len())
}

func TestAddChainPartialDuplicateSucceeds(t *testing.T) {
	tbl := NewTable()
	a := newFakeCert("CN=a", false)
	b := newFakeCert("CN=b", false)
	require.NoError(t, tbl.Add(a, true))

	err := tbl.AddChain([]certio.CertHandle{a, b}, true)
	assert.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
}

func TestLazyMaterialisationIsIdempotent(t *testing.T) {
	tbl := NewTable()
	cert := newFakeCert("CN=leaf", false)
	// hasContext=false forces the storedEncoded (lazy) path, per spec.md §4.6.
	require.NoError(t, tbl.Add(cert, false))

	entry, err := tbl.Find(cert, false)
	require.NoError(t, err)
	require.NotNil(t, entry)

	ctor := &fakeConstructor{certs: map[string]*fakeCert{string(cert.encoded): cert}}

	h1, err := tbl.Materialise(entry, ctor)
	require.NoError(t, err)
	assert.Same(t, cert, h1.(*fakeCert))
	assert.Equal(t, 1, ctor.calls)

	h2, err := tbl.Materialise(entry, ctor)
	require.NoError(t, err)
	assert.Same(t, cert, h2.(*fakeCert))
	assert.Equal(t, 1, ctor.calls, "second materialisation must not re-parse")
}

func TestAddEncodedExtractsSubjectViaAsn1Reader(t *testing.T) {
	tbl := NewTable()
	encoded := encodeMinimalCert("CN=from-config")

	require.NoError(t, tbl.AddEncoded(encoded, newReaderFor(encoded)))
	assert.Equal(t, 1, tbl.Len())

	// A handle whose SubjectDN is the same TLV must find the same entry.
	cert := &fakeCert{subject: subjectTLV("CN=from-config")}
	found, err := tbl.Find(cert, false)
	require.NoError(t, err)
	assert.NotNil(t, found)
}

func TestEnumerateVisitsAllAndAbortsOnError(t *testing.T) {
	tbl := NewTable()
	a := newFakeCert("CN=a", false)
	b := newFakeCert("CN=b", false)
	require.NoError(t, tbl.Add(a, false))
	require.NoError(t, tbl.Add(b, false))

	ctor := &fakeConstructor{certs: map[string]*fakeCert{
		string(a.encoded): a,
		string(b.encoded): b,
	}}

	visited := 0
	err := tbl.Enumerate(ctor, func(h certio.CertHandle, e *Entry) error {
		visited++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, visited)

	stopErr := assertError("stop")
	visited = 0
	err = tbl.Enumerate(ctor, func(h certio.CertHandle, e *Entry) error {
		visited++
		return stopErr
	})
	assert.ErrorIs(t, err, stopErr)
	assert.Equal(t, 1, visited)
}

type assertError string

func (e assertError) Error() string { return string(e) }
