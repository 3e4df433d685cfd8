package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndFind(t *testing.T) {
	r := NewRegistry()
	r.Register(NewAESGCMCapability())
	r.Register(NewHMACSHA1Capability())

	got := r.Find(AlgoHMACSHA1)
	require.NotNil(t, got)
	assert.Equal(t, "HMAC-SHA1", got.Name)

	assert.Nil(t, r.Find(AlgoEd25519))
}

func TestListReturnsStableSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Register(NewAESGCMCapability())

	snap := r.List()
	require.Len(t, snap, 1)

	r.Register(NewEd25519Capability())
	assert.Len(t, snap, 1, "earlier snapshot must not observe later registrations")
	assert.Len(t, r.List(), 2)
}

func TestSelfTestAllPass(t *testing.T) {
	r := NewRegistry()
	r.Register(NewAESGCMCapability())
	r.Register(NewHMACSHA1Capability())
	r.Register(NewEd25519Capability())
	r.Register(NewChaCha20Poly1305Capability())

	require.NoError(t, r.SelfTest())
	assert.Len(t, r.List(), 4)
}

// TestSelfTestPrunesFailingCapability covers spec.md §8 scenario S5: a
// broken capability among healthy ones is unlinked from the registry, and
// the remaining capabilities continue to work.
func TestSelfTestPrunesFailingCapability(t *testing.T) {
	r := NewRegistry()
	r.Register(NewAESGCMCapability())
	r.Register(NewHMACSHA1Capability())
	r.Register(NewBrokenCapability("BROKEN"))

	err := r.SelfTest()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKatFailed)

	remaining := r.List()
	assert.Len(t, remaining, 2)
	for _, e := range remaining {
		assert.NotEqual(t, "BROKEN", e.Name)
	}
}

func TestSelfTestAllFailReturnsNoCapabilities(t *testing.T) {
	r := NewRegistry()
	r.Register(NewBrokenCapability("BROKEN-1"))
	r.Register(NewBrokenCapability("BROKEN-2"))

	err := r.SelfTest()
	assert.ErrorIs(t, err, ErrNoCapabilities)
	assert.Len(t, r.List(), 0)
}

func TestSelfTestWithNilSelfTestIsNoOp(t *testing.T) {
	r := NewRegistry()
	r.Register(&Entry{ID: 99, Name: "no-self-test"})

	require.NoError(t, r.SelfTest())
	assert.Len(t, r.List(), 1)
}

func TestAESGCMCapabilityVTableEncryptSucceeds(t *testing.T) {
	e := NewAESGCMCapability()
	require.NoError(t, e.SelfTest())

	dst := make([]byte, len("known-answer-test-plaintext!!!!")+16)
	require.NoError(t, e.VTable.Encrypt(dst, []byte("known-answer-test-plaintext!!!!")))
}

func TestRunMechanismTestsPasses(t *testing.T) {
	require.NoError(t, RunMechanismTests())
}
