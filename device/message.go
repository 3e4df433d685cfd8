package device

import (
	"github.com/vaultcore/sysdevice/certio"
	"github.com/vaultcore/sysdevice/trust"
)

// Message is the system device's dispatch sum type of spec.md §9's
// re-architecture guidance: "replace [void-pointer message dispatch] with a
// sum type of messages; each variant carries its typed payload; the
// device's dispatch becomes exhaustive pattern matching." Dispatch uses a
// type switch over these concrete types rather than an integer opcode.
type Message interface {
	isMessage()
}

// GetRandomMsg requests N bytes of device randomness (spec.md §4.2/§4.7).
type GetRandomMsg struct{ N int }

// GetNonceMsg requests N bytes from the nonce sub-generator (spec.md §4.4).
type GetNonceMsg struct{ N int }

// GetTimeMsg requests a high-reliability wall-clock reading (spec.md §4.7's
// GetAttribute(Time)).
type GetTimeMsg struct{}

// AddEntropyMsg feeds caller-supplied entropy into the pool, bypassing fast
// poll (spec.md §4.1's explicit add_entropy path).
type AddEntropyMsg struct {
	Data    []byte
	Quality int
}

// SetEntropyQualityMsg vouches for quality already delivered via
// AddEntropyMsg{Quality: 0} (spec.md §4.7 SetAttribute(EntropyQuality, n)).
type SetEntropyQualityMsg struct{ N int }

// TriggerPollMsg forces an immediate slow poll regardless of current
// quality (spec.md §4.7 SetAttribute(RandomPoll)).
type TriggerPollMsg struct{}

// SelfTestMsg runs the capability registry's self-test followed by the
// fixed mechanism KAT battery (spec.md §4.5/§4.7).
type SelfTestMsg struct{}

// TrustAddMsg inserts an already-materialised certificate into the trust
// cache (spec.md §4.6).
type TrustAddMsg struct {
	Cert       certio.CertHandle
	HasContext bool
}

// TrustFindMsg looks up a trust entry by certificate handle.
type TrustFindMsg struct {
	Cert      certio.CertHandle
	ForIssuer bool
}

// TrustDeleteMsg removes a trust entry previously returned by a find.
type TrustDeleteMsg struct{ Entry *trust.Entry }

// DestroyMsg initiates device shutdown: every message dispatched afterward
// fails with ErrShuttingDown (spec.md §7).
type DestroyMsg struct{}

func (GetRandomMsg) isMessage()         {}
func (GetNonceMsg) isMessage()          {}
func (GetTimeMsg) isMessage()           {}
func (AddEntropyMsg) isMessage()        {}
func (SetEntropyQualityMsg) isMessage() {}
func (TriggerPollMsg) isMessage()       {}
func (SelfTestMsg) isMessage()          {}
func (TrustAddMsg) isMessage()          {}
func (TrustFindMsg) isMessage()         {}
func (TrustDeleteMsg) isMessage()       {}
func (DestroyMsg) isMessage()           {}
