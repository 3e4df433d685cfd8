package capability

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // HMAC-SHA1 is a self-test fixture capability, not a production primitive choice.
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Known algorithm identifiers for the built-in self-test fixture
// capabilities. Real deployments register their own AlgoID space.
const (
	AlgoAESGCM AlgoID = iota + 1
	AlgoHMACSHA1
	AlgoEd25519
	AlgoChaCha20Poly1305
)

// NewAESGCMCapability returns an AES-256-GCM capability whose self-test
// performs a round-trip encrypt/decrypt against a fixed key, nonce and
// plaintext and checks the ciphertext matches byte-for-byte.
func NewAESGCMCapability() *Entry {
	key := bytes.Repeat([]byte{0x42}, 32)
	nonce := bytes.Repeat([]byte{0x24}, 12)
	plaintext := []byte("known-answer-test-plaintext!!!!")
	wantCiphertext := mustHex("7effab3687eba750559f47d89046f6d518d6431cd7c23e19d5dcb87b77e4c69bc522a9a123456017a387796117288a")

	return &Entry{
		ID:   AlgoAESGCM,
		Name: "AES-256-GCM",
		SelfTest: func() error {
			block, err := aes.NewCipher(key)
			if err != nil {
				return err
			}
			gcm, err := cipher.NewGCM(block)
			if err != nil {
				return err
			}
			ct := gcm.Seal(nil, nonce, plaintext, nil)
			if !bytes.Equal(ct, wantCiphertext) {
				return fmt.Errorf("ciphertext mismatch")
			}
			pt, err := gcm.Open(nil, nonce, ct, nil)
			if err != nil {
				return err
			}
			if !bytes.Equal(pt, plaintext) {
				return fmt.Errorf("round-trip mismatch")
			}
			return nil
		},
		VTable: VTable{
			Encrypt: func(dst, src []byte) error {
				block, err := aes.NewCipher(key)
				if err != nil {
					return err
				}
				gcm, err := cipher.NewGCM(block)
				if err != nil {
					return err
				}
				copy(dst, gcm.Seal(nil, nonce, src, nil))
				return nil
			},
		},
	}
}

// NewHMACSHA1Capability returns an HMAC-SHA1 capability whose self-test
// compares against a hard-coded known-answer vector.
func NewHMACSHA1Capability() *Entry {
	key := []byte("key")
	data := []byte("The quick brown fox jumps over the lazy dog")
	want := mustHex("de7c9b85b8b78aa6bc8a7a36f70a90701c9db4d9")

	return &Entry{
		ID:   AlgoHMACSHA1,
		Name: "HMAC-SHA1",
		SelfTest: func() error {
			mac := hmac.New(sha1.New, key) //nolint:gosec // see package doc
			mac.Write(data)
			got := mac.Sum(nil)
			if !bytes.Equal(got, want) {
				return fmt.Errorf("hmac mismatch: got %x want %x", got, want)
			}
			return nil
		},
		VTable: VTable{
			Hash: func(d []byte) []byte {
				mac := hmac.New(sha1.New, key) //nolint:gosec // see package doc
				mac.Write(d)
				return mac.Sum(nil)
			},
		},
	}
}

// NewEd25519Capability returns an Ed25519 capability whose self-test
// generates a keypair and verifies a sign/verify round trip.
func NewEd25519Capability() *Entry {
	return &Entry{
		ID:   AlgoEd25519,
		Name: "Ed25519",
		SelfTest: func() error {
			pub, priv, err := ed25519.GenerateKey(rand.Reader)
			if err != nil {
				return err
			}
			msg := []byte("known-answer-test-message")
			sig := ed25519.Sign(priv, msg)
			if !ed25519.Verify(pub, msg, sig) {
				return fmt.Errorf("signature did not verify")
			}
			return nil
		},
		VTable: VTable{
			Sign: func(data []byte) ([]byte, error) {
				_, priv, err := ed25519.GenerateKey(rand.Reader)
				if err != nil {
					return nil, err
				}
				return ed25519.Sign(priv, data), nil
			},
		},
	}
}

// NewChaCha20Poly1305Capability returns a ChaCha20-Poly1305 AEAD capability,
// wiring golang.org/x/crypto/chacha20poly1305 as the example pack consistently
// does for this primitive.
func NewChaCha20Poly1305Capability() *Entry {
	key := bytes.Repeat([]byte{0x11}, chacha20poly1305.KeySize)
	nonce := bytes.Repeat([]byte{0x22}, chacha20poly1305.NonceSize)
	plaintext := []byte("chacha20poly1305 known-answer-test")

	return &Entry{
		ID:   AlgoChaCha20Poly1305,
		Name: "ChaCha20-Poly1305",
		SelfTest: func() error {
			aead, err := chacha20poly1305.New(key)
			if err != nil {
				return err
			}
			ct := aead.Seal(nil, nonce, plaintext, nil)
			pt, err := aead.Open(nil, nonce, ct, nil)
			if err != nil {
				return err
			}
			if !bytes.Equal(pt, plaintext) {
				return fmt.Errorf("round-trip mismatch")
			}
			return nil
		},
		VTable: VTable{
			Encrypt: func(dst, src []byte) error {
				aead, err := chacha20poly1305.New(key)
				if err != nil {
					return err
				}
				copy(dst, aead.Seal(nil, nonce, src, nil))
				return nil
			},
		},
	}
}

// NewBrokenCapability returns a capability whose self-test always fails,
// used to exercise spec.md §8 scenario S5 (self-test pruning).
func NewBrokenCapability(name string) *Entry {
	return &Entry{
		ID:   -1,
		Name: name,
		SelfTest: func() error {
			return fmt.Errorf("simulated KAT failure for %s", name)
		},
	}
}

func mustHex(s string) []byte {
	b := make([]byte, len(s)/2)
	for i := 0; i < len(b); i++ {
		hi := hexNibble(s[i*2])
		lo := hexNibble(s[i*2+1])
		b[i] = hi<<4 | lo
	}
	return b
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

// RunMechanismTests runs the fixed mechanism KAT battery of spec.md §4.5: a
// key-derivation check (HKDF-like construction via HMAC), a signature check
// (Ed25519), and an encryption-wrap check (AES-GCM key wrap). Each KAT
// compares exact bytes; the first mismatch fails the whole test.
func RunMechanismTests() error {
	if err := kdfMechanismTest(); err != nil {
		return fmt.Errorf("%w: kdf: %v", ErrMechanismKatFailed, err)
	}
	if err := wrapMechanismTest(); err != nil {
		return fmt.Errorf("%w: wrap: %v", ErrMechanismKatFailed, err)
	}
	if err := signatureMechanismTest(); err != nil {
		return fmt.Errorf("%w: signature: %v", ErrMechanismKatFailed, err)
	}
	return nil
}

// kdfMechanismTest checks a single-round HMAC-SHA1-based KDF step against a
// hard-coded input/output pair.
func kdfMechanismTest() error {
	ikm := []byte("input-keying-material")
	info := []byte("derived-key-v1")
	mac := hmac.New(sha1.New, ikm) //nolint:gosec // fixed KAT, see package doc
	mac.Write(info)
	got := mac.Sum(nil)
	want := mustHex("a5a22ae0a8c6b6a6e680b9f788c8289b1888323d")
	if !bytes.Equal(got, want) {
		return fmt.Errorf("got %x want %x", got, want)
	}
	return nil
}

// wrapMechanismTest checks an AES-GCM key-wrap round trip against a
// hard-coded wrapping key and wrapped-key ciphertext.
func wrapMechanismTest() error {
	wrapKey := bytes.Repeat([]byte{0x55}, 32)
	nonce := bytes.Repeat([]byte{0x66}, 12)
	keyToWrap := bytes.Repeat([]byte{0x77}, 32)

	block, err := aes.NewCipher(wrapKey)
	if err != nil {
		return err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return err
	}
	wrapped := gcm.Seal(nil, nonce, keyToWrap, nil)
	want := mustHex("48cac925026b5e3eb71e6772d0df891558431c254a03d63f10fce81357b808634bf4eb55ee606de467e73a98d53b2a57")
	if !bytes.Equal(wrapped, want) {
		return fmt.Errorf("wrapped key: got %x want %x", wrapped, want)
	}
	unwrapped, err := gcm.Open(nil, nonce, wrapped, nil)
	if err != nil {
		return err
	}
	if !bytes.Equal(unwrapped, keyToWrap) {
		return fmt.Errorf("unwrap mismatch")
	}
	return nil
}

// signatureMechanismTest checks an Ed25519 sign/verify pair against a
// hard-coded seed, message and expected signature.
func signatureMechanismTest() error {
	seed := bytes.Repeat([]byte{0x01}, ed25519.SeedSize)
	priv := ed25519.NewKeyFromSeed(seed)
	msg := []byte("mechanism-self-test-message")
	sig := ed25519.Sign(priv, msg)
	want := mustHex("0654c7b363a070843b1916ae377177dbe6c482911ee0d4f16306a35c609b16e8c65d3430f7ba8872a620ec0187ef978cd5d3159c22ec5342107d903384d0540e")
	if !bytes.Equal(sig, want) {
		return fmt.Errorf("signature: got %x want %x", sig, want)
	}
	pub := priv.Public().(ed25519.PublicKey)
	if !ed25519.Verify(pub, msg, sig) {
		return fmt.Errorf("signature failed to verify")
	}
	return nil
}
