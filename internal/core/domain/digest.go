package domain

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
	"zombiezen.com/go/nix/nixbase32"
)

// encMode encodes with Core Deterministic Encoding (sorted map keys, shortest integers,
// definite lengths), so equal values always encode to equal bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("domain: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("domain: CBOR decoder initialization failed: " + err.Error())
	}
}

// MarshalCanonical encodes v to deterministic CBOR.
func MarshalCanonical(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// UnmarshalCanonical decodes CBOR produced by MarshalCanonical.
func UnmarshalCanonical(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// domainKey is a 32-byte BLAKE3 key. The bytes are the ASCII name of the domain,
// zero padded. Changing a key invalidates every digest in that domain.
type domainKey [32]byte

func newDomainKey(name string) domainKey {
	var k domainKey
	copy(k[:], name)
	return k
}

var (
	addressDomainKey = newDomainKey("kiln.derivation.address.v1")
	lockDomainKey    = newDomainKey("kiln.lockfile.digest.v1")
	shellDomainKey   = newDomainKey("kiln.devshell.tools.v1")
)

// AddressLen is the number of hash bytes kept in a derivation address, as in Nix store paths.
const AddressLen = 20

func keyedHash(key domainKey, data []byte) [32]byte {
	h, err := blake3.NewKeyed(key[:])
	if err != nil {
		// Only possible with a key of the wrong length.
		panic("domain: blake3 keyed hasher: " + err.Error())
	}
	_, _ = h.Write(data)

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// foldHash compresses a digest to size bytes by XOR folding.
func foldHash(sum []byte, size int) []byte {
	out := make([]byte, size)
	for i, b := range sum {
		out[i%size] ^= b
	}
	return out
}

// hashCanonical encodes v canonically and hashes it in the given domain.
func hashCanonical(key domainKey, v any) ([32]byte, error) {
	data, err := MarshalCanonical(v)
	if err != nil {
		return [32]byte{}, err
	}
	return keyedHash(key, data), nil
}

// encodeDigest renders a digest as "<algo>:<nix base32>".
func encodeDigest(algo string, sum []byte) string {
	return algo + ":" + nixbase32.EncodeToString(sum)
}
