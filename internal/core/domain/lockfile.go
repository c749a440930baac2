package domain

import (
	"bytes"
	"cmp"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"go.trai.ch/zerr"
	"zombiezen.com/go/nix/nixbase32"
)

var integritySizes = map[string]int{
	"sha256": 32,
	"sha512": 64,
}

// Integrity is a content digest of a locked dependency.
type Integrity struct {
	Algorithm string `cbor:"1,keyasint"`
	Sum       []byte `cbor:"2,keyasint"`
}

// ParseIntegrity accepts bare sha256 hex (Cargo), SRI ("sha256-<base64>") and
// Nix ("sha256:<nix base32>") spellings.
func ParseIntegrity(s string) (Integrity, error) {
	invalid := Annotate(ErrInvalidIntegrity, fmt.Sprintf("cannot parse %q", s), "integrity", s)

	if algo, rest, ok := strings.Cut(s, ":"); ok {
		size, known := integritySizes[algo]
		if !known {
			return Integrity{}, invalid
		}
		sum, err := decodeNixHash(rest, size)
		if err != nil {
			return Integrity{}, invalid
		}
		return Integrity{Algorithm: algo, Sum: sum}, nil
	}

	if algo, rest, ok := strings.Cut(s, "-"); ok {
		size, known := integritySizes[algo]
		if !known {
			return Integrity{}, invalid
		}
		sum, err := base64.StdEncoding.DecodeString(rest)
		if err != nil || len(sum) != size {
			return Integrity{}, invalid
		}
		return Integrity{Algorithm: algo, Sum: sum}, nil
	}

	sum, err := hex.DecodeString(s)
	if err != nil || len(sum) != integritySizes["sha256"] {
		return Integrity{}, invalid
	}
	return Integrity{Algorithm: "sha256", Sum: sum}, nil
}

// decodeNixHash decodes the hash part of a Nix hash, which may be nix base32, hex or base64.
func decodeNixHash(s string, size int) ([]byte, error) {
	switch len(s) {
	case nixbase32.EncodedLen(size):
		return nixbase32.DecodeString(s)
	case hex.EncodedLen(size):
		return hex.DecodeString(s)
	default:
		sum, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, err
		}
		if len(sum) != size {
			return nil, ErrInvalidIntegrity
		}
		return sum, nil
	}
}

// IsZero reports whether no digest is present.
func (i Integrity) IsZero() bool {
	return i.Algorithm == "" && len(i.Sum) == 0
}

// Equal reports whether both digests are identical.
func (i Integrity) Equal(o Integrity) bool {
	return i.Algorithm == o.Algorithm && bytes.Equal(i.Sum, o.Sum)
}

// String renders the SRI form.
func (i Integrity) String() string {
	if i.IsZero() {
		return ""
	}
	return i.Algorithm + "-" + base64.StdEncoding.EncodeToString(i.Sum)
}

// LockEntry pins one dependency.
type LockEntry struct {
	Name      string    `cbor:"1,keyasint"`
	Version   string    `cbor:"2,keyasint"`
	Source    string    `cbor:"3,keyasint,omitempty"`
	Integrity Integrity `cbor:"4,keyasint"`
}

// fromRegistry reports whether the entry is fetched from a package registry,
// which requires an integrity digest.
func (e LockEntry) fromRegistry() bool {
	return strings.HasPrefix(e.Source, "registry+") || strings.HasPrefix(e.Source, "sparse+")
}

func (e LockEntry) equal(o LockEntry) bool {
	return e.Name == o.Name && e.Version == o.Version && e.Source == o.Source && e.Integrity.Equal(o.Integrity)
}

// LockFile is the ordered record of every pinned dependency.
type LockFile struct {
	Path    string
	Entries []LockEntry
}

// Validate checks internal consistency: a name may appear more than once only with
// identical pins, and registry entries must carry an integrity digest.
func (l LockFile) Validate() error {
	seen := make(map[string]LockEntry, len(l.Entries))
	for _, e := range l.Entries {
		if e.Name == "" || e.Version == "" {
			return Annotate(ErrLockFileInvalid, "entry without name or version", "name", e.Name)
		}
		if e.fromRegistry() && e.Integrity.IsZero() {
			return Annotate(ErrLockFileInvalid, fmt.Sprintf("registry entry without integrity: %s %s", e.Name, e.Version),
				"name", e.Name)
		}
		prev, dup := seen[e.Name]
		if !dup {
			seen[e.Name] = e
			continue
		}
		if !prev.equal(e) {
			return Annotate(ErrLockFileInvalid,
				fmt.Sprintf("conflicting entries for %s: %s and %s", e.Name, prev.Version, e.Version),
				"name", e.Name, "first", prev.Version, "second", e.Version)
		}
	}
	return nil
}

// Has reports whether a dependency with the given name is locked.
func (l LockFile) Has(name string) bool {
	return slices.ContainsFunc(l.Entries, func(e LockEntry) bool { return e.Name == name })
}

// Canonical returns the entries sorted by name and version with exact duplicates removed.
func (l LockFile) Canonical() []LockEntry {
	out := slices.Clone(l.Entries)
	slices.SortFunc(out, func(a, b LockEntry) int {
		return cmp.Or(
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.Version, b.Version),
			cmp.Compare(a.Source, b.Source),
			bytes.Compare(a.Integrity.Sum, b.Integrity.Sum),
		)
	})
	return slices.CompactFunc(out, LockEntry.equal)
}

// Digest returns a digest of the canonical entry set. Formatting, comments and entry order
// in the file on disk do not affect it.
func (l LockFile) Digest() (string, error) {
	sum, err := hashCanonical(lockDomainKey, l.Canonical())
	if err != nil {
		return "", zerr.Wrap(err, "failed to encode lock file")
	}
	return encodeDigest("blake3", sum[:]), nil
}
