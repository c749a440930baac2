package domain

import (
	"path"
	"slices"

	"go.trai.ch/zerr"
	"zombiezen.com/go/nix/nixbase32"
)

// StoreDir is the virtual store prefix derivation paths are rendered under.
const StoreDir = "/kiln/store"

// Step is one build step of a derivation.
type Step struct {
	Name    string   `cbor:"1,keyasint" json:"name"`
	Command []string `cbor:"2,keyasint" json:"command"`
}

// Output is an artifact a derivation declares.
type Output struct {
	Name string `cbor:"1,keyasint" json:"name"`
	// Path is relative to the derivation's output root, e.g. "bin/zola".
	Path string `cbor:"2,keyasint" json:"path"`
}

// Derivation is a fully resolved, content addressed build plan.
// A Derivation is never modified after construction.
type Derivation struct {
	Name         string    `cbor:"1,keyasint" json:"name"`
	Version      string    `cbor:"2,keyasint" json:"version"`
	System       System    `cbor:"3,keyasint" json:"system"`
	Toolchain    Toolchain `cbor:"4,keyasint" json:"toolchain"`
	SourceRoot   string    `cbor:"5,keyasint" json:"sourceRoot"`
	SourceDigest string    `cbor:"6,keyasint" json:"sourceDigest"`
	LockPath     string    `cbor:"7,keyasint" json:"lockPath"`
	LockDigest   string    `cbor:"8,keyasint" json:"lockDigest"`
	Steps        []Step    `cbor:"9,keyasint" json:"steps"`
	Outputs      []Output  `cbor:"10,keyasint" json:"outputs"`
	Address      string    `cbor:"11,keyasint" json:"address"`
}

// addressInputs is everything a derivation address is computed from.
type addressInputs struct {
	SourceDigest string `cbor:"1,keyasint"`
	LockDigest   string `cbor:"2,keyasint"`
	Toolchain    string `cbor:"3,keyasint"`
}

// ComputeAddress derives the content address from the source digest, the lock digest and
// the toolchain identity. It depends on nothing else.
func ComputeAddress(sourceDigest, lockDigest string, toolchain Toolchain) (string, error) {
	sum, err := hashCanonical(addressDomainKey, addressInputs{
		SourceDigest: sourceDigest,
		LockDigest:   lockDigest,
		Toolchain:    toolchain.Identity(),
	})
	if err != nil {
		return "", zerr.Wrap(err, "failed to encode derivation inputs")
	}
	return nixbase32.EncodeToString(foldHash(sum[:], AddressLen)), nil
}

// StorePath renders the derivation's output root.
func (d *Derivation) StorePath() string {
	name := d.Name
	if d.Version != "" {
		name += "-" + d.Version
	}
	return path.Join(StoreDir, d.Address+"-"+name)
}

// Output returns the declared output with the given name.
func (d *Derivation) Output(name string) (Output, bool) {
	i := slices.IndexFunc(d.Outputs, func(o Output) bool { return o.Name == name })
	if i < 0 {
		return Output{}, false
	}
	return d.Outputs[i], true
}

// OutputNames returns the declared output names in declaration order.
func (d *Derivation) OutputNames() []string {
	names := make([]string, len(d.Outputs))
	for i, o := range d.Outputs {
		names[i] = o.Name
	}
	return names
}

// Realization maps a derivation's outputs to materialized paths on disk.
type Realization struct {
	Address string `json:"address"`
	// Root is the directory the runtime materialized the derivation into.
	Root string `json:"root"`
	// Outputs maps output names to absolute paths.
	Outputs map[string]string `json:"outputs"`
}
