package domain

// Manifest is what the source tree declares about the package it builds.
type Manifest struct {
	Name    string
	Version string
	// Binaries are the executables the package produces.
	Binaries []string
	// Dependencies are the direct dependencies by name.
	Dependencies []string
}

// SourceTree is a scanned source directory.
type SourceTree struct {
	Root string
	// Digest is the sha256 of the tree's NAR serialization, e.g. "sha256:<nix base32>".
	Digest string
	// Fingerprint is a cheap change detector over paths, sizes and modification times.
	Fingerprint string
	// Files counts regular files and symlinks.
	Files    int
	Manifest Manifest
}

// Empty reports whether the tree holds no files.
func (s SourceTree) Empty() bool {
	return s.Files == 0
}
