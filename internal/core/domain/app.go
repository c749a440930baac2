package domain

import "path/filepath"

// AppRef points at one output of a derivation so it can be invoked without knowing
// how the derivation is laid out.
type AppRef struct {
	Address string `json:"address"`
	System  System `json:"system"`
	Output  string `json:"output"`
	// Program is the output path relative to the derivation's output root.
	Program string `json:"program"`
}

// Command returns the argv that invokes the referenced output inside root.
func (a AppRef) Command(root string, args ...string) []string {
	argv := make([]string, 0, len(args)+1)
	argv = append(argv, filepath.Join(root, filepath.FromSlash(a.Program)))
	return append(argv, args...)
}
