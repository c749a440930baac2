// Package fs reads source trees: it walks them, serializes them to NAR for their content
// digest, fingerprints them for change detection and parses their manifest.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
	"slices"
)

// DefaultIgnores are directory and file names never considered part of a source tree.
var DefaultIgnores = []string{".git", ".jj", ".kiln", "target", "result"}

// Entry is a file system entry below a walk root.
type Entry struct {
	// Path is slash separated and relative to the root. The root itself is "".
	Path string
	// Abs is the path on disk.
	Abs  string
	Info fs.FileInfo
}

// Walker walks source trees in lexical order.
type Walker struct {
	ignores []string
}

// NewWalker creates a Walker skipping names matching any of the ignore patterns.
func NewWalker(ignores ...string) *Walker {
	return &Walker{ignores: ignores}
}

// Walk yields the root and every entry below it, parents before children and siblings in
// byte order. Symlinks are yielded, not followed. A walk error is yielded once and ends the walk.
func (w *Walker) Walk(root string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		stopped := false
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if rel == "." {
				rel = ""
			} else if w.ignored(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return err
			}

			if !yield(Entry{Path: filepath.ToSlash(rel), Abs: path, Info: info}, nil) {
				stopped = true
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil && !stopped {
			yield(Entry{}, err)
		}
	}
}

// WalkFiles yields the regular files and symlinks below root.
func (w *Walker) WalkFiles(root string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for e, err := range w.Walk(root) {
			if err != nil {
				yield(Entry{}, err)
				return
			}
			if e.Info.IsDir() {
				continue
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (w *Walker) ignored(name string) bool {
	return slices.ContainsFunc(w.ignores, func(pattern string) bool {
		matched, _ := filepath.Match(pattern, name)
		return matched
	})
}
