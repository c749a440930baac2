package fs

import (
	"context"
	"crypto/sha256"
	"io"
	"io/fs"
	"os"

	"go.trai.ch/zerr"
	"zombiezen.com/go/nix/nar"
	"zombiezen.com/go/nix/nixbase32"
)

// narDigest serializes the tree at root to NAR and returns the sha256 of the archive in
// Nix notation, along with the number of files and symlinks it holds.
func (s *Scanner) narDigest(ctx context.Context, root string) (string, int, error) {
	h := sha256.New()
	nw := nar.NewWriter(h)

	files := 0
	for e, err := range s.walker.Walk(root) {
		if err != nil {
			return "", 0, err
		}
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		if err := writeEntry(nw, e); err != nil {
			return "", 0, zerr.With(err, "path", e.Abs)
		}
		if !e.Info.IsDir() {
			files++
		}
	}
	if err := nw.Close(); err != nil {
		return "", 0, zerr.Wrap(err, "failed to finish NAR")
	}

	return "sha256:" + nixbase32.EncodeToString(h.Sum(nil)), files, nil
}

func writeEntry(nw *nar.Writer, e Entry) error {
	mode := e.Info.Mode()
	switch {
	case mode.IsDir():
		return nw.WriteHeader(&nar.Header{Path: e.Path, Mode: fs.ModeDir | 0o555})
	case mode&fs.ModeSymlink != 0:
		target, err := os.Readlink(e.Abs)
		if err != nil {
			return zerr.Wrap(err, "failed to read symlink")
		}
		return nw.WriteHeader(&nar.Header{Path: e.Path, Mode: fs.ModeSymlink | 0o777, LinkTarget: target})
	case mode.IsRegular():
		perm := fs.FileMode(0o444)
		if mode&0o111 != 0 {
			perm = 0o555
		}
		if err := nw.WriteHeader(&nar.Header{Path: e.Path, Mode: perm, Size: e.Info.Size()}); err != nil {
			return err
		}
		return copyFile(nw, e.Abs)
	default:
		return zerr.With(zerr.New("unsupported file type"), "mode", mode.String())
	}
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path) //nolint:gosec // Path comes from walking the source root
	if err != nil {
		return zerr.Wrap(err, "failed to open file")
	}
	defer f.Close() //nolint:errcheck // Read-only file

	if _, err := io.Copy(w, f); err != nil {
		return zerr.Wrap(err, "failed to read file")
	}
	return nil
}
