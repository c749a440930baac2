package fs

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ ports.SourceScanner = (*Scanner)(nil)

// Scanner implements ports.SourceScanner.
type Scanner struct {
	walker *Walker
}

// NewScanner creates a Scanner walking with walker.
func NewScanner(walker *Walker) *Scanner {
	return &Scanner{walker: walker}
}

// Scan digests the tree at root and reads the manifest at manifestPath. A tree without files
// has an empty manifest; any other tree must have one.
func (s *Scanner) Scan(ctx context.Context, root, manifestPath string) (domain.SourceTree, error) {
	info, err := os.Stat(root)
	if err != nil {
		return domain.SourceTree{}, domain.Annotate(domain.ErrSourceScanFailed, err.Error(), "root", root)
	}
	if !info.IsDir() {
		return domain.SourceTree{}, domain.Annotate(domain.ErrSourceScanFailed, "source root is not a directory", "root", root)
	}

	digest, files, err := s.narDigest(ctx, root)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.SourceTree{}, ctxErr
		}
		return domain.SourceTree{}, domain.Annotate(domain.ErrSourceScanFailed, err.Error(), "root", root)
	}

	fingerprint, err := s.Fingerprint(root)
	if err != nil {
		return domain.SourceTree{}, err
	}

	tree := domain.SourceTree{
		Root:        root,
		Digest:      digest,
		Fingerprint: fingerprint,
		Files:       files,
	}
	if tree.Empty() {
		return tree, nil
	}

	tree.Manifest, err = ReadManifest(manifestPath)
	if err != nil {
		return domain.SourceTree{}, err
	}
	return tree, nil
}

// Fingerprint hashes the relative path, size, mode and modification time of every file.
// It is much cheaper than the content digest and changes whenever a file is touched.
func (s *Scanner) Fingerprint(root string) (string, error) {
	h := xxhash.New()
	var buf [8]byte

	for e, err := range s.walker.WalkFiles(root) {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				break
			}
			return "", domain.Annotate(domain.ErrSourceScanFailed, err.Error(), "root", root)
		}

		_, _ = h.WriteString(e.Path)
		_, _ = h.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], uint64(e.Info.Size()))
		_, _ = h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(e.Info.Mode()))
		_, _ = h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(e.Info.ModTime().UnixNano()))
		_, _ = h.Write(buf[:])
	}

	return fmt.Sprintf("%016x", h.Sum64()), nil
}
