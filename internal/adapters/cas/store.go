// Package cas implements the content addressed derivation store.
//
// Each derivation is stored as zstd compressed canonical CBOR under its address, next to a
// JSON record of where the build runtime last materialized it.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/klauspost/compress/zstd"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	derivationExt  = ".drv.zst"
	realizationExt = ".out.json"
)

var addressRegex = regexp.MustCompile(`^[0-9a-z]+$`)

// The encoder and decoder are safe for concurrent use and reused across calls.
var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("cas: zstd encoder initialization failed: " + err.Error())
	}
	decoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("cas: zstd decoder initialization failed: " + err.Error())
	}
}

// Store implements ports.DerivationStore on the project's .kiln/store directory.
type Store struct{}

// NewStore creates a Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the derivation stored under address, or nil if there is none.
func (s *Store) Get(root, address string) (*domain.Derivation, error) {
	filename, err := s.filename(root, address, derivationExt)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // Path is built from the store directory and a validated address
	compressed, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "address", address)
	}

	data, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, domain.Annotate(domain.ErrStoreCorrupt, err.Error(), "address", address)
	}

	var drv domain.Derivation
	if err := domain.UnmarshalCanonical(data, &drv); err != nil {
		return nil, domain.Annotate(domain.ErrStoreCorrupt, err.Error(), "address", address)
	}
	if drv.Address != address {
		return nil, domain.Annotate(domain.ErrStoreCorrupt, "record holds derivation "+drv.Address, "address", address)
	}
	return &drv, nil
}

// Put stores drv under its address.
func (s *Store) Put(root string, drv *domain.Derivation) error {
	filename, err := s.filename(root, drv.Address, derivationExt)
	if err != nil {
		return err
	}

	data, err := domain.MarshalCanonical(drv)
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return writeFile(filename, encoder.EncodeAll(data, nil))
}

// GetRealization returns the recorded realization of address, or nil if there is none.
func (s *Store) GetRealization(root, address string) (*domain.Realization, error) {
	filename, err := s.filename(root, address, realizationExt)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // Path is built from the store directory and a validated address
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "address", address)
	}

	var r domain.Realization
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, domain.Annotate(domain.ErrStoreCorrupt, err.Error(), "address", address)
	}
	return &r, nil
}

// PutRealization records r under its address.
func (s *Store) PutRealization(root string, r domain.Realization) error {
	filename, err := s.filename(root, r.Address, realizationExt)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return writeFile(filename, data)
}

func (s *Store) filename(root, address, ext string) (string, error) {
	if !addressRegex.MatchString(address) {
		return "", domain.Annotate(domain.ErrStoreCorrupt, "invalid address", "address", address)
	}
	return filepath.Join(root, domain.DefaultStorePath(), address+ext), nil
}

// writeFile replaces filename atomically so concurrent readers never see a partial record.
func writeFile(filename string, data []byte) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	if err := os.Rename(tmpName, filename); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return nil
}
