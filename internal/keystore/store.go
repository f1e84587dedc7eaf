package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/mrz1836/multisig/internal/chain"
	"github.com/mrz1836/multisig/internal/fileutil"
	"github.com/mrz1836/multisig/internal/hdkey"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

const (
	keyFilePrefix      = "key_"
	keyFileExtension   = ".json"
	keyFilePermissions = 0o600
	keyDirPermissions  = 0o700
)

// Store reads and writes key files in one directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the file key index is stored in.
func (s *Store) Path(index int) string {
	return filepath.Join(s.dir, keyFilePrefix+strconv.Itoa(index)+keyFileExtension)
}

// Save writes rec. It never replaces an existing key file.
func (s *Store) Save(rec *Record) error {
	if err := fileutil.EnsureDir(s.dir, keyDirPermissions); err != nil {
		return persistenceError(s.dir, err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return persistenceError(s.Path(rec.Index), err)
	}
	if err := fileutil.WriteExclusive(s.Path(rec.Index), data, keyFilePermissions); err != nil {
		if errors.Is(err, fileutil.ErrExists) {
			return msigerr.WithSuggestion(
				msigerr.WithDetails(msigerr.ErrKeyExists, map[string]string{"index": strconv.Itoa(rec.Index)}),
				"choose another --index or omit it to use the next free one")
		}
		return persistenceError(s.Path(rec.Index), err)
	}
	return nil
}

// Load reads key index.
func (s *Store) Load(index int) (*Record, error) {
	path := s.Path(index)
	data, err := os.ReadFile(path) //nolint:gosec // G304: path built from an integer index
	if errors.Is(err, fs.ErrNotExist) {
		return nil, msigerr.WithDetails(msigerr.ErrKeyNotFound, map[string]string{"index": strconv.Itoa(index)})
	}
	if err != nil {
		return nil, persistenceError(path, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w",
			msigerr.WithDetails(msigerr.ErrCorruptState, map[string]string{"path": path}), err)
	}
	if rec.Index != index || !rec.Network.IsValid() || rec.Xpub == "" {
		return nil, msigerr.WithDetails(msigerr.ErrCorruptState, map[string]string{
			"path":   path,
			"reason": "key file does not describe key " + strconv.Itoa(index),
		})
	}
	return &rec, nil
}

// List returns all stored keys ordered by index. When net is non-empty only
// keys for that network are returned.
func (s *Store) List(net chain.Network) ([]*Record, error) {
	indexes, err := s.indexes()
	if err != nil {
		return nil, err
	}
	records := make([]*Record, 0, len(indexes))
	for _, idx := range indexes {
		rec, err := s.Load(idx)
		if err != nil {
			return nil, err
		}
		if net != "" && rec.Network != net {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// NextIndex returns one past the highest index in use, or 0.
func (s *Store) NextIndex() (int, error) {
	indexes, err := s.indexes()
	if err != nil {
		return 0, err
	}
	if len(indexes) == 0 {
		return 0, nil
	}
	return indexes[len(indexes)-1] + 1, nil
}

// Unlock loads key index and decrypts its account xprv. The caller must
// Zero the returned key.
func (s *Store) Unlock(index int, password string) (*hdkey.ExtendedKey, error) {
	rec, err := s.Load(index)
	if err != nil {
		return nil, err
	}
	return rec.Unlock(password)
}

// Verify checks that key index decrypts under password and that the sealed
// xprv re-derives the stored xpub.
func (s *Store) Verify(index int, password string) (*Record, error) {
	rec, err := s.Load(index)
	if err != nil {
		return nil, err
	}
	key, err := rec.Unlock(password)
	if err != nil {
		return nil, err
	}
	key.Zero()
	return rec, nil
}

func (s *Store) indexes() ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, persistenceError(s.dir, err)
	}

	var out []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, keyFilePrefix) || !strings.HasSuffix(name, keyFileExtension) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, keyFilePrefix), keyFileExtension))
		if err != nil || n < 0 {
			continue
		}
		out = append(out, n)
	}
	slices.Sort(out)
	return out, nil
}

func persistenceError(path string, err error) error {
	return fmt.Errorf("%w: %w",
		msigerr.WithDetails(msigerr.ErrPersistenceFailure, map[string]string{"path": path}), err)
}
