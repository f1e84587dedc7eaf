package wallet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mrz1836/multisig/internal/fileutil"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

const (
	// walletFileExtension is the extension for wallet files.
	walletFileExtension = ".json"

	// walletFilePermissions is the permission mode for wallet files.
	walletFilePermissions = 0o600

	// walletDirPermissions is the permission mode for the wallets directory.
	walletDirPermissions = 0o700
)

// Storage defines the interface for wallet persistence.
type Storage interface {
	// Create writes a new wallet and fails if one with that name exists.
	Create(w *Wallet) error

	// Save writes the wallet, replacing any existing file.
	Save(w *Wallet) error

	// Load reads a wallet by name.
	Load(name string) (*Wallet, error)

	// Exists checks if a wallet exists.
	Exists(name string) (bool, error)

	// List returns all wallet names.
	List() ([]string, error)
}

// FileStorage implements Storage with one JSON file per wallet.
type FileStorage struct {
	basePath string
}

// NewFileStorage creates a new file-based storage rooted at basePath.
func NewFileStorage(basePath string) *FileStorage {
	return &FileStorage{basePath: basePath}
}

// Create writes a new wallet. It fails with ErrWalletExists when the name
// is already taken.
func (s *FileStorage) Create(w *Wallet) error {
	name := w.Name()
	if err := ValidateWalletName(name); err != nil {
		return err
	}
	if err := fileutil.EnsureDir(s.basePath, walletDirPermissions); err != nil {
		return persistenceError(s.basePath, err)
	}
	data, err := w.Marshal()
	if err != nil {
		return persistenceError(s.Path(name), err)
	}
	if err := fileutil.WriteExclusive(s.Path(name), data, walletFilePermissions); err != nil {
		if errors.Is(err, fileutil.ErrExists) {
			return msigerr.WithDetails(msigerr.ErrWalletExists, map[string]string{"wallet": name})
		}
		return persistenceError(s.Path(name), err)
	}
	return nil
}

// Save writes the wallet atomically, replacing any existing file.
func (s *FileStorage) Save(w *Wallet) error {
	if err := ValidateWalletName(w.Name()); err != nil {
		return err
	}
	return s.SaveState(w.State())
}

// SaveState writes a state snapshot. It is the commit step used with
// Wallet.NextAddressCommit.
func (s *FileStorage) SaveState(st State) error {
	if err := ValidateWalletName(st.Name); err != nil {
		return err
	}
	if err := fileutil.EnsureDir(s.basePath, walletDirPermissions); err != nil {
		return persistenceError(s.basePath, err)
	}
	return SaveStateFile(s.Path(st.Name), st)
}

// Load reads a wallet by name.
func (s *FileStorage) Load(name string) (*Wallet, error) {
	if err := ValidateWalletName(name); err != nil {
		return nil, err
	}
	return LoadFile(s.Path(name))
}

// Exists checks if a wallet exists.
func (s *FileStorage) Exists(name string) (bool, error) {
	if err := ValidateWalletName(name); err != nil {
		return false, err
	}
	_, err := os.Stat(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, persistenceError(s.Path(name), err)
	}
	return true, nil
}

// List returns all wallet names, sorted.
func (s *FileStorage) List() ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, persistenceError(s.basePath, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, ok := strings.CutSuffix(entry.Name(), walletFileExtension)
		if ok && ValidateWalletName(name) == nil {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Path returns the file a wallet name is stored in. The name has already
// been validated against [a-zA-Z0-9_-]{1,64}, which rules out traversal.
func (s *FileStorage) Path(name string) string {
	return filepath.Join(s.basePath, name+walletFileExtension)
}

// LoadFile reads a wallet from an explicit path.
func LoadFile(path string) (*Wallet, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: user-selected wallet file
	if errors.Is(err, fs.ErrNotExist) {
		return nil, msigerr.WithDetails(msigerr.ErrWalletNotFound, map[string]string{"path": path})
	}
	if err != nil {
		return nil, persistenceError(path, err)
	}
	return Load(data)
}

// SaveFile writes w to an explicit path.
func SaveFile(path string, w *Wallet) error {
	return SaveStateFile(path, w.State())
}

// SaveStateFile writes st as indented JSON to path with 0600 permissions.
func SaveStateFile(path string, st State) error {
	data, err := marshalState(st)
	if err != nil {
		return persistenceError(path, err)
	}
	if err := fileutil.WriteAtomic(path, data, walletFilePermissions); err != nil {
		return persistenceError(path, err)
	}
	return nil
}

func persistenceError(path string, err error) error {
	return fmt.Errorf("%w: %w",
		msigerr.WithDetails(msigerr.ErrPersistenceFailure, map[string]string{"path": path}), err)
}
