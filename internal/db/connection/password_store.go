package connection

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/99designs/keyring"

	"github.com/rebeliceyang/lazycrm/internal/models"
)

const serviceName = "lazycrm"

// ErrPasswordNotFound is returned when the keyring has no entry
var ErrPasswordNotFound = errors.New("password not found in keyring")

// PasswordError wraps a keyring failure other than a missing entry
type PasswordError struct {
	Op  string
	Err error
}

func (e *PasswordError) Error() string {
	return fmt.Sprintf("failed to %s password in keyring: %v", e.Op, e.Err)
}

func (e *PasswordError) Unwrap() error {
	return e.Err
}

// PasswordStore keeps database passwords in the OS keyring, with an
// encrypted file as the fallback backend
type PasswordStore struct {
	ring keyring.Keyring
}

// NewPasswordStore opens the keyring with platform-appropriate backends
func NewPasswordStore(configDir string) (*PasswordStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:     serviceName,
		AllowedBackends: backendsForPlatform(),
		FileDir:         filepath.Join(configDir, "keyring"),
		FilePasswordFunc: func(string) (string, error) {
			return fileKeyringPassword()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return &PasswordStore{ring: ring}, nil
}

// newPasswordStoreWith wraps an already opened keyring
func newPasswordStoreWith(ring keyring.Keyring) *PasswordStore {
	return &PasswordStore{ring: ring}
}

// backendsForPlatform lists native backends first, the file backend last
func backendsForPlatform() []keyring.BackendType {
	switch runtime.GOOS {
	case "darwin":
		return []keyring.BackendType{keyring.KeychainBackend, keyring.FileBackend}
	case "linux":
		return []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.FileBackend}
	case "windows":
		return []keyring.BackendType{keyring.WinCredBackend, keyring.FileBackend}
	default:
		return []keyring.BackendType{keyring.FileBackend}
	}
}

// Save stores the password of cfg; empty passwords are not stored
func (ps *PasswordStore) Save(cfg models.ConnectionConfig) error {
	if cfg.Password == "" {
		return nil
	}
	err := ps.ring.Set(keyring.Item{
		Key:         keyFor(cfg),
		Data:        []byte(cfg.Password),
		Label:       fmt.Sprintf("lazycrm: %s@%s:%d/%s", cfg.User, cfg.Host, cfg.Port, cfg.Database),
		Description: "PostgreSQL password for lazycrm",
	})
	if err != nil {
		return &PasswordError{Op: "save", Err: err}
	}
	return nil
}

// Get returns the stored password of cfg
func (ps *PasswordStore) Get(cfg models.ConnectionConfig) (string, error) {
	item, err := ps.ring.Get(keyFor(cfg))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrPasswordNotFound
		}
		return "", &PasswordError{Op: "read", Err: err}
	}
	return string(item.Data), nil
}

// Delete removes the stored password of cfg
func (ps *PasswordStore) Delete(cfg models.ConnectionConfig) error {
	if err := ps.ring.Remove(keyFor(cfg)); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return &PasswordError{Op: "delete", Err: err}
	}
	return nil
}

// keyFor is "host:port:database:user"
func keyFor(cfg models.ConnectionConfig) string {
	return fmt.Sprintf("%s:%d:%s:%s", cfg.Host, cfg.Port, cfg.Database, cfg.User)
}
