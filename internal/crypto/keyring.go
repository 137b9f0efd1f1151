package crypto

import (
	"errors"
	"os"
	"path/filepath"
)

// Keyring provides secure storage for the database encryption key
type Keyring interface {
	GetKey() (string, error)
	SetKey(password string) error
	DeleteKey() error
	IsAvailable() bool
}

const (
	DefaultService = "talentsink"

	// KeyEnv always wins over the platform keyring so servers can run headless
	KeyEnv = "TALENTSINK_DB_KEY"
)

// ErrNoKey is returned when no encryption key has been configured yet
var ErrNoKey = errors.New("database encryption key not configured")

// AccountFor names the keyring entry of a database file. Each database path
// gets its own entry.
func AccountFor(dbPath string) string {
	if abs, err := filepath.Abs(dbPath); err == nil {
		dbPath = abs
	}
	return "db-key:" + filepath.Clean(dbPath)
}

// NewKeyring returns the OS keyring entry service/account, or the environment
// keyring when no OS keyring can be reached.
func NewKeyring(service, account string) Keyring {
	if service == "" {
		service = DefaultService
	}
	k := newSystemKeyring(service, account)
	if k.IsAvailable() {
		return k
	}
	return &envKeyring{}
}

// ResolveKey returns the key from the environment, then the keyring
func ResolveKey(k Keyring) (string, error) {
	if key := os.Getenv(KeyEnv); key != "" {
		return key, nil
	}
	key, err := k.GetKey()
	if err != nil {
		return "", errors.Join(ErrNoKey, err)
	}
	return key, nil
}
