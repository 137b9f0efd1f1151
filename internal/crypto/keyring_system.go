package crypto

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// systemKeyring stores the key in the OS credential store: Keychain on macOS,
// the Secret Service on Linux, Credential Manager on Windows.
type systemKeyring struct {
	service string
	account string
}

func newSystemKeyring(service, account string) *systemKeyring {
	return &systemKeyring{service: service, account: account}
}

func (k *systemKeyring) GetKey() (string, error) {
	key, err := keyring.Get(k.service, k.account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("no key stored for %s in the %s keyring: %w", k.account, k.service, err)
		}
		return "", fmt.Errorf("failed to read %s from the %s keyring: %w", k.account, k.service, err)
	}
	if key == "" {
		return "", fmt.Errorf("keyring entry %s is empty", k.account)
	}
	return key, nil
}

func (k *systemKeyring) SetKey(password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}
	if err := keyring.Set(k.service, k.account, password); err != nil {
		return fmt.Errorf("failed to store %s in the %s keyring: %w", k.account, k.service, err)
	}
	return nil
}

func (k *systemKeyring) DeleteKey() error {
	err := keyring.Delete(k.service, k.account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete %s from the %s keyring: %w", k.account, k.service, err)
	}
	return nil
}

// IsAvailable reports whether the credential store answers. A missing entry
// still counts as available.
func (k *systemKeyring) IsAvailable() bool {
	_, err := keyring.Get(k.service, k.account)
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
