package crypto

import (
	"errors"
	"fmt"
	"os"
)

// envKeyring reads the key from TALENTSINK_DB_KEY when no OS keyring exists
type envKeyring struct{}

func (k *envKeyring) GetKey() (string, error) {
	key := os.Getenv(KeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", KeyEnv)
	}
	return key, nil
}

// SetKey cannot persist anything, it only tells the operator what to export
func (k *envKeyring) SetKey(password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}
	return fmt.Errorf("no OS keyring available: export %s to use this key", KeyEnv)
}

func (k *envKeyring) DeleteKey() error {
	return fmt.Errorf("no OS keyring available: unset %s manually", KeyEnv)
}

func (k *envKeyring) IsAvailable() bool {
	return os.Getenv(KeyEnv) != ""
}
