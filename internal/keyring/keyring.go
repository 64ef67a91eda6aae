package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/flowstate/flowstate/internal/constants"
)

var (
	// ErrNotFound is returned when no key is stored in the keyring
	ErrNotFound = errors.New("service key not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// GetServiceKey retrieves the data-store service key from the OS keyring.
// Returns ErrNotFound if no key is stored.
func GetServiceKey() (string, error) {
	key, err := keyring.Get(constants.AppName, constants.DefaultKeyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return key, nil
}

// SetServiceKey stores the data-store service key in the OS keyring.
func SetServiceKey(key string) error {
	if key == "" {
		return errors.New("service key cannot be empty")
	}
	if err := keyring.Set(constants.AppName, constants.DefaultKeyringUser, key); err != nil {
		return fmt.Errorf("failed to store service key in keyring: %w", err)
	}
	return nil
}

// DeleteServiceKey removes the service key from the OS keyring.
func DeleteServiceKey() error {
	err := keyring.Delete(constants.AppName, constants.DefaultKeyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete service key from keyring: %w", err)
	}
	return nil
}
