package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// “Service” groups the app's secrets in the OS keychain.
	KeyringService = "signalsdr"

	BraveEnv     = "BRAVE_API_KEY"
	AnthropicEnv = "ANTHROPIC_API_KEY"
)

var ErrNotFound = errors.New("api key not found (set it in the environment or keychain)")

// GetAPIKey returns the key from envVar, falling back to the OS keychain.
func GetAPIKey(envVar, keyringAccount string) (string, error) {
	if envVar != "" {
		if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
			return v, nil
		}
	}
	if strings.TrimSpace(keyringAccount) != "" {
		v, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	return "", ErrNotFound
}

func SetAPIKey(keyringAccount, key string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("key is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, key)
}

func DeleteAPIKey(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}

// HasAPIKey reports whether a key is reachable without returning it.
func HasAPIKey(envVar, keyringAccount string) bool {
	_, err := GetAPIKey(envVar, keyringAccount)
	return err == nil
}
