// Package secrets resolves provider credentials from the environment or the
// OS keyring. Writing secrets is left to the platform's own tooling.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	Service     = "com.speakflow.desktop"
	GroqAccount = "groq_api_key"
	GroqEnv     = "GROQ_API_KEY"
)

// ErrNotFound reports a credential that is set in neither place.
var ErrNotFound = errors.New("secret not found")

// Source names where a credential was found.
type Source string

const (
	SourceNone    Source = ""
	SourceEnv     Source = "env"
	SourceKeyring Source = "keyring"
)

// GroqAPIKey returns the Groq API key, preferring GROQ_API_KEY.
func GroqAPIKey() (string, error) {
	key, _, err := lookup(GroqEnv, GroqAccount)
	return key, err
}

// GroqAPIKeySource reports where the Groq key would be read from.
func GroqAPIKeySource() (Source, error) {
	_, source, err := lookup(GroqEnv, GroqAccount)
	return source, err
}

func lookup(env string, account string) (string, Source, error) {
	if value := strings.TrimSpace(os.Getenv(env)); value != "" {
		return value, SourceEnv, nil
	}

	value, err := keyring.Get(Service, account)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return "", SourceNone, ErrNotFound
	case err != nil:
		return "", SourceNone, fmt.Errorf("read keyring %s/%s: %w", Service, account, err)
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return "", SourceNone, ErrNotFound
	}
	return value, SourceKeyring, nil
}
