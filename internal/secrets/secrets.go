// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials for the statistics backend from a
// directory of plain-text files. The file name is the key and the trimmed
// contents are the value. Only the API token is consumed today.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultDir is where credential files live relative to the working directory.
const DefaultDir = ".secrets"

// KeyAPIToken names the file holding the bearer token sent to the backend.
const KeyAPIToken = "agroscope-api-token"

// Store is the set of credentials found on disk.
type Store map[string]string

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error and yields an empty store. Unreadable files are logged and
// skipped.
func Load(dir string, logger zerolog.Logger) (Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	store := make(Store)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn().Err(err).Str("key", name).Msg("could not read secret")
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			store[name] = value
		}
	}
	return store, nil
}

// APIToken returns the backend token, preferring an explicit override such
// as one taken from configuration or the environment.
func (s Store) APIToken(override string) string {
	if v := strings.TrimSpace(override); v != "" {
		return v
	}
	return s[KeyAPIToken]
}
