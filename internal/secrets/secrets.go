// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads model API keys from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: dashscope-api-key, anthropic-api-key, gemini-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/li4oya/paper-collect-and-analysis/internal/logging"
	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

// Key file names.
const (
	DashScopeAPIKey = "dashscope-api-key"
	AnthropicAPIKey = "anthropic-api-key"
	GeminiAPIKey    = "gemini-api-key"
)

// Secrets maps key file names to their values.
type Secrets map[string]string

// Load reads all files in dir. A missing directory is not an error; Load
// returns an empty set. Unreadable files are logged and skipped.
func Load(dir string, log logging.Logger) (Secrets, error) {
	if log == nil {
		log = logging.Nop()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Secrets)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", logging.String("name", name), logging.Err(err))
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			s[name] = value
		}
	}

	return s, nil
}

// KeyFile returns the key file consulted for a provider.
func KeyFile(p types.Provider) string {
	switch p {
	case types.ProviderClaude:
		return AnthropicAPIKey
	case types.ProviderGemini:
		return GeminiAPIKey
	default:
		return DashScopeAPIKey
	}
}

// APIKey returns the key for provider p, or "" when none was loaded.
func (s Secrets) APIKey(p types.Provider) string {
	return s[KeyFile(p)]
}
