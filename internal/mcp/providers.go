package mcp

import (
	"encoding/json"
	"fmt"
	"os"

	internalerrors "github.com/jamesprial/mcp-oauth-2.1/internal/errors"
)

// providersFile is the on-disk shape of the MCP servers config file: a
// single JSON document holding the provider fleet, reloadable by the
// fsnotify-backed watcher in package reload.
type providersFile struct {
	Providers []ProviderConfig `json:"providers"`
}

// LoadProviders reads and validates the provider fleet from a JSON file
// at path. A provider missing Command (and not merely disabled) is
// rejected rather than silently accepted, since spec.md's Client
// component requires Command for the only transport this aggregator
// implements.
func LoadProviders(path string) ([]ProviderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, internalerrors.New("mcpconfig", "LoadProviders", internalerrors.ErrInternal, err).
			WithContext("path", path)
	}

	var file providersFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, internalerrors.New("mcpconfig", "LoadProviders", internalerrors.ErrBadRequest, err).
			WithContext("path", path)
	}

	for i, p := range file.Providers {
		if p.Name == "" {
			return nil, internalerrors.New("mcpconfig", "LoadProviders", internalerrors.ErrBadRequest,
				fmt.Errorf("provider at index %d is missing a name", i)).
				WithContext("path", path)
		}
		if p.Enabled && p.Command == "" {
			return nil, internalerrors.New("mcpconfig", "LoadProviders", internalerrors.ErrBadRequest,
				fmt.Errorf("provider %q is missing a command", p.Name)).
				WithContext("path", path).
				WithContext("provider", p.Name)
		}
	}

	return file.Providers, nil
}
