package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfigLoader reads the configuration layer from a YAML document. A
// missing file yields an empty layer when Optional is set.
type FileConfigLoader struct {
	Path     string
	Optional bool
}

func NewFileConfigLoader(path string) *FileConfigLoader {
	return &FileConfigLoader{Path: strings.TrimSpace(path)}
}

func (l *FileConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if l == nil || strings.TrimSpace(l.Path) == "" {
		return map[string]any{}, nil
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		if l.Optional && errors.Is(err, fs.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("core: read config file %q: %w", l.Path, err)
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("core: parse config file %q: %w", l.Path, err)
	}
	if value, ok := raw["timeout"].(string); ok {
		timeout, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("core: parse config file %q: timeout: %w", l.Path, err)
		}
		raw["timeout"] = timeout
	}
	return raw, nil
}

var _ RawConfigLoader = (*FileConfigLoader)(nil)
