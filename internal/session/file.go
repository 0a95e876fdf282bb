package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Save writes m to path, choosing the encoding from the file extension.
func Save(path string, m *Model) error {
	var data []byte
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".hcl":
		data = EncodeHCL(m)
	case ".yaml", ".yml":
		var err error
		if data, err = EncodeYAML(m); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported session format %q", ext)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing session %s: %w", path, err)
	}
	return nil
}

// Load reads the session stored at path.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", path, err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".hcl":
		return DecodeHCL(data, path)
	case ".yaml", ".yml":
		return DecodeYAML(data)
	default:
		return nil, fmt.Errorf("unsupported session format %q", ext)
	}
}
