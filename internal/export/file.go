package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// writeFileAtomic lets write fill a temporary sibling of path, then renames it
// into place so readers never observe a partial export.
func writeFileAtomic(path string, write func(tmp string) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close() //nolint:errcheck // reopened by write

	if err := write(tmpName); err != nil {
		os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("rename export: %w", err)
	}
	return nil
}

func writeBytes(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
