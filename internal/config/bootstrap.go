package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

const userConfigName = "config.yml"

// EnsureUserConfig returns dataDir/config.yml, creating it on first start.
// A bundled file at defaultPath is copied as-is so its comments survive;
// without one, Default() is written.
func EnsureUserConfig(dataDir, defaultPath string) (string, error) {
	userPath := filepath.Join(dataDir, userConfigName)

	switch _, err := os.Stat(userPath); {
	case err == nil:
		return userPath, nil
	case !errors.Is(err, fs.ErrNotExist):
		return "", err
	}

	b, err := os.ReadFile(defaultPath)
	if errors.Is(err, fs.ErrNotExist) {
		return userPath, SaveAtomic(userPath, Default())
	}
	if err != nil {
		return "", err
	}
	return userPath, writeFileAtomic(userPath, b)
}

// writeFileAtomic writes through a temp file in the same directory so a
// crash never leaves a half-written config behind.
func writeFileAtomic(path string, b []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
