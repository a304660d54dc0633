package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// envFiles are loaded in order; earlier files win because existing variables
// are never overridden.
var envFiles = []string{".env.local", ".env"}

// LoadDotEnv loads .env files from the project root into the process
// environment so the external toolchain inherits them. Missing files are not
// an error. It returns the files that were loaded.
func LoadDotEnv(root string) ([]string, error) {
	var loaded []string
	for _, name := range envFiles {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return loaded, fmt.Errorf("load %s: %w", p, err)
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}
