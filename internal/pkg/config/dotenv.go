package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment files without overriding variables that are
// already set. ENV_FILE, when set, is the only file read and must exist.
// Otherwise .env.local and then .env are read if present, so values in
// .env.local win. It returns the files that were loaded.
func LoadDotEnv() ([]string, error) {
	if path := os.Getenv("ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		return []string{path}, nil
	}

	var loaded []string
	for _, path := range []string{".env.local", ".env"} {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, fmt.Errorf("load %s: %w", path, err)
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}
