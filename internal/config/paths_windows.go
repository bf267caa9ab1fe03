//go:build windows

package config

import (
	"os"
	"path/filepath"
)

func configSearchPaths() []string {
	return []string{
		filepath.Join(os.Getenv("APPDATA"), "devinfo", "config.yaml"),
		filepath.Join(os.Getenv("ProgramData"), "devinfo", "config.yaml"),
	}
}
