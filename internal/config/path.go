// Package config loads accounts, file locations and API settings for stall.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Default file locations. They go through ExpandPath before use.
const (
	DefaultConfigDir    = "$HOME/.config/stall"
	DefaultDatabasePath = "$HOME/.local/share/stall/stall.db"
	DefaultSkinsPath    = DefaultConfigDir + "/skins_base.csv"
	DefaultStickersPath = DefaultConfigDir + "/stickers_base.csv"
	DefaultTokenFile    = DefaultConfigDir + "/sheets_token.json"
)

// ConfigDir is the directory searched for config.yaml.
func ConfigDir() string {
	return ExpandPath(DefaultConfigDir)
}

// ExpandPath expands a leading ~ and $VAR references. A ~ is left alone when
// the home directory is unknown.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return os.ExpandEnv(path)
}
