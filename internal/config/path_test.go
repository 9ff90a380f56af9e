package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("STALL_DATA", "/srv/stall")

	tests := []struct {
		name string
		path string
		want string
	}{
		{"empty", "", ""},
		{"tilde", "~", home},
		{"tilde prefix", "~/stall.db", filepath.Join(home, "stall.db")},
		{"env var", "$STALL_DATA/stall.db", "/srv/stall/stall.db"},
		{"default database", DefaultDatabasePath, filepath.Join(home, ".local/share/stall/stall.db")},
		{"tilde in the middle", "/tmp/~/x", "/tmp/~/x"},
		{"absolute", "/var/lib/stall.db", "/var/lib/stall.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.path))
		})
	}
}

func TestConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, ".config", "stall"), ConfigDir())
}
