package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/stall-keeper/internal/common"
	"github.com/spf13/viper"
)

// API defaults for keys that have no value in the config file or environment.
const (
	DefaultBaseURL       = "https://csfloat.com/api/v1"
	DefaultWriteInterval = 100 * time.Millisecond
)

// Account is one marketplace API key the client operates on.
type Account struct {
	Name   string `mapstructure:"name"`
	APIKey string `mapstructure:"api_key"`
}

// Label returns the account name, or a masked form of the key when unnamed.
func (a Account) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return MaskKey(a.APIKey)
}

// MaskKey hides all but the edges of an API key for display and logging.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + "…" + key[len(key)-4:]
}

// LoadAccounts reads the configured accounts. Both the structured `accounts`
// list and the bare `api_keys` list are accepted; duplicates are collapsed.
func LoadAccounts(v *viper.Viper) ([]Account, error) {
	if v == nil {
		v = viper.GetViper()
	}

	var accounts []Account
	if err := v.UnmarshalKey("accounts", &accounts); err != nil {
		return nil, fmt.Errorf("%w: accounts: %w", common.ErrInvalidConfig, err)
	}

	for _, key := range v.GetStringSlice("api_keys") {
		accounts = append(accounts, Account{APIKey: key})
	}

	seen := make(map[string]bool, len(accounts))
	result := make([]Account, 0, len(accounts))
	for _, acct := range accounts {
		acct.APIKey = strings.TrimSpace(acct.APIKey)
		if acct.APIKey == "" || seen[acct.APIKey] {
			continue
		}
		seen[acct.APIKey] = true
		result = append(result, acct)
	}

	if len(result) == 0 {
		return nil, common.ErrNoAccounts
	}

	return result, nil
}

// Settings holds the non-account configuration used by the commands.
type Settings struct {
	DatabasePath  string
	SkinsPath     string
	StickersPath  string
	BaseURL       string
	WriteInterval time.Duration
}

// LoadSettings resolves paths and API settings, applying defaults and expanding
// `~` and environment variables.
func LoadSettings(v *viper.Viper) Settings {
	if v == nil {
		v = viper.GetViper()
	}

	s := Settings{
		DatabasePath:  stringOr(v, "database.path", DefaultDatabasePath),
		SkinsPath:     stringOr(v, "reference.skins", DefaultSkinsPath),
		StickersPath:  stringOr(v, "reference.stickers", DefaultStickersPath),
		BaseURL:       stringOr(v, "api.base_url", DefaultBaseURL),
		WriteInterval: DefaultWriteInterval,
	}

	if v.IsSet("api.write_interval") {
		s.WriteInterval = v.GetDuration("api.write_interval")
	}

	s.DatabasePath = ExpandPath(s.DatabasePath)
	s.SkinsPath = ExpandPath(s.SkinsPath)
	s.StickersPath = ExpandPath(s.StickersPath)
	s.BaseURL = strings.TrimRight(s.BaseURL, "/")

	return s
}

func stringOr(v *viper.Viper, key, fallback string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	return fallback
}
