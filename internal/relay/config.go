package relay

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Defaults is the default JSON configuration printed by the config command.
const Defaults = `{
    "timeout": 5000000000,
    "accounts": [
        {
            "mastodon": {
                "server": "https://<instance_url>",
                "client_id": "client_id_value",
                "client_secret": "client_secret_value",
                "access_token": "access_token_value"
            },
            "bluesky": {
                "username": "bluesky_email",
                "password": "bluesky_app_password"
            },
            "twitter": {
                "consumer_key": "consumer_key_value",
                "consumer_secret": "consumer_secret_value",
                "access_token": "access_token_value",
                "access_secret": "access_secret_value"
            },
            "prefix": "https://<short_url>/post",
            "replace": {
                ":custom_emoji:": "emoji"
            }
        }
    ]
}
`

const defaultTimeout = 5 * time.Second

// Config is the top level configuration document.
type Config struct {
	Timeout  time.Duration   `json:"timeout"`
	Accounts []AccountConfig `json:"accounts"`
}

// AccountConfig binds one source account to its destination credentials.
// Prefix, when set, is the base URL appended to outgoing posts (with the
// source post ID) as a quasi link shortener. Replace maps literal,
// case-sensitive substrings to their substitutions.
type AccountConfig struct {
	Mastodon *MastodonConfig   `json:"mastodon"`
	Twitter  *TwitterConfig    `json:"twitter"`
	Bluesky  *BlueskyConfig    `json:"bluesky"`
	Prefix   string            `json:"prefix"`
	Replace  map[string]string `json:"replace"`
}

// MastodonConfig holds the source account credentials.
type MastodonConfig struct {
	Server       string `json:"server"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	AccessToken  string `json:"access_token"`
}

// TwitterConfig holds OAuth 1.0a user-context credentials.
type TwitterConfig struct {
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
	AccessToken    string `json:"access_token"`
	AccessSecret   string `json:"access_secret"`
}

// BlueskyConfig holds app-password credentials for a PDS account.
type BlueskyConfig struct {
	Server   string `json:"server"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoadConfig reads, parses, and validates the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) check() error {
	if len(c.Accounts) == 0 {
		return ConfigError{Account: -1, Field: "accounts"}
	}
	for i := range c.Accounts {
		a := &c.Accounts[i]
		if a.Mastodon == nil {
			return ConfigError{Account: i, Field: "mastodon"}
		}
		if a.Twitter == nil && a.Bluesky == nil {
			return ConfigError{Account: i, Field: "twitter or bluesky"}
		}
		if a.Mastodon.Server == "" {
			return ConfigError{Account: i, Field: "mastodon.server"}
		}
		if a.Mastodon.ClientID == "" {
			return ConfigError{Account: i, Field: "mastodon.client_id"}
		}
		if a.Mastodon.ClientSecret == "" {
			return ConfigError{Account: i, Field: "mastodon.client_secret"}
		}
		if a.Mastodon.AccessToken == "" {
			return ConfigError{Account: i, Field: "mastodon.access_token"}
		}
		if t := a.Twitter; t != nil {
			if t.ConsumerKey == "" {
				return ConfigError{Account: i, Field: "twitter.consumer_key"}
			}
			if t.ConsumerSecret == "" {
				return ConfigError{Account: i, Field: "twitter.consumer_secret"}
			}
			if t.AccessToken == "" {
				return ConfigError{Account: i, Field: "twitter.access_token"}
			}
			if t.AccessSecret == "" {
				return ConfigError{Account: i, Field: "twitter.access_secret"}
			}
		}
		if b := a.Bluesky; b != nil {
			if b.Server == "" {
				b.Server = "https://bsky.social"
			}
			if b.Username == "" {
				return ConfigError{Account: i, Field: "bluesky.username"}
			}
			if b.Password == "" {
				return ConfigError{Account: i, Field: "bluesky.password"}
			}
		}
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	return nil
}
