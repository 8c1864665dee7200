// Package config provides the persisted configuration record for commitwise.
package config

import (
	"fmt"
	"time"
)

// CurrentVersion is written into newly created configuration files.
const CurrentVersion = "1.0.0"

// Config is the machine-wide configuration record stored as JSON.
// Durations are kept in milliseconds to match the on-disk shape.
type Config struct {
	// APIKey holds the encrypted credential (base64), never the plaintext.
	APIKey           string `json:"apiKey,omitempty" mapstructure:"apiKey"`
	MaxCommitLength  int    `json:"maxCommitLength" mapstructure:"maxCommitLength"`
	MinMessageLength int    `json:"minMessageLength" mapstructure:"minMessageLength"`
	APITimeoutMs     int    `json:"apiTimeout" mapstructure:"apiTimeout"`
	MaxRetries       int    `json:"maxRetries" mapstructure:"maxRetries"`
	RetryDelayMs     int    `json:"retryDelay" mapstructure:"retryDelay"`
	ConfigVersion    string `json:"configVersion" mapstructure:"configVersion"`

	Provider        string `json:"provider" mapstructure:"provider"`
	Model           string `json:"model" mapstructure:"model"`
	Endpoint        string `json:"endpoint" mapstructure:"endpoint"`
	SuggestionCount int    `json:"suggestionCount" mapstructure:"suggestionCount"`
	HistoryEnabled  bool   `json:"historyEnabled" mapstructure:"historyEnabled"`
	ColorEnabled    bool   `json:"colorEnabled" mapstructure:"colorEnabled"`
	// PromptTemplate replaces the built-in user prompt when non-empty.
	PromptTemplate string `json:"promptTemplate" mapstructure:"promptTemplate"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		MaxCommitLength:  72,
		MinMessageLength: 10,
		APITimeoutMs:     30000,
		MaxRetries:       3,
		RetryDelayMs:     1000,
		ConfigVersion:    CurrentVersion,
		Provider:         "openai",
		Model:            "gpt-4o-mini",
		Endpoint:         "",
		SuggestionCount:  3,
		HistoryEnabled:   true,
		ColorEnabled:     true,
	}
}

// APITimeout returns the per-attempt generation timeout.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutMs) * time.Millisecond
}

// RetryDelay returns the fixed wait between generation attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// Keys lists the configuration keys in display order.
var Keys = []string{
	"apiKey",
	"maxCommitLength",
	"minMessageLength",
	"apiTimeout",
	"maxRetries",
	"retryDelay",
	"configVersion",
	"provider",
	"model",
	"endpoint",
	"suggestionCount",
	"historyEnabled",
	"colorEnabled",
	"promptTemplate",
}

// Value returns the display value for key. The stored credential is never shown.
func (c *Config) Value(key string) (string, error) {
	switch key {
	case "apiKey":
		if c.APIKey == "" {
			return "(not set)", nil
		}
		return "(encrypted)", nil
	case "maxCommitLength":
		return fmt.Sprint(c.MaxCommitLength), nil
	case "minMessageLength":
		return fmt.Sprint(c.MinMessageLength), nil
	case "apiTimeout":
		return fmt.Sprint(c.APITimeoutMs), nil
	case "maxRetries":
		return fmt.Sprint(c.MaxRetries), nil
	case "retryDelay":
		return fmt.Sprint(c.RetryDelayMs), nil
	case "configVersion":
		return c.ConfigVersion, nil
	case "provider":
		return c.Provider, nil
	case "model":
		return c.Model, nil
	case "endpoint":
		return c.Endpoint, nil
	case "suggestionCount":
		return fmt.Sprint(c.SuggestionCount), nil
	case "historyEnabled":
		return fmt.Sprint(c.HistoryEnabled), nil
	case "colorEnabled":
		return fmt.Sprint(c.ColorEnabled), nil
	case "promptTemplate":
		if c.PromptTemplate == "" {
			return "(default)", nil
		}
		return c.PromptTemplate, nil
	}
	return "", fmt.Errorf("unknown config key: %s", key)
}

// Manager defines the interface for configuration persistence.
type Manager interface {
	// Load returns defaults merged with the persisted record and env overrides.
	Load() (*Config, error)
	// Save overwrites the persisted record.
	Save(cfg *Config) error
	// Update applies fn to the persisted record (without env overrides) and saves it.
	Update(fn func(cfg *Config) error) error
	// Set changes one key from its string form.
	Set(key, value string) error
	// Path returns the location of the configuration file.
	Path() string
}
