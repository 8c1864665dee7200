package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/viper"

	apperrors "github.com/commitwise/commitwise/internal/pkg/errors"
)

const (
	// DefaultDirName is the per-user directory holding commitwise state.
	DefaultDirName = ".commitwise"
	// DefaultFileName is the configuration file name inside DefaultDirName.
	DefaultFileName = "config.json"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "COMMITWISE"
)

// Store implements Manager on top of a JSON file read through Viper.
type Store struct {
	path string
}

// NewStore creates a store for the file at path.
// If path is empty, it uses DefaultPath.
func NewStore(path string) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &Store{path: path}, nil
}

// DefaultPath returns ~/.commitwise/config.json.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, DefaultDirName, DefaultFileName), nil
}

// Path returns the path to the configuration file.
func (s *Store) Path() string {
	return s.path
}

// Load creates the file with defaults on first use, then returns defaults
// merged with the persisted record and COMMITWISE_* overrides.
func (s *Store) Load() (*Config, error) {
	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	v, err := s.open(true)
	if err != nil {
		return nil, err
	}
	return s.decode(v)
}

// Save overwrites the file with the full record, readable only by the owner.
func (s *Store) Save(cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return &apperrors.ConfigError{Op: "create", Path: s.path, Err: err}
	}

	// Viper lowercases keys on write, so the camelCase shape is marshaled directly.
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return &apperrors.ConfigError{Op: "encode", Path: s.path, Err: err}
	}
	data = append(data, '\n')

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return &apperrors.ConfigError{Op: "write", Path: s.path, Err: err}
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(s.path, 0600); err != nil {
		return &apperrors.ConfigError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

// Update applies fn to the persisted record and saves the result.
// Environment overrides are not applied so they never end up on disk.
func (s *Store) Update(fn func(cfg *Config) error) error {
	if err := s.ensureFile(); err != nil {
		return err
	}
	v, err := s.open(false)
	if err != nil {
		return err
	}
	cfg, err := s.decode(v)
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	return s.Save(cfg)
}

// Set converts value to the type of key and persists it.
func (s *Store) Set(key, value string) error {
	if key == "apiKey" {
		return apperrors.New(apperrors.ErrInvalidArguments, "apiKey cannot be set directly").
			WithSuggestion("Run commitwise and choose AI suggestions to be prompted for the key")
	}
	defaults := defaultValues()
	def, ok := defaults[key]
	if !ok {
		return apperrors.New(apperrors.ErrInvalidArguments, fmt.Sprintf("unknown config key: %s", key)).
			WithSuggestion("Valid keys: " + strings.Join(Keys[1:], ", "))
	}

	converted, err := convertValue(value, def)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInvalidArguments, fmt.Sprintf("invalid value for %s", key))
	}

	if err := s.ensureFile(); err != nil {
		return err
	}
	v, err := s.open(false)
	if err != nil {
		return err
	}
	v.Set(key, converted)

	cfg, err := s.decode(v)
	if err != nil {
		return err
	}
	if err := Validate(cfg); err != nil {
		return err
	}
	return s.Save(cfg)
}

// Validate checks that tunables are usable.
func Validate(cfg *Config) error {
	invalid := func(msg string) error {
		return apperrors.New(apperrors.ErrInvalidArguments, msg)
	}
	switch {
	case cfg.MaxCommitLength <= 0:
		return invalid("maxCommitLength must be positive")
	case cfg.MinMessageLength < 0:
		return invalid("minMessageLength must not be negative")
	case cfg.MinMessageLength > cfg.MaxCommitLength:
		return invalid(fmt.Sprintf("minMessageLength %d exceeds maxCommitLength %d",
			cfg.MinMessageLength, cfg.MaxCommitLength))
	case cfg.APITimeoutMs <= 0:
		return invalid("apiTimeout must be positive")
	case cfg.MaxRetries < 1:
		return invalid("maxRetries must be at least 1")
	case cfg.RetryDelayMs < 0:
		return invalid("retryDelay must not be negative")
	case cfg.SuggestionCount < 1 || cfg.SuggestionCount > 10:
		return invalid("suggestionCount must be between 1 and 10")
	case cfg.Provider != "openai" && cfg.Provider != "ollama":
		return invalid(fmt.Sprintf("unsupported provider %q (use openai or ollama)", cfg.Provider))
	}
	return nil
}

func (s *Store) ensureFile() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return &apperrors.ConfigError{Op: "create", Path: s.path, Err: err}
	}
	_, err := os.Stat(s.path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return &apperrors.ConfigError{Op: "read", Path: s.path, Err: err}
	}
	apperrors.Debug("creating default config at %s", s.path)
	return s.Save(Default())
}

// open reads the file into a fresh Viper instance seeded with defaults.
func (s *Store) open(withEnv bool) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("json")

	for key, value := range defaultValues() {
		v.SetDefault(key, value)
	}
	if withEnv {
		bindEnvVars(v)
	}

	if err := v.ReadInConfig(); err != nil {
		op := "read"
		var parseErr viper.ConfigParseError
		if errors.As(err, &parseErr) {
			op = "parse"
		}
		return nil, &apperrors.ConfigError{Op: op, Path: s.path, Err: err}
	}
	return v, nil
}

func (s *Store) decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &apperrors.ConfigError{Op: "parse", Path: s.path, Err: err}
	}
	return &cfg, nil
}

func defaultValues() map[string]interface{} {
	d := Default()
	return map[string]interface{}{
		"apiKey":           d.APIKey,
		"maxCommitLength":  d.MaxCommitLength,
		"minMessageLength": d.MinMessageLength,
		"apiTimeout":       d.APITimeoutMs,
		"maxRetries":       d.MaxRetries,
		"retryDelay":       d.RetryDelayMs,
		"configVersion":    d.ConfigVersion,
		"provider":         d.Provider,
		"model":            d.Model,
		"endpoint":         d.Endpoint,
		"suggestionCount":  d.SuggestionCount,
		"historyEnabled":   d.HistoryEnabled,
		"colorEnabled":     d.ColorEnabled,
		"promptTemplate":   d.PromptTemplate,
	}
}

// bindEnvVars binds COMMITWISE_<KEY> for every tunable. The stored
// credential and the version marker are not overridable here;
// COMMITWISE_API_KEY is resolved by the credential store as plaintext.
func bindEnvVars(v *viper.Viper) {
	for _, key := range Keys {
		if key == "apiKey" || key == "configVersion" {
			continue
		}
		_ = v.BindEnv(key, EnvName(key))
	}
}

// EnvName returns the environment variable that overrides key,
// e.g. maxRetries -> COMMITWISE_MAX_RETRIES.
func EnvName(key string) string {
	var sb strings.Builder
	sb.WriteString(EnvPrefix)
	sb.WriteByte('_')
	for i, r := range key {
		if unicode.IsUpper(r) && i > 0 {
			sb.WriteByte('_')
		}
		sb.WriteRune(unicode.ToUpper(r))
	}
	return sb.String()
}

// convertValue converts a string value to the type of the default value.
func convertValue(value string, defaultValue interface{}) (interface{}, error) {
	switch defaultValue.(type) {
	case bool:
		return strconv.ParseBool(value)
	case int:
		return strconv.Atoi(value)
	default:
		return value, nil
	}
}
