package credential

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/commitwise/commitwise/internal/pkg/config"
	apperrors "github.com/commitwise/commitwise/internal/pkg/errors"
)

// APIKeyEnv names the variable that supplies the API key directly.
const APIKeyEnv = "COMMITWISE_API_KEY"

// ErrNoCredential means no usable API key is available.
var ErrNoCredential = errors.New("no API key configured")

// Store resolves and persists the API key through the config file.
type Store struct {
	config config.Manager
	cipher *Cipher
	getenv func(string) string
}

// NewStore creates a store that keeps the encrypted key in cfg.
func NewStore(cfg config.Manager, c *Cipher) *Store {
	return &Store{config: cfg, cipher: c, getenv: os.Getenv}
}

// APIKey returns the API key from COMMITWISE_API_KEY or, failing that, the
// decrypted stored value. A stored value that cannot be decrypted is logged
// and reported as ErrNoCredential so the caller prompts for a new one.
func (s *Store) APIKey() (string, error) {
	if key := strings.TrimSpace(s.getenv(APIKeyEnv)); key != "" {
		apperrors.Debug("using API key from %s", APIKeyEnv)
		return key, nil
	}

	cfg, err := s.config.Load()
	if err != nil {
		return "", err
	}
	if cfg.APIKey == "" {
		return "", ErrNoCredential
	}

	key, err := s.cipher.Decrypt(cfg.APIKey)
	if err != nil {
		apperrors.Warn("%v", err)
		return "", ErrNoCredential
	}
	return key, nil
}

// SetAPIKey encrypts key and persists it.
func (s *Store) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return apperrors.New(apperrors.ErrMissingAPIKey, "API key must not be empty")
	}

	encrypted, err := s.cipher.Encrypt(key)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrConfig, "failed to encrypt API key")
	}

	if err := s.config.Update(func(cfg *config.Config) error {
		cfg.APIKey = encrypted
		return nil
	}); err != nil {
		return err
	}
	apperrors.Info("stored API key %s", Mask(key))
	return nil
}

// Forget removes the stored key.
func (s *Store) Forget() error {
	return s.config.Update(func(cfg *config.Config) error {
		cfg.APIKey = ""
		return nil
	})
}

// Mask masks an API key, showing only the last 4 characters.
func Mask(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

var keyFormats = map[string]*regexp.Regexp{
	"openai": regexp.MustCompile(`^sk-[a-zA-Z0-9_-]{20,}$`),
}

// CheckFormat reports a key that does not look like one issued by provider.
// Custom OpenAI-compatible endpoints issue other shapes, so callers only warn.
func CheckFormat(provider, key string) error {
	pattern, ok := keyFormats[provider]
	if !ok || pattern.MatchString(key) {
		return nil
	}
	return fmt.Errorf("API key does not look like an %s key (expected sk-...)", provider)
}
