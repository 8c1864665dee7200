// Package history records the commit messages commitwise has produced.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/commitwise/commitwise/internal/pkg/errors"
)

const (
	// DefaultMaxEntries bounds the history file.
	DefaultMaxEntries = 500
	// FileName is the history file inside the commitwise directory.
	FileName = "history.json"
)

// Source says how a message was produced.
type Source string

const (
	SourceAI     Source = "ai"
	SourceManual Source = "manual"
)

// Entry is one committed message.
type Entry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Message     string    `json:"message"`
	Source      Source    `json:"source"`
	Provider    string    `json:"provider,omitempty"`
	Model       string    `json:"model,omitempty"`
	DiffSummary string    `json:"diffSummary,omitempty"`
}

// Manager defines the interface for history persistence.
type Manager interface {
	Record(entry *Entry) error
	List(limit int) ([]*Entry, error)
	Clear() error
}

// FileManager keeps entries in a JSON array, oldest first.
type FileManager struct {
	filePath   string
	maxEntries int
	mu         sync.Mutex
}

// NewFileManager creates a FileManager. maxEntries <= 0 uses DefaultMaxEntries.
func NewFileManager(filePath string, maxEntries int) *FileManager {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &FileManager{filePath: filePath, maxEntries: maxEntries}
}

// PathFor returns the history file next to configPath.
func PathFor(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), FileName)
}

// Path returns the location of the history file.
func (m *FileManager) Path() string { return m.filePath }

// Record appends entry, filling in ID and Timestamp when unset. The oldest
// entries are dropped once maxEntries is exceeded.
func (m *FileManager) Record(entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	entries, err := m.load()
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	if len(entries) > m.maxEntries {
		entries = entries[len(entries)-m.maxEntries:]
	}
	return m.save(entries)
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (m *FileManager) List(limit int) ([]*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.load()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	out := make([]*Entry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out, nil
}

// Clear removes all entries.
func (m *FileManager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save([]*Entry{})
}

func (m *FileManager) load() ([]*Entry, error) {
	data, err := os.ReadFile(m.filePath)
	if os.IsNotExist(err) {
		return []*Entry{}, nil
	}
	if err != nil {
		return nil, &apperrors.ConfigError{Op: "read", Path: m.filePath, Err: err}
	}

	var entries []*Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &apperrors.ConfigError{Op: "parse", Path: m.filePath, Err: err}
	}
	return entries, nil
}

func (m *FileManager) save(entries []*Entry) error {
	if err := os.MkdirAll(filepath.Dir(m.filePath), 0700); err != nil {
		return &apperrors.ConfigError{Op: "write", Path: m.filePath, Err: err}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := os.WriteFile(m.filePath, data, 0600); err != nil {
		return &apperrors.ConfigError{Op: "write", Path: m.filePath, Err: err}
	}
	return nil
}

// DiffSummary condenses a unified diff into a git-style shortstat line.
func DiffSummary(diff string) string {
	var files, added, removed int
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "diff --git "):
			files++
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	if files == 0 {
		return ""
	}
	return fmt.Sprintf("%d %s changed, %d %s(+), %d %s(-)",
		files, plural(files, "file", "files"),
		added, plural(added, "insertion", "insertions"),
		removed, plural(removed, "deletion", "deletions"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
