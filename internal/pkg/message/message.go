// Package message holds the commit prefix catalog and the rules for
// composing and bounding commit messages.
package message

import (
	"regexp"
	"strings"
	"unicode/utf8"

	apperrors "github.com/commitwise/commitwise/internal/pkg/errors"
)

// Separator joins a prefix and its description.
const Separator = ": "

// conventionalSubjectRegex matches "<type>(<scope>)!: <subject>" with optional scope and bang.
var conventionalSubjectRegex = regexp.MustCompile(`^([a-z]+)(\([^)]+\))?(!)?:\s*(.+)$`)

// CommitMessage is the subject line of a commit split into its parts.
type CommitMessage struct {
	Type     string
	Scope    string
	Breaking bool
	Subject  string
}

// Parse splits the first line of raw into a CommitMessage. A line that does
// not follow the conventional shape is kept whole in Subject.
func Parse(raw string) *CommitMessage {
	line := strings.TrimSpace(raw)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}

	matches := conventionalSubjectRegex.FindStringSubmatch(line)
	if matches == nil {
		return &CommitMessage{Subject: line}
	}
	return &CommitMessage{
		Type:     matches[1],
		Scope:    strings.Trim(matches[2], "()"),
		Breaking: matches[3] == "!",
		Subject:  strings.TrimSpace(matches[4]),
	}
}

// Format renders the subject line.
func (cm *CommitMessage) Format() string {
	if cm.Type == "" {
		return cm.Subject
	}
	var sb strings.Builder
	sb.WriteString(cm.Type)
	if cm.Scope != "" {
		sb.WriteString("(" + cm.Scope + ")")
	}
	if cm.Breaking {
		sb.WriteByte('!')
	}
	sb.WriteString(Separator)
	sb.WriteString(cm.Subject)
	return sb.String()
}

// IsConventional reports whether the message uses a type from catalog.
func (cm *CommitMessage) IsConventional(catalog Catalog) bool {
	return cm.Type != "" && cm.Subject != "" && catalog.Contains(cm.Type)
}

// Compose joins prefix and description as "prefix: description".
func Compose(prefix, description string) string {
	cm := &CommitMessage{Type: prefix, Subject: strings.TrimSpace(description)}
	return cm.Format()
}

// Length counts characters, not bytes.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}

// Bounds is an inclusive character-count range.
type Bounds struct {
	Min int
	Max int
}

// DescriptionBounds returns the allowed description length once prefix and
// the separator are accounted for against maxCommitLength.
func DescriptionBounds(prefix string, minLength, maxCommitLength int) Bounds {
	return Bounds{
		Min: minLength,
		Max: maxCommitLength - Length(prefix) - Length(Separator),
	}
}

// MessageBounds returns the allowed length of a full commit message.
func MessageBounds(minLength, maxCommitLength int) Bounds {
	return Bounds{Min: minLength, Max: maxCommitLength}
}

// Validate checks text against b, returning *errors.ValidationError when
// the trimmed length falls outside it.
func (b Bounds) Validate(field, text string) error {
	n := Length(strings.TrimSpace(text))
	if n < b.Min || n > b.Max {
		return &apperrors.ValidationError{Field: field, Length: n, Min: b.Min, Max: b.Max}
	}
	return nil
}
