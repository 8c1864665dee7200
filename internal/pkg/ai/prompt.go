package ai

import (
	"bytes"
	"strings"
	"text/template"
	"unicode/utf8"
)

// MaxDiffBytes caps the diff embedded in a prompt.
const MaxDiffBytes = 16 * 1024

// SystemPrompt is sent ahead of every request.
const SystemPrompt = `You are an expert at writing semantic git commit messages.
You answer with a numbered list of single-line commit messages and nothing else.`

// DefaultUserPromptTemplate is rendered with PromptData.
const DefaultUserPromptTemplate = `Generate exactly {{.Count}} commit message options for the staged changes below.

Rules:
- Use the Conventional Commits format: <type>: <description> or <type>(<scope>): <description>
- The type must be lowercase and one of: {{join .Types ", "}}
- Each message must be at most {{.MaxLength}} characters long
- Use the imperative mood and no trailing period
- Reply with a numbered list ("1. ", "2. ", ...) and no other text
{{- if .Previous}}

Do not repeat these earlier suggestions:
{{- range .Previous}}
- {{.}}
{{- end}}
{{- end}}

Diff{{if .Truncated}} (truncated to the first {{.DiffBytes}} bytes){{end}}:
{{.Diff}}`

// PromptData contains the values rendered into the user prompt.
type PromptData struct {
	Diff      string
	Truncated bool
	DiffBytes int
	MaxLength int
	Count     int
	Types     []string
	Previous  []string
}

// PromptTemplate renders user prompts.
type PromptTemplate struct {
	tmpl *template.Template
}

var templateFuncs = template.FuncMap{"join": strings.Join}

// NewPromptTemplate parses DefaultUserPromptTemplate.
func NewPromptTemplate() *PromptTemplate {
	return &PromptTemplate{
		tmpl: template.Must(template.New("user").Funcs(templateFuncs).Parse(DefaultUserPromptTemplate)),
	}
}

// NewPromptTemplateWithCustom parses text as the user prompt template.
func NewPromptTemplateWithCustom(text string) (*PromptTemplate, error) {
	tmpl, err := template.New("user").Funcs(templateFuncs).Parse(text)
	if err != nil {
		return nil, err
	}
	return &PromptTemplate{tmpl: tmpl}, nil
}

// Render renders data.
func (pt *PromptTemplate) Render(data *PromptData) (string, error) {
	var buf bytes.Buffer
	if err := pt.tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BuildPromptData fills PromptData, cutting diff to MaxDiffBytes on a
// character boundary.
func BuildPromptData(diff string, maxLength, count int, types, previous []string) *PromptData {
	data := &PromptData{
		Diff:      diff,
		MaxLength: maxLength,
		Count:     count,
		Types:     types,
		Previous:  previous,
	}
	if len(diff) > MaxDiffBytes {
		cut := MaxDiffBytes
		for cut > 0 && !utf8.RuneStart(diff[cut]) {
			cut--
		}
		data.Diff = diff[:cut]
		data.Truncated = true
		data.DiffBytes = cut
	}
	return data
}
