package outreach

import (
	"fmt"
	"os"
	"strings"
)

const (
	// firstNameToken is the substitution token accepted in templates.
	firstNameToken = "{first_name}"

	// defaultFirstName is used when the target's name is unknown.
	defaultFirstName = "there"

	// maxNoteLen is the platform's ceiling on connection note length.
	// Enforced client-side before the invite is attempted.
	maxNoteLen = 300
)

// Template personalizes a note or message for a target.
type Template struct {
	text string
}

// LoadTemplate reads a template file. An unreadable file is a validation
// failure, surfaced before any run starts.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read template %s: %v", ErrValidation, path, err)
	}

	return NewTemplate(string(data)), nil
}

// NewTemplate creates a template from raw text.
func NewTemplate(text string) *Template {
	return &Template{text: strings.TrimSpace(text)}
}

// Render substitutes the target's first name into the template.
func (t *Template) Render(displayName string) string {
	return strings.ReplaceAll(t.text, firstNameToken, FirstName(displayName))
}

// RenderNote renders the template and enforces the note-length ceiling.
func (t *Template) RenderNote(displayName string) string {
	return TruncateNote(t.Render(displayName))
}

// FirstName derives a first name from a display name: the first
// whitespace-separated field, or "there" when the name is unknown.
func FirstName(displayName string) string {
	fields := strings.Fields(displayName)
	if len(fields) == 0 {
		return defaultFirstName
	}
	return fields[0]
}

// TruncateNote caps a connection note at the platform limit, replacing the
// overflow with an ellipsis. The limit counts characters, not bytes, so
// multibyte names never trip it early or leave a cut-off rune.
func TruncateNote(note string) string {
	runes := []rune(note)
	if len(runes) <= maxNoteLen {
		return note
	}
	return string(runes[:maxNoteLen-3]) + "..."
}
