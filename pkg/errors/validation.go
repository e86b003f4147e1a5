package errors

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Field length limits for graph submissions.
const (
	// MinSourceLength is the minimum number of characters for DOT source.
	MinSourceLength = 2

	// MaxSourceLength caps DOT source size to keep render times sane.
	MaxSourceLength = 64 * 1024

	// MaxTitleLength is the maximum title length in characters.
	MaxTitleLength = 120

	// MaxDescriptionLength is the maximum description length in characters.
	MaxDescriptionLength = 500
)

// ValidateSource validates DOT source text from the graph form.
// It enforces the minimum length contract (2 characters) and rejects
// oversized or binary input. It does not parse DOT; malformed-but-plausible
// source is accepted here and fails later at render time.
func ValidateSource(source string) error {
	if strings.TrimSpace(source) == "" {
		return New(ErrCodeInvalidSource, "source is required")
	}

	if utf8.RuneCountInString(source) < MinSourceLength {
		return New(ErrCodeInvalidSource, "source must be at least %d characters", MinSourceLength)
	}

	if len(source) > MaxSourceLength {
		return New(ErrCodeInvalidSource, "source too long (max %d bytes)", MaxSourceLength)
	}

	if strings.ContainsRune(source, '\x00') {
		return New(ErrCodeInvalidSource, "source contains invalid characters")
	}

	return nil
}

// ValidateTitle validates the optional graph title.
// Empty titles are allowed; non-empty titles must be a single line of
// printable text.
func ValidateTitle(title string) error {
	if title == "" {
		return nil
	}

	if utf8.RuneCountInString(title) > MaxTitleLength {
		return New(ErrCodeInvalidTitle, "title too long (max %d characters)", MaxTitleLength)
	}

	for _, r := range title {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidTitle, "title contains invalid control characters")
		}
	}

	return nil
}

// ValidateDescription validates the optional graph description.
// Newlines are allowed; other control characters are not.
func ValidateDescription(desc string) error {
	if desc == "" {
		return nil
	}

	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return New(ErrCodeInvalidDescription, "description too long (max %d characters)", MaxDescriptionLength)
	}

	for _, r := range desc {
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			return New(ErrCodeInvalidDescription, "description contains invalid control characters")
		}
	}

	return nil
}

// ValidationErrors aggregates field-scoped validation failures for a form
// submission. A nil or empty ValidationErrors means the submission is valid.
type ValidationErrors struct {
	// Fields maps field name to a user-facing message.
	Fields map[string]string
}

// Add records a validation failure for a field. The first failure per field
// wins; later failures for the same field are dropped.
func (v *ValidationErrors) Add(field string, err error) {
	if err == nil {
		return
	}
	if v.Fields == nil {
		v.Fields = make(map[string]string)
	}
	if _, ok := v.Fields[field]; !ok {
		v.Fields[field] = UserMessage(err)
	}
}

// Empty reports whether no validation failures were recorded.
func (v *ValidationErrors) Empty() bool {
	return v == nil || len(v.Fields) == 0
}

// Error implements the error interface, joining field messages in field order.
func (v *ValidationErrors) Error() string {
	if v.Empty() {
		return "valid"
	}

	fields := make([]string, 0, len(v.Fields))
	for f := range v.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v.Fields[f])
	}
	return strings.Join(parts, "; ")
}
