package valueobjects

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"thoughtgraph/domain/config"
	pkgerrors "thoughtgraph/pkg/errors"
)

// ThoughtContent is a value object for a thought's title and body
type ThoughtContent struct {
	title string
	body  string
}

// NewThoughtContent creates content with validation using default configuration
func NewThoughtContent(title, body string) (ThoughtContent, error) {
	return NewThoughtContentWithConfig(title, body, config.DefaultDomainConfig())
}

// NewThoughtContentWithConfig creates content with validation and configuration.
// The title is trimmed; the body is kept verbatim.
func NewThoughtContentWithConfig(title, body string, cfg *config.DomainConfig) (ThoughtContent, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	title = strings.TrimSpace(title)

	if strings.ContainsAny(title, "\r\n") {
		return ThoughtContent{}, pkgerrors.NewValidationError("title must be a single line")
	}

	if n := utf8.RuneCountInString(title); n > cfg.MaxTitleLength {
		return ThoughtContent{}, pkgerrors.NewValidationError(
			fmt.Sprintf("title exceeds maximum length of %d characters", cfg.MaxTitleLength),
		).WithDetail("actual_length", n)
	}

	if n := utf8.RuneCountInString(body); n > cfg.MaxContentLength {
		return ThoughtContent{}, pkgerrors.NewValidationError(
			fmt.Sprintf("content exceeds maximum length of %d characters", cfg.MaxContentLength),
		).WithDetail("actual_length", n)
	}

	return ThoughtContent{
		title: title,
		body:  body,
	}, nil
}

// Title returns the content title
func (c ThoughtContent) Title() string {
	return c.title
}

// Body returns the content body
func (c ThoughtContent) Body() string {
	return c.body
}

// IsEmpty checks if content is empty
func (c ThoughtContent) IsEmpty() bool {
	return c.title == "" && c.body == ""
}

// Equals checks if two contents are equal
func (c ThoughtContent) Equals(other ThoughtContent) bool {
	return c.title == other.title && c.body == other.body
}

// WordCount returns the approximate word count
func (c ThoughtContent) WordCount() int {
	combined := c.title + " " + c.body
	return len(strings.Fields(combined))
}

// Summary returns a single-line, truncated rendering of the content
func (c ThoughtContent) Summary(maxLength int) string {
	return Truncate(strings.Join(strings.Fields(c.body), " "), maxLength)
}

// Truncate shortens s to at most maxLength runes, marking the cut with "..."
func Truncate(s string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	runes := []rune(s)
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-3]) + "..."
}

// SuggestTitle derives a title from the first five words of the content
func SuggestTitle(body string) string {
	words := strings.Fields(body)
	if len(words) > 5 {
		words = words[:5]
	}
	return strings.Join(words, " ")
}
