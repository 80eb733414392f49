package token

import "strings"

// Comment is a '#' line comment. The lexer drops comments from the token
// stream but keeps them for tooling.
type Comment struct {
	Text string // includes the leading '#'
	Span Span
}

// Body returns the comment text without the '#' marker and surrounding space.
func (c *Comment) Body() string {
	return strings.TrimSpace(strings.TrimPrefix(c.Text, "#"))
}
