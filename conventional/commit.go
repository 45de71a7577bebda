package conventional

import (
	"fmt"
	"regexp"
	"strings"
)

// Commit represents a conventional commit message.
type Commit struct {
	Type       string
	Scope      string
	Subject    string
	Body       string
	IsBreaking bool
}

// It captures: 1: type, 2: scope (optional), 3: breaking change indicator (!), 4: subject
var commitRegex = regexp.MustCompile(`^(\w+)(?:\(([^)]+)\))?(!?):\s(.*)$`)

// Parse parses a raw git commit message string into a Commit struct.
func Parse(message string) (*Commit, error) {
	lines := strings.SplitN(strings.TrimSpace(message), "\n", 2)
	header := lines[0]

	matches := commitRegex.FindStringSubmatch(header)
	if len(matches) < 5 {
		return nil, fmt.Errorf("invalid commit message format: %s", header)
	}

	commit := &Commit{
		Type:       strings.ToLower(matches[1]),
		Scope:      matches[2],
		IsBreaking: matches[3] == "!",
		Subject:    matches[4],
	}

	if len(lines) > 1 {
		body := strings.TrimSpace(lines[1])
		if strings.Contains(body, "BREAKING CHANGE:") || strings.Contains(body, "BREAKING-CHANGE:") {
			commit.IsBreaking = true
		}
		commit.Body = body
	}

	return commit, nil
}

// Header renders "type(scope)!: subject".
func (c *Commit) Header() string {
	var b strings.Builder
	b.WriteString(c.Type)
	if c.Scope != "" {
		// Parentheses would end the scope early on re-parse.
		b.WriteString("(" + strings.NewReplacer("(", "", ")", "").Replace(c.Scope) + ")")
	}
	if c.IsBreaking {
		b.WriteString("!")
	}
	b.WriteString(": ")
	b.WriteString(strings.ReplaceAll(c.Subject, "\n", " "))
	return b.String()
}

// String renders the full message, header and optional body separated by a
// blank line.
func (c *Commit) String() string {
	if c.Body == "" {
		return c.Header()
	}
	return c.Header() + "\n\n" + c.Body
}
