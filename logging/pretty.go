package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// PrettyLogger writes the human-facing console lines of the watcher: the
// startup banner and one line per batch outcome. Log records go through
// NewLogger instead.
type PrettyLogger struct {
	mu     sync.Mutex
	writer io.Writer
	styles PrettyStyles
	clock  func() time.Time
}

// PrettyStyles contains lipgloss styles for different line kinds.
type PrettyStyles struct {
	Success lipgloss.Style
	Info    lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Key     lipgloss.Style
	Value   lipgloss.Style
	Path    lipgloss.Style
	Stamp   lipgloss.Style
	Title   lipgloss.Style
}

// DefaultPrettyStyles returns the default styling for pretty output.
func DefaultPrettyStyles() PrettyStyles {
	return PrettyStyles{
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Key:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Value:   lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		Path:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Italic(true),
		Stamp:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Title:   lipgloss.NewStyle().Bold(true).Padding(0, 1).Border(lipgloss.RoundedBorder()),
	}
}

// NewPrettyLogger writes to stderr without timestamps.
func NewPrettyLogger() *PrettyLogger {
	return &PrettyLogger{
		writer: os.Stderr,
		styles: DefaultPrettyStyles(),
	}
}

// WithWriter sets a custom writer for pretty output.
func (p *PrettyLogger) WithWriter(w io.Writer) *PrettyLogger {
	p.writer = w
	return p
}

// WithClock prefixes status lines with the time from clock.
func (p *PrettyLogger) WithClock(clock func() time.Time) *PrettyLogger {
	p.clock = clock
	return p
}

func (p *PrettyLogger) line(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.writer, format, args...)
}

func (p *PrettyLogger) status(mark string, style lipgloss.Style, message string) {
	stamp := ""
	if p.clock != nil {
		stamp = p.styles.Stamp.Render(p.clock().Format("15:04:05")) + " "
	}
	p.line("%s%s %s\n", stamp, style.Render(mark), style.Render(message))
}

// Banner prints a boxed heading.
func (p *PrettyLogger) Banner(title string) {
	p.line("%s\n", p.styles.Title.Render(title))
}

// Success prints a checkmarked line.
func (p *PrettyLogger) Success(message string) {
	p.status("✓", p.styles.Success, message)
}

// InfoPretty prints an informational line.
func (p *PrettyLogger) InfoPretty(message string) {
	p.status("•", p.styles.Info, message)
}

// WarnPretty prints a warning line.
func (p *PrettyLogger) WarnPretty(message string) {
	p.status("⚠", p.styles.Warning, message)
}

// ErrorPretty prints a failure line, followed by err when non-nil.
func (p *PrettyLogger) ErrorPretty(message string, err error) {
	if err != nil {
		message += ": " + err.Error()
	}
	p.status("✗", p.styles.Error, message)
}

// Field prints a key-value pair.
func (p *PrettyLogger) Field(key string, value interface{}) {
	p.line("%s: %s\n", p.styles.Key.Render(key), p.styles.Value.Render(fmt.Sprint(value)))
}

// Path prints a labelled file path.
func (p *PrettyLogger) Path(label string, path string) {
	p.line("%s: %s\n", p.styles.Key.Render(label), p.styles.Path.Render(path))
}

// Divider prints a horizontal rule.
func (p *PrettyLogger) Divider() {
	p.line("%s\n", p.styles.Key.Render(strings.Repeat("─", 60)))
}
