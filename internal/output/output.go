// Package output provides consistent CLI output formatting for the asrsmcp
// commands that talk to a human: validate, stats, config and tools.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Colors used when the terminal supports them.
const (
	ColorGreen  = "#7CB342"
	ColorYellow = "#FBC02D"
	ColorRed    = "#E53935"
	ColorGray   = "#757575"
)

// fieldWidth is the label column width used by Field.
const fieldWidth = 22

// Styles holds the lipgloss styles for each kind of line.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Header:  r.NewStyle().Bold(true),
		Success: r.NewStyle().Foreground(lipgloss.Color(ColorGreen)),
		Warning: r.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   r.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:     r.NewStyle().Foreground(lipgloss.Color(ColorGray)),
	}
}

// Writer provides formatted output for CLI.
type Writer struct {
	out      io.Writer
	useColor bool
	styles   Styles
}

// New creates a Writer that never emits escape sequences.
func New(out io.Writer) *Writer {
	return NewWithColor(out, false)
}

// NewWithColor creates a Writer. With useColor set, lines are styled for
// whatever color profile out supports; a non-terminal gets plain text.
func NewWithColor(out io.Writer, useColor bool) *Writer {
	return &Writer{
		out:      out,
		useColor: useColor,
		styles:   newStyles(lipgloss.NewRenderer(out)),
	}
}

func (w *Writer) render(style lipgloss.Style, s string) string {
	if !w.useColor {
		return s
	}
	return style.Render(s)
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", w.render(w.styles.Success, msg))
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", w.render(w.styles.Warning, msg))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", w.render(w.styles.Error, msg))
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Header prints a bold section title followed by an underline.
func (w *Writer) Header(title string) {
	_, _ = fmt.Fprintln(w.out, w.render(w.styles.Header, title))
	_, _ = fmt.Fprintln(w.out, w.render(w.styles.Dim, strings.Repeat("=", len(title))))
}

// Field prints an aligned "label: value" line.
func (w *Writer) Field(label string, value any) {
	_, _ = fmt.Fprintf(w.out, "  %-*s %v\n", fieldWidth, label+":", value)
}

// Code prints a code block with indentation.
func (w *Writer) Code(content string) {
	_, _ = fmt.Fprintln(w.out)
	for _, line := range strings.Split(content, "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", line)
	}
	_, _ = fmt.Fprintln(w.out)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}
