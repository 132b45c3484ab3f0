package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/spincycle/backend/internal/domain"
)

// styles is bound to one writer so color support is detected for that
// writer rather than for stdout.
type styles struct {
	title    lipgloss.Style
	label    lipgloss.Style
	done     lipgloss.Style
	active   lipgloss.Style
	idle     lipgloss.Style
	warning  lipgloss.Style
	subtitle lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		label:    r.NewStyle().Foreground(lipgloss.Color("#A0AEC0")),
		done:     r.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true),
		active:   r.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true),
		idle:     r.NewStyle().Foreground(lipgloss.Color("#999999")),
		warning:  r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		subtitle: r.NewStyle().Italic(true),
	}
}

func (s styles) marker(status domain.TaskStatus) string {
	switch status {
	case domain.TaskStatusComplete:
		return s.done.Render("[x]")
	case domain.TaskStatusInProgress:
		return s.active.Render("[~]")
	default:
		return s.idle.Render("[ ]")
	}
}

// OutputFormatter writes command results as styled text or JSON.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the JSON envelope for every command.
type CLIResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Success writes data as JSON, or calls text to render it for humans.
func (f *OutputFormatter) Success(data interface{}, text func(w io.Writer) error) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{Status: "ok", Data: data})
	}
	return text(f.Writer)
}

// Fail reports err in the configured format and returns it so the process
// exits non-zero.
func (f *OutputFormatter) Fail(err error) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(CLIResponse{Status: "error", Error: err.Error()}); encErr != nil {
			return encErr
		}
		return err
	}
	fmt.Fprintln(f.Writer, newStyles(f.Writer).warning.Render("error: ")+err.Error())
	return err
}
