package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// printer writes human-readable output. Styling is applied only when the
// output is a terminal.
type printer struct {
	cmd     *cobra.Command
	heading lipgloss.Style
	accent  lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
}

func newPrinter(cmd *cobra.Command) *printer {
	p := &printer{cmd: cmd}
	if !isTerminal(cmd.OutOrStdout()) {
		return p
	}
	p.heading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	p.accent = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4"))
	p.muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	p.success = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	p.failure = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
	return p
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *printer) Heading(format string, args ...any) {
	p.cmd.Println(p.heading.Render(fmt.Sprintf(format, args...)))
}

func (p *printer) Line(format string, args ...any) {
	p.cmd.Printf(format+"\n", args...)
}

func (p *printer) Muted(s string) string { return p.muted.Render(s) }
func (p *printer) Accent(s string) string { return p.accent.Render(s) }
func (p *printer) Success(s string) string { return p.success.Render(s) }
func (p *printer) Failure(s string) string { return p.failure.Render(s) }

// printJSON writes v as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
