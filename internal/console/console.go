// Package console is the terminal surface: styled status lines, rendered
// assistant replies, and line-based questions that all share one reader.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"github.com/aigent47/grok-code/internal"
)

// Console reads user input and writes user-facing output
type Console struct {
	in       *bufio.Reader
	out      io.Writer
	errOut   io.Writer
	styled   bool
	renderer *glamour.TermRenderer
}

// New creates a console. Styling and markdown rendering are enabled only
// when out is a terminal.
func New(in io.Reader, out, errOut io.Writer) *Console {
	c := &Console{
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
		styled: isTerminal(out),
	}
	if c.styled {
		width := 100
		if f, ok := out.(*os.File); ok {
			if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 {
				width = w - 4
			}
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			internal.LogDebug("markdown renderer unavailable: %v", err)
		} else {
			c.renderer = r
		}
	}
	return c
}

// Println writes a plain line
func (c *Console) Println(a ...interface{}) {
	fmt.Fprintln(c.out, a...)
}

// Printf writes formatted plain text
func (c *Console) Printf(format string, a ...interface{}) {
	fmt.Fprintf(c.out, format, a...)
}

// Success prints a success message
func (c *Console) Success(format string, a ...interface{}) {
	c.status(c.out, successStyle, "✓", "", format, a...)
}

// Error prints an error message
func (c *Console) Error(format string, a ...interface{}) {
	c.status(c.errOut, errorStyle, "✗", "Error: ", format, a...)
}

// Warn prints a warning message
func (c *Console) Warn(format string, a ...interface{}) {
	c.status(c.errOut, warningStyle, "⚠", "WARNING: ", format, a...)
}

// Info prints an info message
func (c *Console) Info(format string, a ...interface{}) {
	c.status(c.out, progressStyle, "ℹ", "", format, a...)
}

// Muted prints a dimmed line
func (c *Console) Muted(format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	if c.styled {
		msg = mutedStyle.Render(msg)
	}
	fmt.Fprintln(c.out, msg)
}

// Header prints a section title
func (c *Console) Header(title string) {
	if c.styled {
		title = headerStyle.Render(title)
	}
	fmt.Fprintln(c.out, title)
}

// Splash prints the banner
func (c *Console) Splash(banner string) {
	if c.styled {
		banner = splashStyle.Render(banner)
	}
	fmt.Fprintln(c.out, banner)
}

func (c *Console) status(w io.Writer, style styleRenderer, icon, plainPrefix, format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	if c.styled {
		fmt.Fprintf(w, "%s %s\n", style.Render(icon), msg)
		return
	}
	fmt.Fprintf(w, "%s%s\n", plainPrefix, msg)
}

// Table prints aligned columns under a header row. Off a terminal it is
// borderless so the output stays easy to grep.
func (c *Console) Table(headers []string, rows [][]string) {
	if c.styled {
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(mutedStyle).
			Headers(headers...).
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return titleStyle.Padding(0, 1)
				}
				return lipgloss.NewStyle().Padding(0, 1)
			})
		fmt.Fprintln(c.out, t)
		return
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t")+"\t")
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t")+"\t")
	}
	_ = w.Flush()
}

// Reply prints an assistant reply, rendered as markdown on a terminal
func (c *Console) Reply(label, content string) {
	if !c.styled {
		fmt.Fprintf(c.out, "%s: %s\n", label, content)
		return
	}
	fmt.Fprintln(c.out, assistantLabelStyle.Render(label+":"))
	if c.renderer != nil {
		if rendered, err := c.renderer.Render(content); err == nil {
			fmt.Fprint(c.out, rendered)
			return
		}
	}
	fmt.Fprintln(c.out, content)
}

// Role renders a history role label
func (c *Console) Role(role string) string {
	if !c.styled {
		return "[" + role + "]"
	}
	if role == "user" {
		return userLabelStyle.Render("[" + role + "]")
	}
	return assistantLabelStyle.Render("[" + role + "]")
}

// ReadLine prints prompt and reads one line without its trailing newline.
// It returns io.EOF once the input is exhausted.
func (c *Console) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		if c.styled {
			prompt = promptStyle.Render(prompt)
		}
		fmt.Fprint(c.out, prompt)
	}
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Confirm asks a yes/no question. Anything other than an explicit yes,
// including end of input, counts as no unless def is true and the answer
// is empty.
func (c *Console) Confirm(question string, def bool) bool {
	yes, err := c.Decide(question, def)
	return err == nil && yes
}

// Decide is Confirm for callers that must tell end of input apart from an
// answer; it returns the read error instead of no.
func (c *Console) Decide(question string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	answer, err := c.ReadLine(fmt.Sprintf("? %s %s ", question, hint))
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	case "":
		return def, nil
	default:
		return false, nil
	}
}

// Ask reads a free-text answer, returning def when the answer is empty
func (c *Console) Ask(question, def string) (string, error) {
	prompt := "? " + question + " "
	if def != "" {
		prompt = fmt.Sprintf("? %s (%s) ", question, def)
	}
	answer, err := c.ReadLine(prompt)
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Choose asks the user to pick one of options by number or name
func (c *Console) Choose(question string, options []string, def string) (string, error) {
	for i, opt := range options {
		marker := " "
		if opt == def {
			marker = "*"
		}
		fmt.Fprintf(c.out, "  %s %d) %s\n", marker, i+1, opt)
	}
	answer, err := c.Ask(question, def)
	if err != nil {
		return "", err
	}
	for i, opt := range options {
		if answer == opt || answer == fmt.Sprint(i+1) {
			return opt, nil
		}
	}
	return def, nil
}

// Thinking runs fn while a spinner is shown on a terminal. Off a terminal
// the message is printed once, dimmed.
func (c *Console) Thinking(ctx context.Context, message string, fn func() error) error {
	if !c.styled {
		c.Muted("%s", message)
		return fn()
	}

	spinnerChars := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	stop := make(chan struct{})
	spinnerDone := make(chan struct{})

	go func() {
		defer close(spinnerDone)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		i := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				char := spinnerChars[i%len(spinnerChars)]
				fmt.Fprintf(c.errOut, "\r%s %s", progressStyle.Render(char), message)
				i++
			}
		}
	}()

	err := fn()
	close(stop)
	<-spinnerDone
	fmt.Fprintf(c.errOut, "\r%s\r", strings.Repeat(" ", len(message)+2))
	return err
}

type styleRenderer interface {
	Render(strs ...string) string
}

// isTerminal checks if the writer is a terminal
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}
