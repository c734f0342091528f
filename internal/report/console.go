// Package report renders reorganization progress and results for operators,
// on the terminal with pterm and in the structured log with slog.
package report

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pterm/pterm"

	"github.com/natashamoorfield/npm-npadb-admin/internal/lgro"
)

// Console writes entity messages to a terminal. Info messages are hidden in
// quiet mode; warnings and errors are always shown.
type Console struct {
	out   io.Writer
	quiet bool

	info    *pterm.PrefixPrinter
	warning *pterm.PrefixPrinter
	err     *pterm.PrefixPrinter
	success *pterm.PrefixPrinter
}

// NewConsole creates a Console writing to out, or stdout when out is nil.
func NewConsole(out io.Writer, quiet bool) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{
		out:     out,
		quiet:   quiet,
		info:    pterm.Info.WithWriter(out),
		warning: pterm.Warning.WithWriter(out),
		err:     pterm.Error.WithWriter(out),
		success: pterm.Success.WithWriter(out),
	}
}

var _ lgro.Reporter = (*Console)(nil)

func (c *Console) Info(entity string, id int, lines ...string) {
	if c.quiet {
		return
	}
	c.info.Println(entityBlock(entity, id, lines))
}

func (c *Console) Warn(entity string, id int, lines ...string) {
	c.warning.Println(entityBlock(entity, id, lines))
}

func (c *Console) Error(entity string, id int, lines ...string) {
	c.err.Println(entityBlock(entity, id, lines))
}

// Header prints a full-width title unless quiet.
func (c *Console) Header(format string, args ...any) {
	if c.quiet {
		return
	}
	fmt.Fprintln(c.out, pterm.DefaultHeader.WithFullWidth().Sprintf(format, args...))
}

// Notice prints a plain informational line unless quiet.
func (c *Console) Notice(format string, args ...any) {
	if c.quiet {
		return
	}
	c.info.Printfln(format, args...)
}

// Success prints a completion line.
func (c *Console) Success(format string, args ...any) {
	c.success.Printfln(format, args...)
}

// Failure prints a failure line that is not tied to one entity.
func (c *Console) Failure(format string, args ...any) {
	c.err.Printfln(format, args...)
}

// Summary prints the run summary followed by a one-line verdict.
func (c *Console) Summary(s lgro.Summary) error {
	if err := lgro.WriteSummary(c.out, s); err != nil {
		return err
	}
	for _, e := range append(append([]lgro.Entry{}, s.Failed...), s.Skipped...) {
		if e.Err != nil {
			c.err.Printfln("%s %s: %s", e.Kind, e.Name, lgro.FormatUserError(e.Err))
		}
	}

	switch {
	case s.Failures() > 0:
		c.warning.Printfln("LGRO %d %s finished with %d entities skipped or failed.", s.Year, s.Mode(), s.Failures())
	case s.DryRun:
		c.success.Printfln("LGRO %d dry run complete. Run without --dry-run to apply.", s.Year)
	default:
		c.success.Printfln("LGRO %d complete.", s.Year)
	}
	return nil
}

func entityBlock(entity string, id int, lines []string) string {
	head := entity
	if id != 0 {
		head = fmt.Sprintf("%s (%d)", entity, id)
	}
	if len(lines) == 0 {
		return head
	}
	var b strings.Builder
	b.WriteString(head)
	b.WriteString(": ")
	b.WriteString(lines[0])
	for _, l := range lines[1:] {
		b.WriteString("\n    ")
		b.WriteString(l)
	}
	return b.String()
}

// Log mirrors entity messages into a structured logger.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a Log reporter.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

var _ lgro.Reporter = (*Log)(nil)

func (l *Log) Info(entity string, id int, lines ...string) {
	l.logger.Info(strings.Join(lines, " "), "entity", entity, "entity_id", id)
}

func (l *Log) Warn(entity string, id int, lines ...string) {
	l.logger.Warn(strings.Join(lines, " "), "entity", entity, "entity_id", id)
}

func (l *Log) Error(entity string, id int, lines ...string) {
	l.logger.Error(strings.Join(lines, " "), "entity", entity, "entity_id", id)
}

// Multi fans messages out to several reporters.
type Multi []lgro.Reporter

func (m Multi) Info(entity string, id int, lines ...string) {
	for _, r := range m {
		r.Info(entity, id, lines...)
	}
}

func (m Multi) Warn(entity string, id int, lines ...string) {
	for _, r := range m {
		r.Warn(entity, id, lines...)
	}
}

func (m Multi) Error(entity string, id int, lines ...string) {
	for _, r := range m {
		r.Error(entity, id, lines...)
	}
}
