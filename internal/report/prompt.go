package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Choice is the operator's answer to the commit confirmation.
type Choice rune

const (
	ChoiceProceed Choice = 'Y'
	ChoiceBackup  Choice = 'B'
	ChoiceDryRun  Choice = 'D'
	ChoiceAbort   Choice = 'A'
)

func (c Choice) String() string {
	switch c {
	case ChoiceProceed:
		return "proceed"
	case ChoiceBackup:
		return "backup then proceed"
	case ChoiceDryRun:
		return "dry run"
	default:
		return "abort"
	}
}

// Confirm asks whether to commit an irreversible reorganization. The first
// letter of the answer decides, case-insensitively; anything unrecognised,
// an empty line or end of input aborts.
func Confirm(in io.Reader, out io.Writer) (Choice, error) {
	lines := []string{
		"This process performs bulk updates on the database that cannot be undone.",
		"Please confirm your intention to continue:",
		"  Enter 'Y' to continue",
		"  Enter 'B' to continue but backup the database first",
		"  Enter 'D' to look at but not execute the changes",
		"  Anything else to abort altogether",
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(out, l); err != nil {
			return ChoiceAbort, err
		}
	}
	fmt.Fprint(out, "\n           Response: ")

	answer, err := bufio.NewReader(in).ReadString('\n')
	fmt.Fprintln(out)
	if err != nil && !errors.Is(err, io.EOF) {
		return ChoiceAbort, fmt.Errorf("read confirmation: %w", err)
	}
	return parseChoice(answer), nil
}

func parseChoice(answer string) Choice {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return ChoiceAbort
	}
	r, _ := utf8.DecodeRuneInString(answer)
	switch c := Choice(unicode.ToUpper(r)); c {
	case ChoiceProceed, ChoiceBackup, ChoiceDryRun:
		return c
	default:
		return ChoiceAbort
	}
}
