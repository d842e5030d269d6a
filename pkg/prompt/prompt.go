// Package prompt implements the blocking interactive console prompt
// used to gate destructive actions: print a question, read a line,
// retry until the answer parses.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ChoiceKind is the parsed class of a user answer.
type ChoiceKind int

const (
	Yes ChoiceKind = iota
	No
	Info
	Quit
)

// Choice is one parsed user answer. All is set for the
// "apply to everything of this kind" variants.
type Choice struct {
	Kind ChoiceKind
	All  bool
}

// OptionSet selects which answers a prompt accepts.
type OptionSet int

const (
	OptionsYesNo OptionSet = iota
	OptionsYesNoAll
	OptionsAll
)

// Help returns the answer legend shown with the prompt.
func (o OptionSet) Help() string {
	switch o {
	case OptionsYesNo:
		return "[Y]es/[N]o"
	case OptionsYesNoAll:
		return "[Y]es/[N]o/[Y]es[A]ll/[N]o[A]ll"
	default:
		return "[Y]es/[N]o/[Y]es[A]ll/[N]o[A]ll/[I]nfo/[Q]uit"
	}
}

// Parse interprets one line of input. The second return is false for
// input the option set does not accept.
func (o OptionSet) Parse(input string) (Choice, bool) {
	input = strings.ToLower(strings.TrimSpace(input))

	switch input {
	case "y", "yes":
		return Choice{Kind: Yes}, true
	case "n", "no":
		return Choice{Kind: No}, true
	}

	if o >= OptionsYesNoAll {
		switch input {
		case "ya", "yesall":
			return Choice{Kind: Yes, All: true}, true
		case "na", "noall":
			return Choice{Kind: No, All: true}, true
		}
	}

	if o >= OptionsAll {
		switch input {
		case "i", "info":
			return Choice{Kind: Info}, true
		case "q", "quit", "cancel":
			return Choice{Kind: Quit}, true
		}
	}

	return Choice{}, false
}

// Prompter asks the user a question and returns the parsed answer.
type Prompter interface {
	Ask(message string, opts OptionSet) (Choice, error)
}

// Console is the stdin/stdout Prompter. Reads block until the user
// answers; malformed input re-prompts.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsole returns a Console over stdin and stdout.
func NewConsole() *Console {
	return NewConsoleWith(os.Stdin, os.Stdout)
}

// NewConsoleWith returns a Console over the given streams. Used by
// tests to script answers.
func NewConsoleWith(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Ask prints message with the option legend and reads answers until
// one parses. An input-stream error is returned to the caller rather
// than retried forever.
func (c *Console) Ask(message string, opts OptionSet) (Choice, error) {
	for {
		fmt.Fprintf(c.out, "%s\n%s: ", message, opts.Help())

		line, err := c.in.ReadString('\n')
		if err != nil && line == "" {
			return Choice{}, fmt.Errorf("failed to read user input: %w", err)
		}

		if choice, ok := opts.Parse(line); ok {
			return choice, nil
		}

		fmt.Fprintf(c.out, "Invalid input. Please choose from %s.\n", opts.Help())
	}
}

// IsInteractive reports whether stdin and stdout are both terminals.
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}
