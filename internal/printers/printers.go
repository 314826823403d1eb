package printers

import (
	"fmt"
	"io"
	"os"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

const fallbackWidth = 80

var defaultPrinters = Printers{Out: os.Stdout}

type IPrinters interface {
	Confirm(message string) bool
	ShowDiscussion(file string, line int, author, comment string)
	ShowProposal(original, suggested string)
}

type Printers struct {
	Out io.Writer
}

// NewPrinters returns new printers struct
func NewPrinters(out io.Writer) *Printers {
	if out == nil {
		out = os.Stdout
	}
	return &Printers{Out: out}
}

func (p Printers) Confirm(message string) bool {
	validate := func(input string) error {
		input = strings.ToLower(strings.TrimSpace(input))
		if input != "y" && input != "n" {
			return fmt.Errorf("wrong input %s, was expecting `y` or `n`", input)
		}

		return nil
	}

	msg := message + " Press (y/n)"
	prompt := promptui.Prompt{
		Label:    msg,
		Validate: validate,
	}

	result, err := prompt.Run()
	if err != nil {
		return false
	}
	input := strings.ToLower(strings.TrimSpace(result))

	return input == "y"
}

// Confirm prompt a confirmation message
//
// Return true if the user entered Y/y and false if entered n/N
func Confirm(message string) bool {
	return defaultPrinters.Confirm(message)
}

// ShowDiscussion prints the review comment as rendered markdown,
// prefixed with its location.
func (p Printers) ShowDiscussion(file string, line int, author, comment string) {
	header := fmt.Sprintf("%s:%d", file, line)
	if author != "" {
		header = fmt.Sprintf("%s (@%s)", header, author)
	}
	fmt.Fprintf(p.Out, "\n--- %s ---\n", header)
	fmt.Fprintf(p.Out, "%s\n", renderMarkdown(comment))
}

// ShowProposal prints the current lines next to the suggested
// replacement so the user can judge the change before confirming.
func (p Printers) ShowProposal(original, suggested string) {
	fmt.Fprintf(p.Out, "current:\n%s\n", indentBlock(original, "  - "))
	fmt.Fprintf(p.Out, "suggested:\n%s\n", indentBlock(suggested, "  + "))
}

func indentBlock(block, prefix string) string {
	lines := strings.Split(block, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func renderMarkdown(source string) string {
	width := terminalWidth()
	out := markdown.Render(source, width, 2)
	return strings.TrimRight(string(out), "\n")
}

func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return fallbackWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}
