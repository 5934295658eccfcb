package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

// defaultMenuSize is the number of configurations visible in the picker.
const defaultMenuSize = 10

// PromptUI implements Prompter on a terminal with promptui.
type PromptUI struct {
	stdin  io.ReadCloser
	stdout io.WriteCloser
}

// NewPromptUI returns a PromptUI bound to the process stdin and stdout.
func NewPromptUI() *PromptUI {
	return &PromptUI{stdin: os.Stdin, stdout: os.Stdout}
}

// NewPromptUIWithIO returns a PromptUI reading from stdin and drawing on
// stdout. Nil arguments fall back to the process streams.
func NewPromptUIWithIO(stdin io.Reader, stdout io.Writer) *PromptUI {
	pu := NewPromptUI()
	if stdin != nil {
		pu.stdin = toReadCloser(stdin)
	}
	if stdout != nil {
		pu.stdout = toWriteCloser(stdout)
	}
	return pu
}

// Select shows a filterable list; typing "/" starts a case-insensitive
// substring search over the items.
func (p *PromptUI) Select(label string, items []string, defaultValue string) (int, string, error) {
	cursor := 0
	for i, item := range items {
		if item == defaultValue {
			cursor = i
			break
		}
	}

	selectPrompt := promptui.Select{
		Label:     label,
		Items:     items,
		Size:      defaultMenuSize,
		HideHelp:  true,
		CursorPos: cursor,
		Searcher:  containsSearcher(items),
		Stdin:     p.stdin,
		Stdout:    p.stdout,
	}

	idx, value, err := selectPrompt.Run()
	if err != nil {
		return idx, value, fmt.Errorf("%w: %v", ErrPromptCancelled, err)
	}
	return idx, value, nil
}

func containsSearcher(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		needle := strings.ToLower(strings.TrimSpace(input))
		return strings.Contains(strings.ToLower(items[index]), needle)
	}
}

func (p *PromptUI) Prompt(label string) (string, error) {
	prompt := promptui.Prompt{
		Label:  label,
		Stdin:  p.stdin,
		Stdout: p.stdout,
	}
	value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPromptCancelled, err)
	}
	return value, nil
}

// Confirm asks a y/N question. A declined confirmation is reported by
// promptui as ErrAbort and returns false without error.
func (p *PromptUI) Confirm(label string, defaultYes bool) (bool, error) {
	def := "N"
	if defaultYes {
		def = "Y"
	}
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Default:   def,
		Stdin:     p.stdin,
		Stdout:    p.stdout,
	}
	result, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrAbort {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrPromptCancelled, err)
	}
	return strings.EqualFold(result, "y") || (result == "" && defaultYes), nil
}

func toReadCloser(r io.Reader) io.ReadCloser {
	if rc, ok := r.(io.ReadCloser); ok {
		return rc
	}
	return io.NopCloser(r)
}

func toWriteCloser(w io.Writer) io.WriteCloser {
	if wc, ok := w.(io.WriteCloser); ok {
		return wc
	}
	return nopWriteCloser{Writer: w}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}
