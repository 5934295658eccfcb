package cli

// Prompter is the interactive surface used by commands. PromptUI is the
// terminal implementation; tests substitute a stub.
type Prompter interface {
	// Select returns the index and value chosen from items, starting the
	// cursor on defaultValue when present.
	Select(label string, items []string, defaultValue string) (int, string, error)
	Prompt(label string) (string, error)
	Confirm(label string, defaultYes bool) (bool, error)
}
