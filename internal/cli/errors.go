package cli

import "errors"

// ErrPromptCancelled indicates that the user aborted an interactive prompt
// with Ctrl+C, Ctrl+D or EOF.
var ErrPromptCancelled = errors.New("prompt cancelled")
