package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/example/gcloud-ctx/internal/cli"
	"github.com/example/gcloud-ctx/internal/gctx"
)

var (
	fsProvider afero.Fs = afero.NewOsFs()
	exitFunc            = os.Exit
)

func main() {
	exitFunc(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes gctx with args and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var level slog.LevelVar
	level.Set(cli.DefaultLogLevel)
	logger := cli.NewLogger(stderr, &level)

	store, err := gctx.OpenDefault(fsProvider, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	// The picker draws on stderr so stdout only carries command output.
	prompter := cli.NewPromptUIWithIO(stdin, stderr)
	root := cli.NewRootCommand(store, prompter, stdout, stderr, cli.WithLogLevel(&level))
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
