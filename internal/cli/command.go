package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/example/gcloud-ctx/internal/gctx"
	"github.com/example/gcloud-ctx/internal/gctx/properties"
)

const (
	envNonInteractive      = "GCTX_NON_INTERACTIVE"
	envSelectConfiguration = "GCTX_SELECT_CONFIGURATION"

	defaultRetention = "30d"
	cancelLabel      = "Cancel"
)

var (
	isTerminal = term.IsTerminal
	stdinFD    = func() int { return int(os.Stdin.Fd()) }
)

// Option customises the root command.
type Option func(*options)

type options struct {
	level *slog.LevelVar
}

// WithLogLevel lets --verbose lower level to debug before any subcommand runs.
func WithLogLevel(level *slog.LevelVar) Option {
	return func(o *options) {
		o.level = level
	}
}

// NewRootCommand constructs the root Cobra command for gctx.
func NewRootCommand(store *gctx.Store, prompter Prompter, stdout, stderr io.Writer, opts ...Option) *cobra.Command {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	var verbose bool

	cmd := &cobra.Command{
		Use:   "gctx [name]",
		Short: "gcloud configuration manager",
		Long: "gctx lists, switches and edits gcloud named configurations.\n\n" +
			"Without arguments it prints the active configuration; with a name it activates it.",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeConfigurationNames(store, 1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose && o.level != nil {
				o.level.Set(slog.LevelDebug)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runActivate(store, stdout, args[0])
			}
			return runCurrent(store, stdout)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newListCommand(store, stdout, stderr))
	cmd.AddCommand(newCurrentCommand(store, stdout))
	cmd.AddCommand(newActivateCommand(store, prompter, stdout))
	cmd.AddCommand(newCreateCommand(store, stdout))
	cmd.AddCommand(newCopyCommand(store, prompter, stdout))
	cmd.AddCommand(newRenameCommand(store, prompter, stdout))
	cmd.AddCommand(newDeleteCommand(store, stdout))
	cmd.AddCommand(newDescribeCommand(store, stdout))
	cmd.AddCommand(newPruneCommand(store, prompter, stdout))

	return cmd
}

func newListCommand(store *gctx.Store, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all available configurations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, diagnostics, err := store.Scan()
			if err != nil {
				return err
			}
			for _, d := range diagnostics {
				fmt.Fprintf(stderr, "Warning: %s\n", d)
			}
			if len(profiles) == 0 {
				fmt.Fprintf(stdout, "No configurations found in %s. Use 'gctx create' to add one.\n", store.Root())
				return nil
			}
			for _, p := range profiles {
				prefix := "  "
				if store.IsActive(p) {
					prefix = "* "
				}
				fmt.Fprintf(stdout, "%s%s\n", prefix, p.Name)
			}
			return nil
		},
	}
}

func newCurrentCommand(store *gctx.Store, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:     "current",
		Aliases: []string{"active"},
		Short:   "Show the active configuration",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCurrent(store, stdout)
		},
	}
}

func runCurrent(store *gctx.Store, stdout io.Writer) error {
	name, err := store.Active()
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, name)
	return nil
}

func newActivateCommand(store *gctx.Store, prompter Prompter, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:               "activate [name]",
		Short:             "Activate a configuration by name",
		Long:              "Activate a configuration by name. Without a name, pick one from a list.",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeConfigurationNames(store, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			} else {
				selected, err := selectConfiguration(store, prompter)
				if err != nil {
					return err
				}
				name = selected
			}
			return runActivate(store, stdout, name)
		},
	}
}

func runActivate(store *gctx.Store, stdout io.Writer, name string) error {
	if err := store.Activate(name); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Successfully activated '%s'\n", name)
	return nil
}

func selectConfiguration(store *gctx.Store, prompter Prompter) (string, error) {
	var names []string
	for p := range store.Configurations() {
		names = append(names, p.Name)
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no configurations available in %s", store.Root())
	}
	if value, ok := automationValue(envSelectConfiguration); ok {
		return value, nil
	}
	if !interactive() {
		return "", errors.New("a configuration name is required when not running interactively")
	}

	active, _ := store.Active()
	names = reorderWithDefault(names, active)
	_, selected, err := prompter.Select("Select configuration to activate", names, active)
	if err != nil {
		return "", err
	}
	return selected, nil
}

func newCreateCommand(store *gctx.Store, stdout io.Writer) *cobra.Command {
	var (
		project, account, zone, region string
		force, activate                bool
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			builder := properties.NewBuilder()
			flags := cmd.Flags()
			if flags.Changed("project") {
				builder.Project(project)
			}
			if flags.Changed("account") {
				builder.Account(account)
			}
			if flags.Changed("zone") {
				builder.Zone(zone)
			}
			if flags.Changed("region") {
				builder.Region(region)
			}
			props, err := builder.Build()
			if err != nil {
				return err
			}

			if _, err := store.Create(name, props, gctx.ConflictFromForce(force), activate); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Successfully created configuration '%s'\n", name)
			if activate {
				fmt.Fprintf(stdout, "Configuration '%s' is now active\n", name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Setting for core/project")
	cmd.Flags().StringVarP(&account, "account", "a", "", "Setting for core/account")
	cmd.Flags().StringVarP(&zone, "zone", "z", "", "Setting for compute/zone (e.g. europe-west1-d)")
	cmd.Flags().StringVarP(&region, "region", "r", "", "Setting for compute/region (e.g. europe-west1)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing configuration")
	cmd.Flags().BoolVar(&activate, "activate", false, "Activate the new configuration immediately")

	return cmd
}

func newCopyCommand(store *gctx.Store, prompter Prompter, stdout io.Writer) *cobra.Command {
	var force, activate bool

	cmd := &cobra.Command{
		Use:               "copy <src> [dest]",
		Short:             "Copy a configuration, preserving all of its properties",
		Long:              "Copy a configuration, preserving all of its properties. Without dest the new name is prompted for.",
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: completeConfigurationNames(store, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, dest, err := sourceAndDestination(store, prompter, args, "Copy '%s' to")
			if err != nil {
				return err
			}
			if _, err := store.Copy(src, dest, gctx.ConflictFromForce(force), activate); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Successfully copied configuration '%s' to '%s'\n", src, dest)
			if activate {
				fmt.Fprintf(stdout, "Configuration '%s' is now active\n", dest)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing configuration")
	cmd.Flags().BoolVar(&activate, "activate", false, "Activate the new configuration immediately")

	return cmd
}

func newRenameCommand(store *gctx.Store, prompter Prompter, stdout io.Writer) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:               "rename <src> [dest]",
		Short:             "Rename a configuration",
		Long:              "Rename a configuration. Without dest the new name is prompted for.",
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: completeConfigurationNames(store, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, dest, err := sourceAndDestination(store, prompter, args, "Rename '%s' to")
			if err != nil {
				return err
			}
			renamed, err := store.Rename(src, dest, gctx.ConflictFromForce(force))
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Successfully renamed configuration '%s' to '%s'\n", src, dest)
			if store.IsActive(renamed) {
				fmt.Fprintf(stdout, "Configuration '%s' is now active\n", dest)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing configuration")

	return cmd
}

func newDeleteCommand(store *gctx.Store, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:               "delete <name>",
		Short:             "Delete a configuration",
		Long:              "Delete a configuration. The active configuration cannot be deleted.",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeConfigurationNames(store, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := store.Delete(name); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Successfully deleted configuration '%s'\n", name)
			return nil
		},
	}
}

func newDescribeCommand(store *gctx.Store, stdout io.Writer) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:               "describe [name]",
		Short:             "Describe all the properties in a configuration",
		Long:              "Describe all the properties in a configuration, defaulting to the active one.",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeConfigurationNames(store, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				props properties.Properties
				err   error
			)
			if len(args) > 0 {
				props, err = store.Describe(args[0])
			} else {
				props, err = store.DescribeActive()
			}
			if err != nil {
				return err
			}

			switch strings.ToLower(format) {
			case "ini":
				return properties.Write(stdout, props)
			case "yaml":
				return properties.WriteYAML(stdout, props)
			default:
				return fmt.Errorf("unsupported format %q (expected ini or yaml)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "ini", "Output format: ini or yaml")
	cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions([]string{"ini", "yaml"}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func newPruneCommand(store *gctx.Store, prompter Prompter, stdout io.Writer) *cobra.Command {
	var olderThanStr string
	var force bool

	cmd := &cobra.Command{
		Use:   "prune-backups",
		Short: "Remove outdated backup files",
		Long:  "Remove backups of overwritten and deleted configurations from the gctx_backups directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThanStr == "" {
				if !interactive() {
					olderThanStr = defaultRetention
				} else {
					options := []string{"30d", "90d", "180d", cancelLabel}
					_, choice, err := prompter.Select("Prune backups older than", options, defaultRetention)
					if err != nil {
						return err
					}
					if choice == cancelLabel {
						fmt.Fprintln(stdout, "Prune cancelled.")
						return nil
					}
					olderThanStr = choice
				}
			}

			duration, err := gctx.ParseRetentionInterval(olderThanStr)
			if err != nil {
				return err
			}

			if !force {
				if !interactive() {
					return errors.New("refusing to prune without confirmation; use --force")
				}
				confirm, err := prompter.Confirm(fmt.Sprintf("Delete backups older than %s", formatRetention(duration)), false)
				if err != nil {
					return err
				}
				if !confirm {
					fmt.Fprintln(stdout, "Prune cancelled.")
					return nil
				}
			}

			count, err := store.PruneBackups(duration)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Deleted %d backup(s).\n", count)
			return nil
		},
	}

	cmd.Flags().StringVar(&olderThanStr, "older-than", "", "Delete backups older than the specified duration (e.g. 30d, 12h, 1d12h)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Do not prompt for confirmation")

	return cmd
}

func formatRetention(d time.Duration) string {
	if d >= 24*time.Hour && d%(24*time.Hour) == 0 {
		return fmt.Sprintf("%dd", d/(24*time.Hour))
	}
	return d.String()
}

// completeConfigurationNames completes the first maxArgs positional
// arguments with existing configuration names.
func completeConfigurationNames(store *gctx.Store, maxArgs int) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) >= maxArgs {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		var names []string
		for p := range store.Configurations() {
			if strings.HasPrefix(p.Name, toComplete) {
				names = append(names, p.Name)
			}
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	}
}

// sourceAndDestination returns the source and destination names of a copy or
// rename, prompting for the destination when only the source was given.
func sourceAndDestination(store *gctx.Store, prompter Prompter, args []string, label string) (string, string, error) {
	src := args[0]
	if len(args) == 2 {
		return src, args[1], nil
	}
	if !interactive() {
		return "", "", errors.New("a destination name is required when not running interactively")
	}
	if _, err := store.Find(src); err != nil {
		return "", "", err
	}
	dest, err := prompter.Prompt(fmt.Sprintf(label, src))
	if err != nil {
		return "", "", err
	}
	dest = strings.TrimSpace(dest)
	if err := store.ValidateName(dest); err != nil {
		return "", "", err
	}
	return src, dest, nil
}

func interactive() bool {
	return !isAutomation() && isTerminal(stdinFD())
}

func isAutomation() bool {
	return os.Getenv(envNonInteractive) == "1"
}

func automationValue(key string) (string, bool) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return "", false
	}
	return value, true
}

// reorderWithDefault moves the default value to the front of the list.
// If defaultValue is empty or not found, or already first, returns items unchanged.
func reorderWithDefault(items []string, defaultValue string) []string {
	if defaultValue == "" {
		return items
	}

	idx := -1
	for i, item := range items {
		if item == defaultValue {
			idx = i
			break
		}
	}

	if idx <= 0 {
		return items
	}

	reordered := make([]string, 0, len(items))
	reordered = append(reordered, defaultValue)
	reordered = append(reordered, items[:idx]...)
	reordered = append(reordered, items[idx+1:]...)

	return reordered
}
