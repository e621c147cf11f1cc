package cliapp

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ritamzico/murk/internal/engine"
	"github.com/ritamzico/murk/internal/rulelang"
	"github.com/ritamzico/murk/internal/state"
)

// Options are the root command's persistent flags, grounded on the
// original cli/command.rs's Config (verbose, format, output, log,
// interactive) plus the watch-mode flag this expansion adds.
type Options struct {
	Verbose     bool
	Format      string
	Output      string
	Split       string
	Log         string
	Interactive bool
	Watch       bool
	RulesFile   string
}

// NewRootCommand builds the murk cobra command tree: index, build,
// graph, and a hidden exit command that is registered whether or not
// --interactive is set, mirroring mercator-hq-jupiter/cmd/mercator/root.go's subcommand layout.
func NewRootCommand() *cobra.Command {
	opts := &Options{}
	var s *state.State
	var logger *slog.Logger

	root := &cobra.Command{
		Use:   "murk",
		Short: "murk builds block-structured markup documents",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s = state.New()
			logger = NewLogger(os.Stderr, LogFormat(opts.Log), opts.Verbose)

			if opts.RulesFile != "" {
				data, err := os.ReadFile(opts.RulesFile)
				if err != nil {
					return err
				}
				lang, err := rulelang.ParseFile(opts.Format, string(data))
				if err != nil {
					return err
				}
				s.SetLang(opts.Format, lang)
			} else {
				s.SetLang(opts.Format, rulelang.Default())
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&opts.Format, "format", "f", "plaintext", "output format / rule language name")
	root.PersistentFlags().StringVarP(&opts.Output, "output", "o", "build", "output directory")
	root.PersistentFlags().StringVar(&opts.Log, "log", string(LogAuto), "log format: auto, html, plain")
	root.PersistentFlags().BoolVar(&opts.Interactive, "interactive", false, "keep reading commands from stdin")
	root.PersistentFlags().StringVar(&opts.RulesFile, "rules", "", "path to a rule file for --format")

	indexCmd := &cobra.Command{
		Use:   "index [paths...]",
		Short: "index source directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			loop := engine.New(s, opts.Format, opts.Output, opts.Interactive, logger)
			cmds := make(chan engine.Command, 1)
			cmds <- engine.IndexCommand{Paths: args}
			close(cmds)
			return loop.Run(context.Background(), cmds)
		},
	}

	buildCmd := &cobra.Command{
		Use:   "build [paths...]",
		Short: "build source paths to the output format",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch opts.Split {
			case "", "ROOT", "DOCUMENT":
			default:
				return fmt.Errorf("unknown --split value: %q", opts.Split)
			}
			loop := engine.New(s, opts.Format, opts.Output, opts.Interactive, logger)
			cmds := make(chan engine.Command, 2)
			cmds <- engine.IndexCommand{Paths: args}
			cmds <- engine.BuildCommand{Paths: args, Format: opts.Format, Output: opts.Output, Split: opts.Split}
			close(cmds)

			ctx := context.Background()
			if opts.Watch {
				return runWatch(ctx, args, loop, cmds)
			}
			return loop.Run(ctx, cmds)
		},
	}
	buildCmd.Flags().StringVarP(&opts.Split, "split", "s", "", "split output at this header level")
	buildCmd.Flags().BoolVar(&opts.Watch, "watch", false, "rebuild whenever a source path changes")

	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "render the operation dependency graph as PlantUML",
		RunE: func(cmd *cobra.Command, args []string) error {
			loop := engine.New(s, opts.Format, opts.Output, opts.Interactive, logger)
			cmds := make(chan engine.Command, 1)
			headers, _ := cmd.Flags().GetBool("headers")
			cmds <- engine.GraphCommand{Headers: headers}
			close(cmds)
			return loop.Run(context.Background(), cmds)
		},
	}
	graphCmd.Flags().Bool("headers", false, "include preprocess-stage nodes")

	exitCmd := &cobra.Command{
		Use:    "exit",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(os.Stdout, "bye")
			return nil
		},
	}

	root.AddCommand(indexCmd, buildCmd, graphCmd, exitCmd)
	return root
}
