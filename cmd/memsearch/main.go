// Package main is the entry point for the memsearch knowledge base CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/easeaico/memsearch/internal/config"
	"github.com/easeaico/memsearch/internal/logging"
	"github.com/easeaico/memsearch/internal/memory"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	tagStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("78"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

const longUsage = `Memory Search Tool

Usage:
  memsearch query "tags:auth"                          # Search entries
  memsearch tags [summary|all|counts|category]         # List tags
  memsearch suggest tag1 tag2                          # Check tag similarity
  memsearch add patterns '{"tags":["new"],"context":"..."}'  # Add entry

Examples:
  memsearch tags                                       # Show tag summary
  memsearch suggest authentication auth                # Check if tags are similar
  memsearch query "category:testing"                   # Find test-related entries`

// app carries the state shared by all commands once flags are parsed.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *log.Logger
}

// setup resolves configuration and builds the logger. It runs before every
// command.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// openKB loads the knowledge base document named by the configuration.
func (a *app) openKB(ctx context.Context) (*memory.KnowledgeBase, error) {
	store := memory.NewFileStore(a.cfg.File, a.logger)
	return memory.Open(ctx, store, memory.WithLogger(a.logger))
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	a := &app{v: v}

	rootCmd := &cobra.Command{
		Use:   "memsearch",
		Short: "Query and curate a local development knowledge base",
		Long:  titleStyle.Render("memsearch") + " - " + longUsage,
		// Unknown commands fall through to the help text instead of failing.
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.String("file", "", "knowledge base document (default dev-memory.json in the working directory)")
	flags.String("format", "", "data output format: json or yaml (default json)")
	flags.String("log-level", "", "log level: debug, info, warn or error (default info)")
	_ = v.BindPFlag("file", flags.Lookup("file"))
	_ = v.BindPFlag("format", flags.Lookup("format"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))

	rootCmd.AddCommand(newQueryCmd(a))
	rootCmd.AddCommand(newAddCmd(a))
	rootCmd.AddCommand(newTagsCmd(a))
	rootCmd.AddCommand(newSuggestCmd(a))
	rootCmd.AddCommand(newExportCmd(a))
	rootCmd.AddCommand(newToolsCmd(a))
	rootCmd.AddCommand(newAgentCmd(a))

	return rootCmd
}

func main() {
	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(config.New()).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
