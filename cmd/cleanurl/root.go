package main

import (
	"fmt"
	"os"

	"github.com/getlantern/cleanurl"
	"github.com/getlantern/cleanurl/internal/config"
	"github.com/getlantern/golog"
	"github.com/spf13/cobra"
)

var (
	log = golog.LoggerFor("cleanurl.cli")

	// version is set at build time with -ldflags "-X main.version=...".
	version = "dev"
)

// app carries the state shared by all subcommands of one invocation.
type app struct {
	configPath string
	rulesDir   string
	cfg        *config.Config
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "cleanurl",
		Short: "Remove tracking parameters from URLs",
		Long: `cleanurl removes tracking parameters from URLs using per-site matcher rules.
It can clean URLs given on the command line or standard input, or keep watching
a file and replace any URL written to it with its cleaned form.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.rulesDir != "" {
				cfg.RulesDir = a.rulesDir
			}
			a.cfg = cfg
			log.Debugf("Command %v started", cmd.Name())
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", fmt.Sprintf("config file (default %s)", config.DefaultPath()))
	rootCmd.PersistentFlags().StringVar(&a.rulesDir, "rules-dir", "", "load matcher definitions from this directory instead of the builtin rules")

	rootCmd.AddCommand(
		newCleanCmd(a),
		newWatchCmd(a),
		newRulesCmd(a),
		newConfigPathCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// rules returns the effective rule set and where it came from: an explicit
// rules directory, the user's matchers directory if it exists, or the builtin
// rules.
func (a *app) rules() (*cleanurl.RuleSet, string, error) {
	if a.cfg.RulesDir != "" {
		rs, err := cleanurl.LoadDir(a.cfg.RulesDir)
		return rs, a.cfg.RulesDir, err
	}
	dir := config.UserMatchersDir()
	if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
		rs, err := cleanurl.LoadDir(dir)
		return rs, dir, err
	}
	rs, err := cleanurl.Builtin()
	return rs, "builtin", err
}

func (a *app) cleaner() (*cleanurl.Cleaner, error) {
	rs, source, err := a.rules()
	if err != nil {
		return nil, err
	}
	log.Debugf("Using %d matchers from %v", rs.Len(), source)
	return cleanurl.New(rs, cleanurl.NewHTTPRedirector(a.cfg.RedirectorOptions())), nil
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config-path",
		Short: "Print where configuration and user matchers are read from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config:   %s\n", config.DefaultPath())
			fmt.Fprintf(out, "matchers: %s\n", config.UserMatchersDir())
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "cleanurl %s\n", version)
			return nil
		},
	}
}
