package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/getlantern/cleanurl"
	"github.com/spf13/cobra"
)

var (
	nameStyle   = lipgloss.NewStyle().Bold(true)
	hostStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#005FAF", Dark: "#5FAFFF"})
	mutedStyle  = lipgloss.NewStyle().Faint(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#008700", Dark: "#5FD75F"})
	indentStyle = lipgloss.NewStyle().PaddingLeft(2)
)

func newRulesCmd(a *app) *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect matcher rules",
	}
	rulesCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Print the rules in effect, in evaluation order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				rs, source, err := a.rules()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d matchers from %s", rs.Len(), source)))
				for _, m := range rs.Matchers() {
					printMatcher(out, m)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "check DIR",
			Short: "Validate the matcher definitions in a directory",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				rs, err := cleanurl.LoadDir(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("%d matchers OK", rs.Len())))
				return nil
			},
		},
	)
	return rulesCmd
}

func printMatcher(out io.Writer, m cleanurl.Matcher) {
	header := nameStyle.Render(m.Name)
	switch {
	case m.IsGlobal():
		header += " " + mutedStyle.Render("(all hosts)")
	case len(m.Hosts) == 0:
		header += " " + mutedStyle.Render("(no hosts)")
	default:
		header += " " + hostStyle.Render(strings.Join(m.Hosts, ", "))
	}
	if !m.TerminatesMatching {
		header += " " + mutedStyle.Render("[continues]")
	}
	fmt.Fprintln(out, header)

	var lines []string
	for _, p := range m.ParamMatchers {
		lines = append(lines, fmt.Sprintf("?%s %s", p.Name, p.Operation))
	}
	for _, p := range m.PathMatchers {
		lines = append(lines, fmt.Sprintf("/%s %s", p.Name, p.Operation))
	}
	if len(lines) > 0 {
		fmt.Fprintln(out, indentStyle.Render(strings.Join(lines, "\n")))
	}
}
