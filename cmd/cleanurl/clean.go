package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/getlantern/cleanurl"
	"github.com/spf13/cobra"
)

func newCleanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clean [URL...]",
		Short: "Clean URLs given as arguments or one per line on standard input",
		Long: `Clean prints each input with tracking parameters removed. Inputs that are
not URLs, or need no cleaning, are printed unchanged.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.cleaner()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args, err = readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, text := range args {
				res, err := c.Clean(cmd.Context(), text)
				if err != nil {
					log.Errorf("Unable to clean %v: %v", text, err)
					failed++
				}
				if res.Status == cleanurl.Cleaned {
					fmt.Fprintln(out, res.URL)
				} else {
					fmt.Fprintln(out, strings.TrimSpace(text))
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d inputs could not be cleaned", failed, len(args))
			}
			return nil
		},
	}
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
