package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"archivemon/internal/deps"
	"archivemon/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check that pam, psradd and the configured directories are usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := ctx.inspectConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				location := s.Resolved
				if location == "" {
					location = s.Detail
				}
				rows = append(rows, []string{
					s.Name,
					s.Command,
					statusCell(yesNo(s.Available), s.Available, colorize),
					location,
					s.Description,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Tool", "Command", "Available", "Location", "Purpose"},
				rows,
				nil,
			))

			checks := preflight.RunAll(cfg)
			dirRows := make([][]string, 0, len(checks))
			for _, c := range checks {
				dirRows = append(dirRows, []string{
					c.Name,
					statusCell(yesNo(c.Passed), c.Passed, colorize),
					c.Detail,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Directory", "Ready", "Detail"}, dirRows, nil))

			if missing := deps.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required tool(s) unavailable", len(missing))
			}
			return nil
		},
	}
}
