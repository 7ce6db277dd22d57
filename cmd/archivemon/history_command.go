package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"archivemon/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var session string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently processed archives from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := ctx.inspectConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			path := cfg.JournalPath()
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(out, "No journal at %s\n", path)
				return nil
			}

			store, err := journal.Open(path)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), session, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No archives recorded")
				return nil
			}

			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				ok := e.Outcome == journal.OutcomeProcessed
				rows = append(rows, []string{
					strconv.FormatInt(e.ID, 10),
					shortID(e.SessionID),
					strconv.FormatInt(e.Seq, 10),
					filepath.Base(e.ArchivePath),
					yesNo(e.Seeded),
					statusCell(string(e.Outcome), ok, colorize),
					strconv.Itoa(e.ToolFailures),
					e.Duration().Round(time.Millisecond).String(),
					e.FinishedAt.Local().Format("2006-01-02 15:04:05"),
					e.ErrorMessage,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Session", "Seq", "Archive", "Seeded", "Outcome", "Tool Failures", "Duration", "Finished", "Error"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show")
	cmd.Flags().StringVar(&session, "session", "", "Only show entries from this session id")
	return cmd
}
