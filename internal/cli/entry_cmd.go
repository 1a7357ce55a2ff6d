package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dstreuter/zeitlog/internal/cli/formatter"
	"github.com/dstreuter/zeitlog/internal/domain"
)

func newEntryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Manage stored time entries",
	}

	cmd.AddCommand(
		newEntryListCmd(app),
		newEntryAddCmd(app),
		newEntryEditCmd(app),
		newEntryRemoveCmd(app),
	)

	return cmd
}

func newEntryListCmd(app *App) *cobra.Command {
	var client string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List time entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := app.Backend.Entries(context.Background())
			if err != nil {
				return err
			}

			if client != "" {
				filtered := entries[:0]
				for _, e := range entries {
					if e.Client == client {
						filtered = append(filtered, e)
					}
				}
				entries = filtered
			}

			if len(entries) == 0 {
				fmt.Println("No entries found.")
				return nil
			}

			headers := []string{"ID", "CLIENT", "DATE", "START", "END", "NET", "TASKS"}
			rows := make([][]string, 0, len(entries))
			var totalNet int64
			for _, e := range entries {
				totalNet += e.NetMs()
				rows = append(rows, []string{
					formatter.TruncID(e.ID),
					e.Client,
					formatter.DayDate(e.Start),
					formatter.ClockTime(e.Start),
					formatter.ClockTime(e.End),
					formatter.Minutes(e.NetMs()),
					formatter.Dim(formatter.Preview(strings.ReplaceAll(e.Tasks, "\n", " | "), 40)),
				})
			}

			fmt.Print(formatter.RenderTable(headers, rows))
			fmt.Printf("\n%d entries, %s net\n", len(entries), formatter.Minutes(totalNet))
			return nil
		},
	}

	cmd.Flags().StringVar(&client, "client", "", "Filter by client name")

	return cmd
}

// parseClock parses "YYYY-MM-DD HH:MM" in local time into epoch ms.
func parseClock(s string) (int64, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local)
	if err != nil {
		return 0, fmt.Errorf("parsing %q: use \"YYYY-MM-DD HH:MM\"", s)
	}
	return t.UnixMilli(), nil
}

func newEntryAddCmd(app *App) *cobra.Command {
	var client, tasks, startStr, endStr string
	var skills []string
	var pauseMin int64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a time entry manually",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseClock(startStr)
			if err != nil {
				return err
			}
			end, err := parseClock(endStr)
			if err != nil {
				return err
			}

			entry, err := app.Backend.CreateEntry(context.Background(), &domain.TimeEntry{
				Client:  client,
				Skills:  skills,
				Tasks:   tasks,
				Start:   start,
				End:     end,
				PauseMs: pauseMin * 60_000,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Added entry %s (%s net)\n",
				formatter.TruncID(entry.ID), formatter.Minutes(entry.NetMs()))
			return nil
		},
	}

	cmd.Flags().StringVar(&client, "client", "", "Client name")
	cmd.Flags().StringVar(&startStr, "start", "", "Start time (YYYY-MM-DD HH:MM)")
	cmd.Flags().StringVar(&endStr, "end", "", "End time (YYYY-MM-DD HH:MM)")
	cmd.Flags().Int64Var(&pauseMin, "pause", 0, "Pause in minutes")
	cmd.Flags().StringVar(&tasks, "tasks", "", "Task notes")
	cmd.Flags().StringSliceVar(&skills, "skills", nil, "Skills used (comma-separated)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func newEntryEditCmd(app *App) *cobra.Command {
	var client, tasks, startStr, endStr string
	var skills []string
	var pauseMin int64

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit fields of a stored entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := &domain.EntryPatch{}
			if cmd.Flags().Changed("client") {
				patch.Client = &client
			}
			if cmd.Flags().Changed("tasks") {
				patch.Tasks = &tasks
			}
			if cmd.Flags().Changed("skills") {
				patch.Skills = &skills
			}
			if cmd.Flags().Changed("pause") {
				ms := pauseMin * 60_000
				patch.PauseMs = &ms
			}
			if cmd.Flags().Changed("start") {
				ms, err := parseClock(startStr)
				if err != nil {
					return err
				}
				patch.Start = &ms
			}
			if cmd.Flags().Changed("end") {
				ms, err := parseClock(endStr)
				if err != nil {
					return err
				}
				patch.End = &ms
			}

			entry, err := app.Backend.UpdateEntry(context.Background(), args[0], patch)
			if err != nil {
				return err
			}
			fmt.Printf("Updated entry %s (%s net)\n",
				formatter.TruncID(entry.ID), formatter.Minutes(entry.NetMs()))
			return nil
		},
	}

	cmd.Flags().StringVar(&client, "client", "", "Client name")
	cmd.Flags().StringVar(&startStr, "start", "", "Start time (YYYY-MM-DD HH:MM)")
	cmd.Flags().StringVar(&endStr, "end", "", "End time (YYYY-MM-DD HH:MM)")
	cmd.Flags().Int64Var(&pauseMin, "pause", 0, "Pause in minutes")
	cmd.Flags().StringVar(&tasks, "tasks", "", "Task notes")
	cmd.Flags().StringSliceVar(&skills, "skills", nil, "Skills used (comma-separated)")

	return cmd
}

func newEntryRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a stored entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Backend.DeleteEntry(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed entry %s\n", args[0])
			return nil
		},
	}
}
