package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dstreuter/zeitlog/internal/cli/formatter"
	"github.com/dstreuter/zeitlog/internal/export"
)

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Per-client totals across all entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := app.Backend.Entries(context.Background())
			if err != nil {
				return err
			}
			stats := export.ClientStats(entries)
			if len(stats) == 0 {
				fmt.Println("No entries found.")
				return nil
			}

			headers := []string{"CLIENT", "ENTRIES", "GROSS", "PAUSE", "NET", "AVG", "FIRST", "LAST"}
			rows := make([][]string, 0, len(stats))
			for _, s := range stats {
				rows = append(rows, []string{
					s.Client,
					strconv.Itoa(s.Entries),
					export.FormatDuration(s.GrossMs),
					export.FormatDuration(s.PauseMs),
					export.FormatDuration(s.NetMs),
					export.FormatDuration(s.AvgNetMs()),
					formatter.DayDate(s.FirstMs),
					formatter.DayDate(s.LastMs),
				})
			}

			fmt.Print(formatter.RenderTable(headers, rows))
			return nil
		},
	}
}
