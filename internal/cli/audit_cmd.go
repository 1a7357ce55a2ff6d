package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dstreuter/zeitlog/internal/cli/formatter"
)

func newAuditCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the local store's mutation log",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Audits == nil {
				return fmt.Errorf("the configured local store keeps no audit log")
			}

			records, err := app.Audits.AuditLog(context.Background())
			if err != nil {
				return err
			}
			if limit > 0 && len(records) > limit {
				records = records[len(records)-limit:]
			}
			if len(records) == 0 {
				fmt.Println("No audit records.")
				return nil
			}

			headers := []string{"WHEN", "ACTION", "ENTRY", "DETAIL"}
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				rows = append(rows, []string{
					formatter.DayDate(r.TS) + " " + formatter.ClockTime(r.TS),
					r.Action,
					formatter.TruncID(r.EntryID),
					formatter.Dim(formatter.Preview(r.Detail, 48)),
				})
			}
			fmt.Print(formatter.RenderTable(headers, rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Show only the most recent N records (0 = all)")

	return cmd
}
