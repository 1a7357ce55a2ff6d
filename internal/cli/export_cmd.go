package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dstreuter/zeitlog/internal/export"
)

func newExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored entries",
	}

	cmd.AddCommand(
		newExportCsvCmd(app),
		newExportMailCmd(app),
	)

	return cmd
}

func newExportCsvCmd(app *App) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Write all entries as semicolon-delimited CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := app.Backend.Entries(context.Background())
			if err != nil {
				return err
			}

			out := export.CSV(entries)
			if outPath == "" {
				fmt.Print(out)
				return nil
			}
			if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", outPath, err)
			}
			fmt.Printf("Wrote %d entries to %s\n", len(entries), outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")

	return cmd
}

func newExportMailCmd(app *App) *cobra.Command {
	var to, subject string

	cmd := &cobra.Command{
		Use:   "mail",
		Short: "Print a mail summary of the most recent entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := app.Backend.Entries(context.Background())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No entries to report.")
				return nil
			}

			fmt.Println(export.MailSummary(entries))
			if to != "" {
				fmt.Printf("\n%s\n", export.MailtoURL(to, subject, entries))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient address for a mailto link")
	cmd.Flags().StringVar(&subject, "subject", "Time tracking export", "Mail subject")

	return cmd
}
