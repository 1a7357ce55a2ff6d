// Package export renders stored time entries into the two outbound
// formats: a spreadsheet-friendly CSV file and a short mail summary.
// Both are pure projections over a slice of entries.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/dstreuter/zeitlog/internal/domain"
)

// csvHeader is fixed. Minute columns are rounded, the hh:mm:ss column
// carries the exact net duration.
var csvHeader = []string{
	"ID", "Client", "Date", "Start", "End",
	"Gross_Min", "Pause_Min", "Net_Min", "Net (hh:mm:ss)",
	"Skills", "Tasks",
}

// CSV renders entries semicolon-delimited with a UTF-8 BOM so that
// spreadsheet imports pick up the encoding. Text columns are always
// quoted; numeric columns never are.
func CSV(entries []*domain.TimeEntry) string {
	var b strings.Builder
	b.WriteString("\uFEFF")
	b.WriteString(strings.Join(csvHeader, ";"))
	for _, e := range entries {
		start := time.UnixMilli(e.Start)
		end := time.UnixMilli(e.End)
		fields := []string{
			e.ID,
			quote(e.Client),
			start.Format("2006-01-02"),
			start.Format("15:04"),
			end.Format("15:04"),
			fmt.Sprintf("%d", roundMin(e.GrossMs())),
			fmt.Sprintf("%d", roundMin(e.PauseMs)),
			fmt.Sprintf("%d", roundMin(e.NetMs())),
			FormatDuration(e.NetMs()),
			quote(strings.Join(e.Skills, "; ")),
			quote(strings.ReplaceAll(e.Tasks, "\n", " | ")),
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(fields, ";"))
	}
	return b.String()
}

// FormatDuration renders a millisecond duration as hh:mm:ss. Hours do
// not wrap, so long sessions stay readable.
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	s := ms / 1000
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, s%3600/60, s%60)
}

func roundMin(ms int64) int64 {
	return (ms + 30_000) / 60_000
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
