package export

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dstreuter/zeitlog/internal/domain"
)

// mailSummaryLimit caps the summary at the most recent entries so the
// body stays below mailto URL length limits.
const mailSummaryLimit = 20

// MailSummary renders one line per entry, newest entries last, at most
// mailSummaryLimit of them.
func MailSummary(entries []*domain.TimeEntry) string {
	if len(entries) > mailSummaryLimit {
		entries = entries[len(entries)-mailSummaryLimit:]
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		start := time.UnixMilli(e.Start)
		end := time.UnixMilli(e.End)
		lines = append(lines, fmt.Sprintf("%s %s-%s net:%dmin (%s)",
			start.Format("02.01.2006"),
			start.Format("15:04"),
			end.Format("15:04"),
			roundMin(e.NetMs()),
			e.Client,
		))
	}
	return strings.Join(lines, "\r\n")
}

// MailtoURL builds a mailto: link carrying the summary as the body.
func MailtoURL(to, subject string, entries []*domain.TimeEntry) string {
	return fmt.Sprintf("mailto:%s?subject=%s&body=%s",
		to, escapeQuery(subject), escapeQuery(MailSummary(entries)))
}

// escapeQuery percent-encodes for a mailto query part. QueryEscape's
// plus-for-space convention is not understood by mail clients.
func escapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
