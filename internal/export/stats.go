package export

import (
	"sort"

	"github.com/dstreuter/zeitlog/internal/domain"
)

// noClientLabel groups entries that were booked without a client name.
const noClientLabel = "—"

// ClientStat aggregates all entries booked against one client.
type ClientStat struct {
	Client  string
	Entries int
	GrossMs int64
	PauseMs int64
	NetMs   int64
	FirstMs int64
	LastMs  int64
}

// AvgNetMs is the mean net time per entry. Entries is at least 1 for
// any stat produced by ClientStats.
func (s ClientStat) AvgNetMs() int64 {
	return s.NetMs / int64(s.Entries)
}

// ClientStats folds entries into per-client totals, busiest client
// first (net time descending). First and last track entry start times.
func ClientStats(entries []*domain.TimeEntry) []ClientStat {
	byClient := make(map[string]*ClientStat)
	for _, e := range entries {
		key := e.Client
		if key == "" {
			key = noClientLabel
		}
		s := byClient[key]
		if s == nil {
			s = &ClientStat{Client: key, FirstMs: e.Start, LastMs: e.Start}
			byClient[key] = s
		}
		s.Entries++
		s.GrossMs += e.GrossMs()
		s.PauseMs += e.PauseMs
		s.NetMs += e.NetMs()
		if e.Start < s.FirstMs {
			s.FirstMs = e.Start
		}
		if e.Start > s.LastMs {
			s.LastMs = e.Start
		}
	}

	stats := make([]ClientStat, 0, len(byClient))
	for _, s := range byClient {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].NetMs != stats[j].NetMs {
			return stats[i].NetMs > stats[j].NetMs
		}
		return stats[i].Client < stats[j].Client
	})
	return stats
}
