package cli

import (
	"context"
	"sort"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/dstreuter/zeitlog/internal/domain"
)

// finishInputs holds the editable fields confirmed before finishing.
// Skills are entered comma-separated and split on submission.
type finishInputs struct {
	Client string
	Skills string
	Tasks  string
}

func (f *finishInputs) fromSession(s *domain.ActiveSession) {
	f.Client = s.Client
	f.Skills = strings.Join(s.Skills, ", ")
	f.Tasks = s.Tasks
}

// patch returns the session patch applying the confirmed values.
func (f *finishInputs) patch() *domain.SessionPatch {
	client := strings.TrimSpace(f.Client)
	skills := splitList(f.Skills)
	tasks := f.Tasks
	return &domain.SessionPatch{Client: &client, Skills: &skills, Tasks: &tasks}
}

func splitList(s string) []string {
	parts := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// finishForm builds the confirmation form shown before a session is
// turned into an entry. Known clients are offered as suggestions but
// free input stays possible.
func finishForm(in *finishInputs, known []string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Client").
				Placeholder("client name").
				Suggestions(known).
				Value(&in.Client),
			huh.NewInput().
				Title("Skills (comma-separated)").
				Placeholder("go, sql").
				Value(&in.Skills),
			huh.NewText().
				Title("Tasks").
				Value(&in.Tasks),
		),
	).WithTheme(zeitHuhTheme()).WithShowHelp(false)
}

// knownClients derives the client suggestion list from stored entries,
// most recently used first.
func knownClients(ctx context.Context, app *App) ([]string, error) {
	entries, err := app.Backend.Entries(ctx)
	if err != nil {
		return nil, err
	}
	lastSeen := map[string]int{}
	for i, e := range entries {
		if e.Client != "" {
			lastSeen[e.Client] = i
		}
	}
	clients := make([]string, 0, len(lastSeen))
	for c := range lastSeen {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool {
		return lastSeen[clients[i]] > lastSeen[clients[j]]
	})
	return clients, nil
}
