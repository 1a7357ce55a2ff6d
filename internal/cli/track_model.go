package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/dstreuter/zeitlog/internal/cli/formatter"
	"github.com/dstreuter/zeitlog/internal/domain"
	"github.com/dstreuter/zeitlog/internal/export"
	"github.com/dstreuter/zeitlog/internal/track"
)

// longSessionMs is the gross elapsed time after which the tracker nags
// for a break until it is acknowledged. Pauses do not delay the nag.
const longSessionMs int64 = 6 * 60 * 60 * 1000

type tickMsg time.Time

// sessionMsg carries the result of a backend lifecycle call.
type sessionMsg struct {
	sess *domain.ActiveSession
	err  error
}

type finishedMsg struct {
	entry *domain.TimeEntry
	err   error
}

type trackKeys struct {
	Start  key.Binding
	Pause  key.Binding
	Resume key.Binding
	Ack    key.Binding
	Note   key.Binding
	Finish key.Binding
	Cancel key.Binding
	Quit   key.Binding
}

func (k trackKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Pause, k.Resume, k.Note, k.Finish, k.Cancel, k.Quit}
}

func (k trackKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Pause, k.Resume, k.Ack},
		{k.Note, k.Finish, k.Cancel, k.Quit},
	}
}

func newTrackKeys() trackKeys {
	return trackKeys{
		Start:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		Pause:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
		Resume: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resume")),
		Ack:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "acknowledge break")),
		Note:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "note")),
		Finish: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "finish")),
		Cancel: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cancel")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type trackForm int

const (
	formNone trackForm = iota
	formFinish
	formNote
)

// trackModel is the bubbletea model for the live tracker. The session
// view is shared with the background reconciler, so remote pause state
// shows up between ticks without local polling.
type trackModel struct {
	app     *App
	view    *track.SessionView
	batcher *track.Batcher
	now     func() time.Time

	// notify pokes the reconciler for an immediate canonical pull, the
	// terminal regaining focus standing in for the tab becoming visible.
	notify func()

	keys trackKeys
	help help.Model

	// Form inputs live behind pointers: the model is a value and huh
	// mutates the inputs through the form while copies are made.
	formKind     trackForm
	form         *huh.Form
	finishInputs *finishInputs
	noteInput    *string

	status   string
	err      error
	finished *domain.TimeEntry
	quitting bool
}

func newTrackModel(app *App, view *track.SessionView, batcher *track.Batcher, notify func()) trackModel {
	return trackModel{
		app:     app,
		view:    view,
		batcher: batcher,
		now:     time.Now,
		notify:  notify,
		keys:    newTrackKeys(),
		help:    help.New(),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m trackModel) Init() tea.Cmd {
	return tea.Batch(m.fetchActive(), tick())
}

func (m trackModel) fetchActive() tea.Cmd {
	return func() tea.Msg {
		sess, err := m.app.Backend.Active(context.Background())
		return sessionMsg{sess: sess, err: err}
	}
}

func (m trackModel) lifecycle(op func(context.Context) (*domain.ActiveSession, error)) tea.Cmd {
	return func() tea.Msg {
		sess, err := op(context.Background())
		return sessionMsg{sess: sess, err: err}
	}
}

func (m trackModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		if m.quitting {
			return m, nil
		}
		return m, tick()

	case tea.FocusMsg:
		if m.notify != nil {
			m.notify()
		}
		return m, nil

	case sessionMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.status = ""
		if msg.sess == nil {
			m.view.Clear()
		} else {
			m.view.Set(msg.sess)
		}
		return m, nil

	case finishedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.finished = msg.entry
		m.view.Clear()
		m.quitting = true
		return m, tea.Quit

	case tea.KeyMsg:
		if m.formKind != formNone {
			return m.updateForm(msg)
		}
		return m.handleKey(msg)
	}

	if m.formKind != formNone {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m trackModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sess := m.view.Get()

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.batcher.Flush(context.Background())
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Start):
		if sess != nil {
			m.status = "A session is already running."
			return m, nil
		}
		return m, m.lifecycle(m.app.Backend.Start)

	case key.Matches(msg, m.keys.Pause):
		if sess == nil {
			return m, nil
		}
		return m, m.lifecycle(m.app.Backend.Pause)

	case key.Matches(msg, m.keys.Resume):
		if sess == nil {
			return m, nil
		}
		return m, m.lifecycle(m.app.Backend.Resume)

	case key.Matches(msg, m.keys.Ack):
		if sess == nil {
			return m, nil
		}
		m.batcher.SetAckBreak(true)
		m.status = "Break acknowledged."
		return m, nil

	case key.Matches(msg, m.keys.Note):
		if sess == nil {
			return m, nil
		}
		m.noteInput = new(string)
		m.formKind = formNote
		m.form = noteForm(m.noteInput)
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Finish):
		if sess == nil {
			return m, nil
		}
		m.batcher.Flush(context.Background())
		m.finishInputs = &finishInputs{}
		m.finishInputs.fromSession(sess)
		known, _ := knownClients(context.Background(), m.app)
		m.formKind = formFinish
		m.form = finishForm(m.finishInputs, known)
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Cancel):
		if sess == nil {
			return m, nil
		}
		return m, func() tea.Msg {
			if err := m.app.Backend.Cancel(context.Background()); err != nil {
				return sessionMsg{err: err}
			}
			return sessionMsg{sess: nil}
		}
	}
	return m, nil
}

func noteForm(value *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Task note").
				Value(value),
		),
	).WithTheme(zeitHuhTheme()).WithShowHelp(false)
}

func (m trackModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		kind := m.formKind
		m.formKind = formNone
		m.form = nil
		switch kind {
		case formNote:
			line := *m.noteInput
			return m, func() tea.Msg {
				// The batcher appends to the shared view optimistically.
				if err := m.batcher.AddTask(context.Background(), line); err != nil {
					return sessionMsg{err: err}
				}
				return sessionMsg{sess: m.view.Get()}
			}
		case formFinish:
			patch := m.finishInputs.patch()
			return m, func() tea.Msg {
				ctx := context.Background()
				if _, err := m.app.Backend.UpdateActive(ctx, patch); err != nil {
					return finishedMsg{err: err}
				}
				entry, err := m.app.Backend.Finish(ctx)
				return finishedMsg{entry: entry, err: err}
			}
		}
		return m, nil

	case huh.StateAborted:
		m.formKind = formNone
		m.form = nil
		return m, nil
	}

	return m, cmd
}

func (m trackModel) View() string {
	if m.quitting {
		if m.finished != nil {
			return fmt.Sprintf("Finished: %s net %s (%s)\n",
				formatter.TruncID(m.finished.ID),
				export.FormatDuration(m.finished.NetMs()),
				m.finished.Client)
		}
		return ""
	}

	var b strings.Builder
	b.WriteString(formatter.Header("zeitlog"))
	b.WriteString("\n\n")

	if m.form != nil {
		b.WriteString(m.form.View())
		return b.String()
	}

	sess := m.view.Get()
	if sess == nil {
		b.WriteString(formatter.Dim("No active session."))
	} else {
		now := m.now().UnixMilli()
		pause := sess.EffectivePauseMs(now)
		net := now - sess.Start - pause

		b.WriteString(formatter.StateIndicator(sess.Paused()))
		b.WriteString("\n\n")
		b.WriteString("  " + formatter.StyleBold.Render(export.FormatDuration(net)))
		if pause > 0 {
			b.WriteString(formatter.Dim(fmt.Sprintf("  (pause %s)", export.FormatDuration(pause))))
		}
		b.WriteString("\n")
		if sess.Client != "" {
			b.WriteString(fmt.Sprintf("  %s %s\n", formatter.Dim("client"), sess.Client))
		}
		if len(sess.Skills) > 0 {
			b.WriteString(fmt.Sprintf("  %s %s\n", formatter.Dim("skills"), strings.Join(sess.Skills, ", ")))
		}
		if sess.Tasks != "" {
			for _, line := range strings.Split(sess.Tasks, "\n") {
				b.WriteString(fmt.Sprintf("  %s %s\n", formatter.Dim("·"), line))
			}
		}
		if now-sess.Start >= longSessionMs && !sess.AcknowledgedBreak {
			b.WriteString("\n")
			b.WriteString(formatter.StyleWarnBanner.Render("Over 6 hours of work. Take a break (a to acknowledge)."))
			b.WriteString("\n")
		}
	}

	if m.status != "" {
		b.WriteString("\n" + formatter.Dim(m.status) + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + formatter.StyleRed.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}
