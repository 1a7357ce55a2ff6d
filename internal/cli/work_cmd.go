package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dstreuter/zeitlog/internal/cli/formatter"
	"github.com/dstreuter/zeitlog/internal/domain"
	"github.com/dstreuter/zeitlog/internal/export"
)

func newStartCmd(app *App) *cobra.Command {
	var client, tasks string
	var skills []string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a work session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			sess, err := app.Backend.Start(ctx)
			if err != nil {
				return err
			}

			patch := &domain.SessionPatch{}
			if client != "" {
				patch.Client = &client
			}
			if tasks != "" {
				patch.Tasks = &tasks
			}
			if len(skills) > 0 {
				patch.Skills = &skills
			}
			if !patch.Empty() {
				if sess, err = app.Backend.UpdateActive(ctx, patch); err != nil {
					return err
				}
			}

			fmt.Printf("Started session %s at %s\n",
				formatter.TruncID(sess.ID), formatter.ClockTime(sess.Start))
			return nil
		},
	}

	cmd.Flags().StringVar(&client, "client", "", "Client name")
	cmd.Flags().StringVar(&tasks, "tasks", "", "Initial task notes")
	cmd.Flags().StringSliceVar(&skills, "skills", nil, "Skills used (comma-separated)")

	return cmd
}

func newPauseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the active session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.Backend.Pause(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Paused (accumulated pause %s)\n",
				formatter.Minutes(sess.EffectivePauseMs(time.Now().UnixMilli())))
			return nil
		},
	}
}

func newResumeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume a paused session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.Backend.Resume(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Resumed (total pause %s)\n", formatter.Minutes(sess.PauseMs))
			return nil
		},
	}
}

func newFinishCmd(app *App) *cobra.Command {
	var client, tasks string
	var skills []string

	cmd := &cobra.Command{
		Use:   "finish",
		Short: "Finish the active session and store a time entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			patch := &domain.SessionPatch{}
			if cmd.Flags().Changed("client") {
				patch.Client = &client
			}
			if cmd.Flags().Changed("tasks") {
				patch.Tasks = &tasks
			}
			if cmd.Flags().Changed("skills") {
				patch.Skills = &skills
			}

			// Without flags on a terminal, confirm the details in a form.
			if patch.Empty() && app.interactive() {
				sess, err := app.Backend.Active(ctx)
				if err != nil {
					return err
				}
				if sess == nil {
					return domain.ErrNoActiveSession
				}
				known, _ := knownClients(ctx, app)
				var inputs finishInputs
				inputs.fromSession(sess)
				form := finishForm(&inputs, known)
				if err := form.Run(); err != nil {
					return err
				}
				patch = inputs.patch()
			}

			if !patch.Empty() {
				if _, err := app.Backend.UpdateActive(ctx, patch); err != nil {
					return err
				}
			}

			entry, err := app.Backend.Finish(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Finished: %s net %s (%s)\n",
				formatter.TruncID(entry.ID),
				export.FormatDuration(entry.NetMs()),
				entry.Client)
			return nil
		},
	}

	cmd.Flags().StringVar(&client, "client", "", "Client name")
	cmd.Flags().StringVar(&tasks, "tasks", "", "Task notes (replaces existing)")
	cmd.Flags().StringSliceVar(&skills, "skills", nil, "Skills used (comma-separated)")

	return cmd
}

func newCancelCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Discard the active session without storing an entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Backend.Cancel(context.Background()); err != nil {
				return err
			}
			fmt.Println("Session discarded.")
			return nil
		},
	}
}

func newNoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "note TEXT...",
		Short: "Append a task note to the active session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line := strings.Join(args, " ")
			sess, err := app.Backend.UpdateActive(context.Background(),
				&domain.SessionPatch{AddTask: line})
			if err != nil {
				return err
			}
			fmt.Printf("Noted (%d lines)\n", len(strings.Split(sess.Tasks, "\n")))
			return nil
		},
	}
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active session and backend mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.Backend.Active(context.Background())
			if err != nil {
				return err
			}

			mode := "local"
			if app.Adapter != nil {
				mode = app.Adapter.Mode().String()
			}

			if sess == nil {
				fmt.Printf("No active session. Backend: %s\n", mode)
				return nil
			}

			now := time.Now().UnixMilli()
			pause := sess.EffectivePauseMs(now)
			net := now - sess.Start - pause

			fmt.Println(formatter.StateIndicator(sess.Paused()))
			fmt.Printf("  Started   %s %s\n",
				formatter.DayDate(sess.Start), formatter.ClockTime(sess.Start))
			fmt.Printf("  Worked    %s\n", export.FormatDuration(net))
			fmt.Printf("  Paused    %s\n", export.FormatDuration(pause))
			if sess.Client != "" {
				fmt.Printf("  Client    %s\n", sess.Client)
			}
			if len(sess.Skills) > 0 {
				fmt.Printf("  Skills    %s\n", strings.Join(sess.Skills, ", "))
			}
			for i, line := range strings.Split(sess.Tasks, "\n") {
				if line == "" {
					continue
				}
				label := "  Tasks  "
				if i > 0 {
					label = "         "
				}
				fmt.Printf("%s  %s\n", label, line)
			}
			if now-sess.Start >= longSessionMs && !sess.AcknowledgedBreak {
				fmt.Println(formatter.StyleRed.Render("  Over 6 hours without an acknowledged break."))
			}
			fmt.Printf("  Backend   %s\n", mode)
			return nil
		},
	}
}
