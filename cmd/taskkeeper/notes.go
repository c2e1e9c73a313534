package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/maynagashev/taskkeeper/internal/models"
)

const listTimeLayout = "2006-01-02 15:04"

func newNotesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Заметки: незакрепленные удаляются через 5 дней",
	}
	cmd.AddCommand(
		newNotesListCmd(a),
		newNotesAddCmd(a),
		newNotesPinCmd(a, true),
		newNotesPinCmd(a, false),
		newNotesRemoveCmd(a),
	)
	return cmd
}

func newNotesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Показать действующие заметки",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.authedClient()
			if err != nil {
				return err
			}
			notes, err := c.ListNotes(ctxOf(cmd))
			if err != nil {
				return explain(err)
			}

			out := cmd.OutOrStdout()
			if len(notes) == 0 {
				fmt.Fprintln(out, color.YellowString("!")+" Заметок нет")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tЗАГОЛОВОК\tИСТЕКАЕТ")
			for _, n := range notes {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", n.ID, n.Title, expiryLabel(n))
			}
			return tw.Flush()
		},
	}
}

func expiryLabel(n models.Note) string {
	if n.Pinned || n.ExpiresAt == nil {
		return color.CyanString("закреплена")
	}
	return n.ExpiresAt.Local().Format(listTimeLayout)
}

func newNotesAddCmd(a *app) *cobra.Command {
	var req models.CreateNoteRequest

	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Создать заметку",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authedClient()
			if err != nil {
				return err
			}
			req.Title = args[0]
			note, err := c.CreateNote(ctxOf(cmd), req)
			if err != nil {
				return explain(err)
			}
			success(cmd.OutOrStdout(), "Заметка создана: %s (%s)", note.ID, expiryLabel(*note))
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Content, "content", "c", "", "Текст заметки")
	cmd.Flags().BoolVar(&req.Pinned, "pin", false, "Закрепить заметку")
	return cmd
}

func newNotesPinCmd(a *app, pinned bool) *cobra.Command {
	use, short, done := "pin ID", "Закрепить заметку", "Заметка закреплена"
	if !pinned {
		use, short, done = "unpin ID", "Открепить заметку (удалится через 5 дней)", "Заметка откреплена"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.authedClient()
			if err != nil {
				return err
			}
			note, err := c.SetNotePinned(ctxOf(cmd), id, pinned)
			if err != nil {
				return explain(err)
			}
			success(cmd.OutOrStdout(), "%s: %s", done, expiryLabel(*note))
			return nil
		},
	}
}

func newNotesRemoveCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rm ID",
		Short: "Удалить заметку",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.authedClient()
			if err != nil {
				return err
			}
			if !yes {
				ok, confirmErr := a.confirm(cmd.OutOrStdout(), "Удалить заметку "+id.String()+"?")
				if confirmErr != nil || !ok {
					return confirmErr
				}
			}
			if err = c.DeleteNote(ctxOf(cmd), id); err != nil {
				return explain(err)
			}
			success(cmd.OutOrStdout(), "Заметка удалена")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Не спрашивать подтверждение")
	return cmd
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("некорректный ID %q", raw)
	}
	return id, nil
}
