package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/maynagashev/taskkeeper/internal/models"
)

func newVaultCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Хранилище паролей",
	}
	cmd.AddCommand(
		newVaultListCmd(a),
		newVaultAddCmd(a),
		newVaultRevealCmd(a),
		newVaultRemoveCmd(a),
	)
	return cmd
}

func newVaultListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Показать записи (секреты скрыты)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.authedClient()
			if err != nil {
				return err
			}
			entries, err := c.ListVault(ctxOf(cmd))
			if err != nil {
				return explain(err)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, color.YellowString("!")+" Хранилище пусто")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tНАЗВАНИЕ\tОПИСАНИЕ\tСЕКРЕТ")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Title, e.Description, e.Secret)
			}
			return tw.Flush()
		},
	}
}

func newVaultAddCmd(a *app) *cobra.Command {
	var req models.CreateVaultEntryRequest

	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Сохранить секрет (вводится без эха)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authedClient()
			if err != nil {
				return err
			}
			req.Title = args[0]
			if req.Secret, err = a.promptPassword(cmd.OutOrStdout(), "Секрет"); err != nil {
				return err
			}
			if req.Secret == "" {
				return errors.New("секрет не может быть пустым")
			}

			entry, err := c.CreateVaultEntry(ctxOf(cmd), req)
			if err != nil {
				return explain(err)
			}
			success(cmd.OutOrStdout(), "Запись сохранена: %s", entry.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Description, "description", "d", "", "Описание")
	return cmd
}

func newVaultRevealCmd(a *app) *cobra.Command {
	var copyToClipboard bool

	cmd := &cobra.Command{
		Use:   "reveal ID",
		Short: "Показать секрет (нужен пароль учетной записи)",
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
			out := cmd.OutOrStdout()
			password, err := a.promptPassword(out, "Пароль учетной записи")
			if err != nil {
				return err
			}

			plaintext, err := c.RevealVaultEntry(ctxOf(cmd), id, password)
			if err != nil {
				return err
			}

			if copyToClipboard {
				if err = a.copyToClipboard(plaintext); err != nil {
					return fmt.Errorf("не удалось скопировать в буфер обмена: %w", err)
				}
				success(out, "Секрет скопирован в буфер обмена")
				return nil
			}
			fmt.Fprintln(out, plaintext)
			return nil
		},
	}

	cmd.Flags().BoolVar(&copyToClipboard, "copy", false, "Скопировать в буфер обмена вместо вывода")
	return cmd
}

func newVaultRemoveCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rm ID",
		Short: "Удалить запись",
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
				ok, confirmErr := a.confirm(cmd.OutOrStdout(), "Удалить запись "+id.String()+"? Восстановить ее будет нельзя.")
				if confirmErr != nil || !ok {
					return confirmErr
				}
			}
			if err = c.DeleteVaultEntry(ctxOf(cmd), id); err != nil {
				return explain(err)
			}
			success(cmd.OutOrStdout(), "Запись удалена")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Не спрашивать подтверждение")
	return cmd
}
