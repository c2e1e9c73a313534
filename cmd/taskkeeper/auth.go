package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/maynagashev/taskkeeper/internal/models"
)

func newRegisterCmd(a *app) *cobra.Command {
	var req models.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Создать учетную запись",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			var err error
			if req.Email == "" {
				if req.Email, err = a.prompt(out, "Email"); err != nil {
					return err
				}
			}
			if req.FirstName == "" {
				if req.FirstName, err = a.prompt(out, "Имя"); err != nil {
					return err
				}
			}
			if req.LastName == "" {
				if req.LastName, err = a.prompt(out, "Фамилия"); err != nil {
					return err
				}
			}
			if req.Password, err = a.promptPassword(out, "Пароль"); err != nil {
				return err
			}
			repeat, err := a.promptPassword(out, "Повторите пароль")
			if err != nil {
				return err
			}
			if repeat != req.Password {
				return errors.New("пароли не совпадают")
			}

			resp, err := a.anonymousClient().Register(ctxOf(cmd), req)
			if err != nil {
				return err
			}
			if err = a.saveToken(resp.Token); err != nil {
				return err
			}
			success(out, "Учетная запись %s создана, вход выполнен", resp.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Email")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "Имя")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Фамилия")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Войти и сохранить токен",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			var err error
			if email == "" {
				if email, err = a.prompt(out, "Email"); err != nil {
					return err
				}
			}
			password, err := a.promptPassword(out, "Пароль")
			if err != nil {
				return err
			}

			resp, err := a.anonymousClient().Login(ctxOf(cmd), email, password)
			if err != nil {
				return err
			}
			if err = a.saveToken(resp.Token); err != nil {
				return err
			}
			success(out, "Вход выполнен: %s", resp.User.DisplayName())
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Удалить сохраненный токен",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.removeToken(); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Выход выполнен")
			return nil
		},
	}
}
