package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/maynagashev/taskkeeper/internal/client"
)

const (
	defaultServerURL = "http://localhost:8080"
	configDirName    = ".taskkeeper"
	tokenFileName    = "token"
)

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗")+" "+err.Error())
		os.Exit(1)
	}
}

// app хранит зависимости CLI. Поля-функции подменяются в тестах.
type app struct {
	v               *viper.Viper
	in              *bufio.Reader
	readPassword    func() ([]byte, error)
	copyToClipboard func(string) error
	homeDir         func() (string, error)
	newClient       func(baseURL string) client.Client
}

func newApp() *app {
	return &app{
		v:  viper.New(),
		in: bufio.NewReader(os.Stdin),
		readPassword: func() ([]byte, error) {
			return term.ReadPassword(int(os.Stdin.Fd()))
		},
		copyToClipboard: clipboard.WriteAll,
		homeDir:         os.UserHomeDir,
		newClient:       client.NewHTTPClient,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "taskkeeper",
		Short: "Клиент taskkeeper: задачи, заметки и хранилище паролей",
		Long: `taskkeeper - консольный клиент сервера taskkeeper.

Начало работы:
  taskkeeper register            Создать учетную запись
  taskkeeper login               Войти
  taskkeeper notes list          Показать заметки
  taskkeeper vault reveal ID     Показать секрет`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("server", defaultServerURL, "Адрес сервера (env: TASKKEEPER_SERVER)")
	_ = a.v.BindPFlag("server", root.PersistentFlags().Lookup("server"))
	a.v.SetEnvPrefix("TASKKEEPER")
	a.v.AutomaticEnv()

	root.AddCommand(
		newRegisterCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newNotesCmd(a),
		newVaultCmd(a),
		newTasksCmd(a),
	)
	return root
}

// --- Сессия --- //

func (a *app) tokenPath() (string, error) {
	home, err := a.homeDir()
	if err != nil {
		return "", fmt.Errorf("не удалось определить домашний каталог: %w", err)
	}
	return filepath.Join(home, configDirName, tokenFileName), nil
}

func (a *app) saveToken(token string) error {
	path, err := a.tokenPath()
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("не удалось создать каталог %s: %w", filepath.Dir(path), err)
	}
	if err = os.WriteFile(path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("не удалось сохранить токен: %w", err)
	}
	return nil
}

func (a *app) loadToken() (string, error) {
	path, err := a.tokenPath()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", errors.New("вы не вошли, выполните taskkeeper login")
	}
	if err != nil {
		return "", fmt.Errorf("не удалось прочитать токен: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (a *app) removeToken() error {
	path, err := a.tokenPath()
	if err != nil {
		return err
	}
	if err = os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("не удалось удалить токен: %w", err)
	}
	return nil
}

func (a *app) anonymousClient() client.Client {
	return a.newClient(a.v.GetString("server"))
}

// authedClient возвращает клиента с сохраненным токеном.
func (a *app) authedClient() (client.Client, error) {
	token, err := a.loadToken()
	if err != nil {
		return nil, err
	}
	c := a.anonymousClient()
	c.SetAuthToken(token)
	return c, nil
}

// explain делает ошибку API понятнее для пользователя.
func explain(err error) error {
	if errors.Is(err, client.ErrAuthorization) {
		return fmt.Errorf("%w (возможно, сессия истекла, выполните taskkeeper login)", err)
	}
	return err
}

// --- Ввод --- //

func (a *app) prompt(w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label+": ")
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *app) promptPassword(w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label+": ")
	pw, err := a.readPassword()
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("ошибка чтения пароля: %w", err)
	}
	return string(pw), nil
}

// confirm спрашивает подтверждение. Пустой ответ считается отказом.
func (a *app) confirm(w io.Writer, question string) (bool, error) {
	answer, err := a.prompt(w, question+" [y/N]")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes" || answer == "д" || answer == "да", nil
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.GreenString("✓")+" "+fmt.Sprintf(format, args...))
}
