package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maynagashev/taskkeeper/internal/config"
	"github.com/maynagashev/taskkeeper/internal/repository"
	"github.com/maynagashev/taskkeeper/internal/services"
	"github.com/maynagashev/taskkeeper/internal/sweeper"
)

// main - точка входа. Вызывает корневую команду и обрабатывает ошибку.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Printf("Ошибка выполнения сервера: %v", err)
		stop()
		os.Exit(1)
	}
}

// newRootCmd собирает команды сервера. Без подкоманды выполняется serve.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "taskkeeper-server",
		Short:        "Сервер taskkeeper: задачи, заметки и хранилище паролей",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Запустить HTTP API",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Применить миграции БД и выйти",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrate(cmd)
			},
		},
		&cobra.Command{
			Use:   "sweep",
			Short: "Один раз удалить просроченные заметки и выйти",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runSweep(cmd)
			},
		},
	)
	return root
}

// loadConfig читает конфигурацию с учетом флагов команды.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("некорректная конфигурация: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command) error {
	log.Println("Запуск сервера taskkeeper...")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	deps, err := setupDependencies(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("ошибка инициализации зависимостей: %w", err)
	}
	defer deps.Close()

	return runServer(cmd.Context(), cfg, deps)
}

func runMigrate(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := newPostgresDB(cfg.Database.DSN, poolConfig(cfg))
	if err != nil {
		return fmt.Errorf("ошибка инициализации БД: %w", err)
	}
	defer db.Close()

	return repository.Migrate(cmd.Context(), db)
}

func runSweep(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := newPostgresDB(cfg.Database.DSN, poolConfig(cfg))
	if err != nil {
		return fmt.Errorf("ошибка инициализации БД: %w", err)
	}
	defer db.Close()

	notes := services.NewNoteService(repository.NewPostgresNoteRepository(db), nil)
	removed, err := sweeper.Once(cmd.Context(), notes)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Удалено просроченных заметок: %d\n", removed)
	return nil
}
