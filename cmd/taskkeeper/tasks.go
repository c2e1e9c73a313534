package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/maynagashev/taskkeeper/internal/models"
)

func newTasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Задачи",
	}
	cmd.AddCommand(
		newTasksListCmd(a),
		newTasksAddCmd(a),
		newTasksStatsCmd(a),
	)
	return cmd
}

func newTasksListCmd(a *app) *cobra.Command {
	var upcoming int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Показать задачи",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.authedClient()
			if err != nil {
				return err
			}

			var tasks []models.Task
			if cmd.Flags().Changed("upcoming") {
				tasks, err = c.UpcomingTasks(ctxOf(cmd), upcoming)
			} else {
				tasks, err = c.ListTasks(ctxOf(cmd))
			}
			if err != nil {
				return explain(err)
			}

			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, color.YellowString("!")+" Задач нет")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tЗАДАЧА\tСРОК\tПРИОРИТЕТ\tСТАТУС")
			for _, t := range tasks {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Title, dueLabel(t), t.Priority, statusLabel(t.CompletionStatus))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&upcoming, "upcoming", 7, "Показать задачи на ближайшие N дней")
	return cmd
}

func dueLabel(t models.Task) string {
	if t.IsOverallTask {
		return "общая"
	}
	if t.DueDate == nil {
		return "-"
	}
	label := t.DueDate.UTC().Format("2006-01-02")
	if t.DueTime != nil {
		label += " " + *t.DueTime
	}
	return label
}

func statusLabel(status string) string {
	switch status {
	case models.StatusComplete:
		return color.GreenString(status)
	case models.StatusPending:
		return color.YellowString(status)
	default:
		return status
	}
}

func newTasksAddCmd(a *app) *cobra.Command {
	var (
		priority, category, due string
		overall                 bool
	)

	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Создать задачу",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authedClient()
			if err != nil {
				return err
			}

			title := args[0]
			req := models.TaskRequest{Title: &title}
			if priority != "" {
				req.Priority = &priority
			}
			if category != "" {
				req.Category = &category
			}
			if overall {
				req.IsOverallTask = &overall
			}
			if due != "" {
				date, parseErr := parseDueDate(due)
				if parseErr != nil {
					return parseErr
				}
				req.DueDate = &date
			}

			task, err := c.CreateTask(ctxOf(cmd), req)
			if err != nil {
				return explain(err)
			}
			success(cmd.OutOrStdout(), "Задача создана: %s", task.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&priority, "priority", "", "Приоритет: low, medium, high")
	cmd.Flags().StringVar(&category, "category", "", "Категория: assignment, exam, project, personal")
	cmd.Flags().StringVar(&due, "due", "", "Срок в формате YYYY-MM-DD")
	cmd.Flags().BoolVar(&overall, "overall", false, "Общая задача без срока")
	return cmd
}

// parseDueDate разбирает дату срока. Сервер хранит дату без времени, поэтому берется полночь UTC.
func parseDueDate(raw string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("некорректная дата %q, ожидается YYYY-MM-DD", raw)
	}
	return date, nil
}

func newTasksStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Сводка по задачам",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.authedClient()
			if err != nil {
				return err
			}
			stats, err := c.TaskStats(ctxOf(cmd))
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Всего: %d, выполнено: %d, в работе: %d, прогресс: %d%%\n",
				stats.Total, stats.Completed, stats.Pending, stats.CompletionRate)
			return nil
		},
	}
}
