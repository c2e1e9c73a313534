// Package sweeper периодически удаляет просроченные заметки.
package sweeper

import (
	"context"
	"fmt"
	"log"
	"time"
)

// NoteSweeper удаляет просроченные незакрепленные заметки и возвращает их число.
// Ему удовлетворяет services.NoteService.
type NoteSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Run вызывает SweepExpired раз в interval, пока не отменен ctx.
// Ошибка одного прохода логируется и не останавливает цикл.
func Run(ctx context.Context, s NoteSweeper, interval time.Duration) {
	log.Printf("[Sweeper] Запуск очистки заметок, интервал %s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[Sweeper] Остановка очистки заметок")
			return
		case <-ticker.C:
			if _, err := Once(ctx, s); err != nil {
				log.Printf("[Sweeper] Ошибка очистки заметок: %v", err)
			}
		}
	}
}

// Once выполняет один проход очистки.
func Once(ctx context.Context, s NoteSweeper) (int64, error) {
	removed, err := s.SweepExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки заметок: %w", err)
	}
	if removed > 0 {
		log.Printf("[Sweeper] Удалено просроченных заметок: %d", removed)
	}
	return removed, nil
}
