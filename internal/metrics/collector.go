package metrics

import (
	"context"
	"database/sql"
	"time"
)

// DBStatser отдает статистику пула соединений. Ему удовлетворяют *sql.DB и *sqlx.DB.
type DBStatser interface {
	Stats() sql.DBStats
}

// StartCollector периодически обновляет метрики пула соединений до отмены ctx.
func StartCollector(ctx context.Context, db DBStatser, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	CollectDatabaseStats(db)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			CollectDatabaseStats(db)
		}
	}
}

// CollectDatabaseStats записывает текущую статистику пула.
func CollectDatabaseStats(db DBStatser) {
	stats := db.Stats()

	DatabaseConnections.WithLabelValues("open").Set(float64(stats.OpenConnections))
	DatabaseConnections.WithLabelValues("idle").Set(float64(stats.Idle))
	DatabaseConnections.WithLabelValues("in_use").Set(float64(stats.InUse))
}
