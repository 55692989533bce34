package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"CryptoChat/internal/domain/models"
	domrepo "CryptoChat/internal/domain/repository"
	applogger "CryptoChat/pkg/logger"
)

// ClickHouseEventStats answers aggregate questions over the chat events table.
type ClickHouseEventStats struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewClickHouseEventStats(db *sql.DB, table string, l *applogger.Logger) *ClickHouseEventStats {
	if table == "" {
		table = "chat_events"
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &ClickHouseEventStats{db: db, table: table, l: l}
}

var _ domrepo.EventStats = (*ClickHouseEventStats)(nil)

// IntentCounts aggregates events with from <= ts < to, busiest intent first.
func (s *ClickHouseEventStats) IntentCounts(ctx context.Context, from, to time.Time) ([]models.IntentCount, error) {
	start := time.Now()
	const qtpl = `
		SELECT intent, count() AS n, avg(confidence) AS avg_conf, countIf(reply_type = 'error') AS errs
		FROM %s FINAL
		WHERE ts >= ? AND ts < ?
		GROUP BY intent
		ORDER BY n DESC, intent ASC
	`
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, s.table), from.UTC(), to.UTC())
	if err != nil {
		s.l.Error("clickhouse intent_counts query error",
			applogger.String("table", s.table),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("intent counts: %w", err)
	}
	defer rows.Close()

	out := make([]models.IntentCount, 0, 8)
	for rows.Next() {
		var (
			c      models.IntentCount
			intent string
		)
		if err := rows.Scan(&intent, &c.Count, &c.AvgConfidence, &c.ErrorReplies); err != nil {
			return nil, fmt.Errorf("scan intent count: %w", err)
		}
		c.Intent = models.IntentType(intent)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	s.l.Debug("clickhouse intent_counts ok",
		applogger.String("table", s.table),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}
