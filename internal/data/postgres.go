// internal/data/postgres.go
package data

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/trendsim/trendsim/internal/core"
)

// PostgresSource reads historical bars from the platform's bars table.
type PostgresSource struct {
	db       *sqlx.DB
	interval core.Interval
}

// NewPostgresSource opens a connection pool for the bar store.
func NewPostgresSource(dsn string, interval core.Interval) (*PostgresSource, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	return &PostgresSource{db: db, interval: interval}, nil
}

// NewPostgresSourceFromDB wraps an existing pool (used by tests).
func NewPostgresSourceFromDB(db *sqlx.DB, interval core.Interval) *PostgresSource {
	return &PostgresSource{db: db, interval: interval}
}

type barRow struct {
	Symbol         string    `db:"symbol"`
	Timestamp      time.Time `db:"ts"`
	Open           float64   `db:"open"`
	High           float64   `db:"high"`
	Low            float64   `db:"low"`
	Close          float64   `db:"close"`
	Volume         float64   `db:"volume"`
	ViralityScore  float64   `db:"virality_score"`
	SentimentScore float64   `db:"sentiment_score"`
	Velocity       float64   `db:"velocity"`
	EngagementRate float64   `db:"engagement_rate"`
	MomentumScore  float64   `db:"momentum_score"`
}

func (p *PostgresSource) Load(ctx context.Context, symbol string, period core.Period) ([]core.Bar, error) {
	const query = `
SELECT symbol, ts, open, high, low, close, volume,
	COALESCE(virality_score, 0)  AS virality_score,
	COALESCE(sentiment_score, 0) AS sentiment_score,
	COALESCE(velocity, 0)        AS velocity,
	COALESCE(engagement_rate, 0) AS engagement_rate,
	COALESCE(momentum_score, 0)  AS momentum_score
FROM bars
WHERE symbol = $1 AND interval = $2 AND ts BETWEEN $3 AND $4
ORDER BY ts`

	var rows []barRow
	err := p.db.SelectContext(ctx, &rows, query, symbol, string(p.interval), period.Start, period.End)
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	if len(rows) == 0 {
		return nil, core.WrapError(core.ErrNoData, errors.New("symbol "+symbol))
	}

	bars := make([]core.Bar, len(rows))
	for i, r := range rows {
		bars[i] = core.Bar{
			Symbol:         r.Symbol,
			Interval:       p.interval,
			Timestamp:      r.Timestamp,
			Open:           r.Open,
			High:           r.High,
			Low:            r.Low,
			Close:          r.Close,
			Volume:         r.Volume,
			ViralityScore:  r.ViralityScore,
			SentimentScore: r.SentimentScore,
			Velocity:       r.Velocity,
			EngagementRate: r.EngagementRate,
			MomentumScore:  r.MomentumScore,
		}
	}
	return bars, nil
}

// Close releases the connection pool.
func (p *PostgresSource) Close() error {
	return p.db.Close()
}
