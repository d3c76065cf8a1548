package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	healthProbeTimeout = 3 * time.Second

	// degradedPoolUsage is the acquired/max ratio at which the pool is reported degraded
	degradedPoolUsage = 0.9

	stocksTableProbe = `SELECT to_regclass('stocks') IS NOT NULL`
)

// PoolStats is a snapshot of pgxpool counters
type PoolStats struct {
	Acquired int32 `json:"acquired"`
	Idle     int32 `json:"idle"`
	Total    int32 `json:"total"`
	Max      int32 `json:"max"`
}

// HealthStatus reports connectivity of the raw SQL backend
type HealthStatus struct {
	Status       string    `json:"status"` // healthy | degraded | unhealthy
	ResponseTime string    `json:"response_time"`
	StocksTable  bool      `json:"stocks_table"`
	Pool         PoolStats `json:"pool"`
	CheckedAt    time.Time `json:"checked_at"`
	Error        string    `json:"error,omitempty"`
}

// Health pings the pool and checks the stocks table is present
func (p *Pool) Health(ctx context.Context) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{Status: "healthy", CheckedAt: start}

	probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	if err := p.QueryRow(probeCtx, stocksTableProbe).Scan(&status.StocksTable); err != nil {
		status.Status = "unhealthy"
		status.Error = fmt.Sprintf("probe failed: %v", err)
		status.ResponseTime = time.Since(start).String()
		return status
	}

	status.Pool = snapshot(p.Stat())
	status.ResponseTime = time.Since(start).String()

	switch {
	case !status.StocksTable:
		status.Status = "degraded"
		status.Error = "stocks table missing"
	case poolSaturated(status.Pool):
		status.Status = "degraded"
		status.Error = "connection pool nearly exhausted"
	}

	return status
}

func snapshot(stat *pgxpool.Stat) PoolStats {
	return PoolStats{
		Acquired: stat.AcquiredConns(),
		Idle:     stat.IdleConns(),
		Total:    stat.TotalConns(),
		Max:      stat.MaxConns(),
	}
}

func poolSaturated(s PoolStats) bool {
	if s.Max <= 0 {
		return false
	}
	return float64(s.Acquired)/float64(s.Max) >= degradedPoolUsage
}
