package store

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/devmemory/learning-engine/internal/config"
	sharederrors "github.com/devmemory/learning-engine/pkg/shared/errors"
	"github.com/devmemory/learning-engine/pkg/shared/logging"
)

// ConnectionStats mirrors pgxpool's own stat snapshot, plus the
// health-check bookkeeping the pipeline's status report needs.
type ConnectionStats struct {
	Available           bool
	MaxOpenConnections   int
	OpenConnections      int
	InUse                int
	Idle                 int
	WaitCount            int64
	WaitDuration         time.Duration
	AverageResponseTime  time.Duration
	FailedConnections    int64
	HealthCheckFailures  int64
	LastHealthCheck      time.Time
	IsHealthy            bool
}

// Pool wraps a pgxpool.Pool with the health-check bookkeeping the pipeline
// controller's status snapshot reports on.
type Pool struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger

	healthCheckFailures int64
	lastHealthCheck     time.Time
	isHealthy           bool
}

// NewPool opens a pgx connection pool against cfg.DSN. A nil logger is
// replaced with a discard logger rather than panicking.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger *logrus.Logger) (*Pool, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	if cfg.DSN == "" {
		return nil, sharederrors.ConfigurationError("database.dsn", "database is not enabled: no DSN configured")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, sharederrors.FailedToWithDetails("parse database DSN", "store", "postgres", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pgxPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, sharederrors.DatabaseError("open connection pool", err)
	}

	p := &Pool{pool: pgxPool, logger: logger, isHealthy: true}
	logger.WithFields(logging.DatabaseFields("connect", "pool").ToLogrus()).Info("connected to postgres")
	return p, nil
}

// Raw exposes the underlying pgxpool.Pool for queries.
func (p *Pool) Raw() *pgxpool.Pool {
	return p.pool
}

// Close releases all pooled connections.
func (p *Pool) Close() {
	p.pool.Close()
}

// HealthCheck pings the pool and records the result for Stats.
func (p *Pool) HealthCheck(ctx context.Context) error {
	p.lastHealthCheck = time.Now()
	if err := p.pool.Ping(ctx); err != nil {
		p.healthCheckFailures++
		p.isHealthy = false
		return sharederrors.DatabaseError("health check", err)
	}
	p.isHealthy = true
	return nil
}

// Stats returns a point-in-time snapshot of pool utilization.
func (p *Pool) Stats() *ConnectionStats {
	if p.pool == nil {
		return &ConnectionStats{Available: false}
	}
	s := p.pool.Stat()
	return &ConnectionStats{
		Available:           true,
		MaxOpenConnections:  int(s.MaxConns()),
		OpenConnections:     int(s.TotalConns()),
		InUse:               int(s.AcquiredConns()),
		Idle:                int(s.IdleConns()),
		HealthCheckFailures: p.healthCheckFailures,
		LastHealthCheck:     p.lastHealthCheck,
		IsHealthy:           p.isHealthy,
	}
}

func (p *Pool) String() string {
	return fmt.Sprintf("store.Pool{healthy=%v}", p.isHealthy)
}
