package sinks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iyotee/LSFTP/audit"
	"github.com/iyotee/LSFTP/errs"
)

// Postgres is a structured, queryable audit sink backed by a pgxpool
// connection pool, grounded on the protocol's storage layer's
// connection-pool-and-typed-table pattern.
type Postgres struct {
	pool *pgxpool.Pool
}

// PostgresConfig mirrors the storage layer's own connection
// configuration shape.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewPostgres opens a connection pool against cfg and verifies
// connectivity with a Ping.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, errs.NewAudit("postgres_pool_failed", "failed to create audit database connection pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errs.NewAudit("postgres_ping_failed", "failed to reach audit database", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Name() string { return "postgres" }

// Write inserts e into the audit_events table. The table is expected to
// be provisioned out of band (DDL is not this sink's concern, matching
// the storage layer's own division of labor between stores and schema
// migration).
func (p *Postgres) Write(e audit.Event) error {
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return errs.NewAudit("postgres_marshal_failed", "failed to marshal audit event metadata", err)
	}

	const query = `
		INSERT INTO audit_events (
			event_id, occurred_at, action, result, severity, user_id, hardware_id,
			session_id, file_path, file_hash, source_ip, bytes_transferred,
			duration_ms, error_code, metadata, signature
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = p.pool.Exec(context.Background(), query,
		e.EventID, e.Timestamp, string(e.Action), string(e.Result), string(e.Severity),
		e.UserID, e.HardwareID, e.SessionID, e.FilePath, e.FileHash, e.SourceIP,
		e.BytesTransferred, e.DurationMillis, e.ErrorCode, metadata, e.Signature,
	)
	if err != nil {
		return errs.NewAudit("postgres_insert_failed", "failed to insert audit event", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
