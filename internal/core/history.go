package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BuildKind identifies what a feed build produced.
type BuildKind string

const (
	KindOffers  BuildKind = "offers"
	KindStock   BuildKind = "stock"
	KindReport  BuildKind = "report"
	KindPublish BuildKind = "publish"
)

// BuildStatus is the outcome of a feed build.
type BuildStatus string

const (
	BuildOK     BuildStatus = "ok"
	BuildFailed BuildStatus = "error"
)

// FeedBuild is one recorded feed build.
type FeedBuild struct {
	ID         string      `json:"id"`
	Kind       BuildKind   `json:"kind"`
	Status     BuildStatus `json:"status"`
	Entries    int         `json:"entries"`
	DurationMS int64       `json:"durationMs"`
	Error      string      `json:"error,omitempty"`
	IPAddress  string      `json:"ipAddress,omitempty"`
	UserAgent  string      `json:"userAgent,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// HistoryStore persists feed builds. Implementations must be safe for
// concurrent use.
type HistoryStore interface {
	RecordBuild(ctx context.Context, b FeedBuild) error
	RecentBuilds(ctx context.Context, limit int) ([]FeedBuild, error)
	PurgeBuilds(ctx context.Context, olderThanDays int) (int64, error)
}

// NopHistoryStore discards builds. Used when no database is configured.
type NopHistoryStore struct{}

func (NopHistoryStore) RecordBuild(context.Context, FeedBuild) error { return nil }

func (NopHistoryStore) RecentBuilds(context.Context, int) ([]FeedBuild, error) {
	return []FeedBuild{}, nil
}

func (NopHistoryStore) PurgeBuilds(context.Context, int) (int64, error) { return 0, nil }

// PgHistoryStore keeps feed builds in the feed_builds table.
type PgHistoryStore struct {
	pool *pgxpool.Pool
}

// NewPgHistoryStore wraps a connection pool.
func NewPgHistoryStore(pool *pgxpool.Pool) *PgHistoryStore {
	return &PgHistoryStore{pool: pool}
}

var historySchema = []string{
	`CREATE TABLE IF NOT EXISTS feed_builds (
		id          UUID PRIMARY KEY,
		kind        TEXT NOT NULL,
		status      TEXT NOT NULL,
		entries     INTEGER NOT NULL DEFAULT 0,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		error       TEXT NOT NULL DEFAULT '',
		ip_address  TEXT NOT NULL DEFAULT '',
		user_agent  TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS feed_builds_created_at_idx ON feed_builds (created_at DESC)`,
}

// EnsureSchema creates the feed_builds table if it does not exist.
func (s *PgHistoryStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range historySchema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("feed_builds schema: %w", err)
		}
	}
	return nil
}

// RecordBuild inserts one build.
func (s *PgHistoryStore) RecordBuild(ctx context.Context, b FeedBuild) error {
	id, err := parseUUID(b.ID)
	if err != nil {
		return fmt.Errorf("feed_builds insert: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO feed_builds (id, kind, status, entries, duration_ms, error, ip_address, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, string(b.Kind), string(b.Status), b.Entries, b.DurationMS, b.Error, b.IPAddress, b.UserAgent, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("feed_builds insert: %w", err)
	}
	return nil
}

// RecentBuilds returns the newest builds first.
func (s *PgHistoryStore) RecentBuilds(ctx context.Context, limit int) ([]FeedBuild, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, kind, status, entries, duration_ms, error, ip_address, user_agent, created_at
		 FROM feed_builds ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("feed_builds query: %w", err)
	}
	defer rows.Close()

	builds := []FeedBuild{}
	for rows.Next() {
		var (
			b          FeedBuild
			id         pgtype.UUID
			kind, stat string
		)
		if err := rows.Scan(&id, &kind, &stat, &b.Entries, &b.DurationMS, &b.Error, &b.IPAddress, &b.UserAgent, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("feed_builds scan: %w", err)
		}
		b.ID = uuidToString(id)
		b.Kind = BuildKind(kind)
		b.Status = BuildStatus(stat)
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("feed_builds rows: %w", err)
	}
	return builds, nil
}

// PurgeBuilds deletes builds older than the given number of days.
func (s *PgHistoryStore) PurgeBuilds(ctx context.Context, olderThanDays int) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM feed_builds WHERE created_at < now() - make_interval(days => $1)`,
		int32(olderThanDays),
	)
	if err != nil {
		return 0, fmt.Errorf("feed_builds purge: %w", err)
	}
	return tag.RowsAffected(), nil
}

func parseUUID(s string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

func uuidToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}
