/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package reputation

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carverauto/decoytrace/pkg/logger"
	"github.com/carverauto/decoytrace/pkg/models"
)

const (
	createReputationTableSQL = `
CREATE TABLE IF NOT EXISTS reputation (
	source_ip    TEXT PRIMARY KEY,
	attack_count BIGINT NOT NULL DEFAULT 0,
	first_seen   TIMESTAMPTZ NOT NULL,
	last_seen    TIMESTAMPTZ NOT NULL
)`

	// Single-statement upsert so the increment-and-fetch cannot race
	// between workers handling the same address.
	incrementAttackCountSQL = `
INSERT INTO reputation (source_ip, attack_count, first_seen, last_seen)
VALUES ($1, 1, $2, $2)
ON CONFLICT (source_ip) DO UPDATE
SET attack_count = reputation.attack_count + 1,
    last_seen    = EXCLUDED.last_seen
RETURNING attack_count`

	getReputationSQL = `
SELECT source_ip, attack_count, first_seen, last_seen
FROM reputation
WHERE source_ip = $1`
)

// PostgresStore is the production reputation store backed by a pgx
// pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

// NewPostgresStore dials the configured cluster, ensures the schema,
// and returns the store.
func NewPostgresStore(ctx context.Context, cfg *models.DatabaseConfig, log logger.Logger) (*PostgresStore, error) {
	pool, err := newPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store := &PostgresStore{pool: pool, logger: log}

	if _, err := pool.Exec(ctx, createReputationTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("reputation: failed to ensure schema: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Str("database", cfg.Database).
		Msg("connected to reputation store")

	return store, nil
}

func newPool(ctx context.Context, cfg *models.DatabaseConfig) (*pgxpool.Pool, error) {
	db := *cfg
	if db.Port == 0 {
		db.Port = 5432
	}

	connURL := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   "/" + db.Database,
	}

	if db.Username != "" {
		if db.Password != "" {
			connURL.User = url.UserPassword(db.Username, db.Password)
		} else {
			connURL.User = url.User(db.Username)
		}
	}

	query := connURL.Query()

	sslMode := db.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	query.Set("sslmode", sslMode)

	if db.ApplicationName != "" {
		query.Set("application_name", db.ApplicationName)
	}

	connURL.RawQuery = query.Encode()

	poolConfig, err := pgxpool.ParseConfig(connURL.String())
	if err != nil {
		return nil, fmt.Errorf("reputation: failed to parse connection string: %w", err)
	}

	if db.MaxConnections > 0 {
		poolConfig.MaxConns = db.MaxConnections
	}

	if db.MinConnections > 0 {
		poolConfig.MinConns = db.MinConnections
	}

	if db.StatementTimeout > 0 {
		if poolConfig.ConnConfig.RuntimeParams == nil {
			poolConfig.ConnConfig.RuntimeParams = make(map[string]string)
		}

		timeout := time.Duration(db.StatementTimeout) / time.Millisecond
		poolConfig.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", timeout)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("reputation: failed to initialize pool: %w", err)
	}

	return pool, nil
}

// IncrementAttackCount implements Store with an atomic upsert.
func (s *PostgresStore) IncrementAttackCount(ctx context.Context, sourceIP string, seen time.Time) (int64, error) {
	var count int64

	err := s.pool.QueryRow(ctx, incrementAttackCountSQL, sourceIP, seen.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("reputation: increment failed for %s: %w", sourceIP, err)
	}

	return count, nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, sourceIP string) (*models.ReputationState, error) {
	var state models.ReputationState

	err := s.pool.QueryRow(ctx, getReputationSQL, sourceIP).
		Scan(&state.SourceIP, &state.AttackCount, &state.FirstSeen, &state.LastSeen)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, sourceIP)
	}

	if err != nil {
		return nil, fmt.Errorf("reputation: read failed for %s: %w", sourceIP, err)
	}

	return &state, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
