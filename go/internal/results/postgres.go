package results

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS game_results (
    id          UUID PRIMARY KEY,
    room_code   TEXT NOT NULL,
    reason      TEXT NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ NOT NULL,
    leaderboard JSONB NOT NULL,
    drawn_words JSONB NOT NULL,
    recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS game_results_finished_at_idx ON game_results (finished_at DESC);
`

// PostgresStore archives games in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and verifies the connection.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the results table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create results schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveGame(ctx context.Context, g Game) error {
	leaderboard, err := json.Marshal(g.Leaderboard)
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard: %w", err)
	}
	drawn, err := json.Marshal(g.DrawnWords)
	if err != nil {
		return fmt.Errorf("failed to marshal drawn words: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
        INSERT INTO game_results (
          id, room_code, reason, started_at, finished_at, leaderboard, drawn_words
        ) VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (id) DO NOTHING
    `, g.ID, g.RoomCode, g.Reason, g.StartedAt, g.FinishedAt, leaderboard, drawn)
	if err != nil {
		return fmt.Errorf("failed to insert game result: %w", err)
	}

	log.Debug().
		Str("game_id", g.ID.String()).
		Str("room_code", g.RoomCode).
		Int64("rows", tag.RowsAffected()).
		Msg("game result saved")
	return nil
}

func (s *PostgresStore) RecentGames(ctx context.Context, limit int) ([]Game, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT id, room_code, reason, started_at, finished_at, leaderboard, drawn_words
        FROM game_results
        ORDER BY finished_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query game results: %w", err)
	}

	games, err := pgx.CollectRows(rows, scanGame)
	if err != nil {
		return nil, fmt.Errorf("failed to scan game results: %w", err)
	}
	return games, nil
}

func scanGame(row pgx.CollectableRow) (Game, error) {
	var (
		g                   Game
		leaderboard, drawn []byte
	)
	if err := row.Scan(&g.ID, &g.RoomCode, &g.Reason, &g.StartedAt, &g.FinishedAt, &leaderboard, &drawn); err != nil {
		return Game{}, err
	}
	if err := json.Unmarshal(leaderboard, &g.Leaderboard); err != nil {
		return Game{}, fmt.Errorf("decode leaderboard: %w", err)
	}
	if err := json.Unmarshal(drawn, &g.DrawnWords); err != nil {
		return Game{}, fmt.Errorf("decode drawn words: %w", err)
	}
	return g, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
