package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, population_size, board_size, rounds_per_generation, seed)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started_at = excluded.started_at,
			population_size = excluded.population_size,
			board_size = excluded.board_size,
			rounds_per_generation = excluded.rounds_per_generation,
			seed = excluded.seed
	`, run.ID, run.StartedAt.UTC().Format(time.RFC3339Nano), run.PopulationSize, run.BoardSize, run.RoundsPerGeneration, run.Seed)
	return err
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]Run, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, started_at, population_size, board_size, rounds_per_generation, seed
		FROM runs ORDER BY rowid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			startedAt string
		)
		if err := rows.Scan(&run.ID, &startedAt, &run.PopulationSize, &run.BoardSize, &run.RoundsPerGeneration, &run.Seed); err != nil {
			return nil, err
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at of run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) SaveGeneration(ctx context.Context, gen Generation) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	payload, err := EncodePlayers(gen.Players)
	if err != nil {
		return fmt.Errorf("encode generation %d: %w", gen.Generation, err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO generations (run_id, generation, score, codec_version, players)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			score = excluded.score,
			codec_version = excluded.codec_version,
			players = excluded.players
	`, gen.RunID, gen.Generation, gen.Score, CurrentCodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetGenerations(ctx context.Context, runID string) ([]Generation, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT generation, score, players FROM generations
		WHERE run_id = ? ORDER BY generation
	`, runID)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var gens []Generation
	for rows.Next() {
		gen := Generation{RunID: runID}
		var payload []byte
		if err := rows.Scan(&gen.Generation, &gen.Score, &payload); err != nil {
			return nil, false, err
		}
		if gen.Players, err = DecodePlayers(payload); err != nil {
			return nil, false, fmt.Errorf("decode generation %d of run %s: %w", gen.Generation, runID, err)
		}
		gens = append(gens, gen)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return gens, len(gens) > 0, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("sqlite store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			population_size INTEGER NOT NULL,
			board_size INTEGER NOT NULL,
			rounds_per_generation INTEGER NOT NULL,
			seed INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			score INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			players BLOB NOT NULL,
			PRIMARY KEY (run_id, generation)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
