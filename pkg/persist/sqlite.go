package persist

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/evoforge/evolve/pkg/engine"
	"github.com/evoforge/evolve/pkg/errors"
)

// RunStore mirrors run metadata into SQLite: one row per generation, one row
// per (generation, objective) aggregate, and serialized elite genomes. It
// complements the JSON/CSV exports with something queryable.
type RunStore struct {
	db    *sql.DB
	runID string
}

// EliteRow is one elite genome ready for insertion; serialization happens at
// the caller, which knows the genome type.
type EliteRow struct {
	Objective string
	Rank      int
	Score     float64
	DNA       []byte
}

// OpenRunStore opens (or creates) the store at path and prepares the schema.
func OpenRunStore(path, runID string) (*RunStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, errors.SerializationFailed, "opening run store")
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &RunStore{db: db, runID: runID}
	if err := s.initDB(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.SerializationFailed, "enabling WAL mode")
	}
	return s, nil
}

func (s *RunStore) initDB() error {
	schema := `
	CREATE TABLE IF NOT EXISTS generations (
		run_id TEXT NOT NULL,
		generation INTEGER NOT NULL,
		gen_total_time REAL NOT NULL,
		ind_total_time REAL NOT NULL,
		max_time REAL NOT NULL,
		evaluations INTEGER NOT NULL,
		objectives INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (run_id, generation)
	);
	CREATE TABLE IF NOT EXISTS objective_stats (
		run_id TEXT NOT NULL,
		generation INTEGER NOT NULL,
		objective TEXT NOT NULL,
		best REAL NOT NULL,
		worst REAL NOT NULL,
		avg REAL NOT NULL,
		std REAL NOT NULL,
		PRIMARY KEY (run_id, generation, objective)
	);
	CREATE TABLE IF NOT EXISTS elites (
		run_id TEXT NOT NULL,
		generation INTEGER NOT NULL,
		objective TEXT NOT NULL,
		rank INTEGER NOT NULL,
		score REAL NOT NULL,
		dna BLOB NOT NULL,
		PRIMARY KEY (run_id, generation, objective, rank)
	);
	CREATE INDEX IF NOT EXISTS idx_objective_stats_objective
		ON objective_stats(run_id, objective, generation);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return errors.Wrap(err, errors.SerializationFailed, "initializing run store schema")
	}
	return nil
}

// InsertGeneration records one generation's aggregates.
func (s *RunStore) InsertGeneration(gs engine.GenerationStats) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, errors.SerializationFailed, "starting transaction")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO generations
		 (run_id, generation, gen_total_time, ind_total_time, max_time, evaluations, objectives)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.runID, gs.Generation, gs.GenTotalTime, gs.IndTotalTime, gs.MaxTime, gs.Evaluations, gs.NumObjectives,
	); err != nil {
		return errors.Wrap(err, errors.SerializationFailed, "inserting generation row")
	}
	for obj, st := range gs.Objectives {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO objective_stats
			 (run_id, generation, objective, best, worst, avg, std)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.runID, gs.Generation, obj, st.Best, st.Worst, st.Avg, st.Std,
		); err != nil {
			return errors.Wrap(err, errors.SerializationFailed, "inserting objective stats row")
		}
	}
	return tx.Commit()
}

// InsertElites records serialized elite genomes for one generation.
func (s *RunStore) InsertElites(generation int, rows []EliteRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, errors.SerializationFailed, "starting transaction")
	}
	defer tx.Rollback()

	for _, row := range rows {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO elites (run_id, generation, objective, rank, score, dna)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			s.runID, generation, row.Objective, row.Rank, row.Score, row.DNA,
		); err != nil {
			return errors.Wrap(err, errors.SerializationFailed, "inserting elite row")
		}
	}
	return tx.Commit()
}

// BestScores returns the per-generation best value of one objective, in
// generation order.
func (s *RunStore) BestScores(objective string) ([]float64, error) {
	rows, err := s.db.Query(
		`SELECT best FROM objective_stats WHERE run_id = ? AND objective = ? ORDER BY generation`,
		s.runID, objective,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.SerializationFailed, "querying best scores")
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, errors.SerializationFailed, "scanning best score")
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (s *RunStore) Close() error {
	return s.db.Close()
}
