// Package store archives simulation reports in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/sim"
)

// DB wraps a SQLite connection for the report archive.
type DB struct {
	conn *sqlx.DB
}

// ReportRow is one archived simulation.
type ReportRow struct {
	ID           string          `db:"id"`
	CreatedAt    int64           `db:"created_at"` // unix milliseconds
	Job          string          `db:"job"`
	TotalSeconds float64         `db:"total_seconds"`
	BestRotation sql.NullString  `db:"best_rotation"`
	BestDPS      sql.NullFloat64 `db:"best_dps"`
	RunCount     int             `db:"run_count"`
}

// Created returns the creation time in UTC.
func (r ReportRow) Created() time.Time {
	return time.UnixMilli(r.CreatedAt).UTC()
}

// RunRow is one rotation of an archived simulation.
type RunRow struct {
	ReportID    string  `db:"report_id" json:"report_id"`
	Position    int     `db:"position" json:"position"`
	Rotation    string  `db:"rotation" json:"rotation"`
	DPS         float64 `db:"dps" json:"dps"`
	TotalDamage float64 `db:"total_damage" json:"total_damage"`
	StdDev      float64 `db:"std_dev" json:"std_dev"`
	Error       string  `db:"error" json:"error,omitempty"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		job TEXT NOT NULL,
		total_seconds REAL NOT NULL,
		best_rotation TEXT,
		best_dps REAL,
		run_count INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		report_id TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		rotation TEXT NOT NULL,
		dps REAL NOT NULL,
		total_damage REAL NOT NULL,
		std_dev REAL NOT NULL,
		error TEXT NOT NULL,
		PRIMARY KEY (report_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);
	CREATE INDEX IF NOT EXISTS idx_reports_job ON reports(job);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveReport writes a report and its runs in one transaction.
func (db *DB) SaveReport(r *sim.Report) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := ReportRow{
		ID:           r.ID.String(),
		CreatedAt:    r.CreatedAt.UnixMilli(),
		Job:          r.Job,
		TotalSeconds: r.TotalTime.Seconds(),
		RunCount:     len(r.Runs),
	}
	if r.Best != nil {
		row.BestRotation = sql.NullString{String: r.Best.Rotation, Valid: true}
		row.BestDPS = sql.NullFloat64{Float64: r.Best.DPS, Valid: true}
	}
	_, err = tx.NamedExec(`INSERT INTO reports
		(id, created_at, job, total_seconds, best_rotation, best_dps, run_count)
		VALUES (:id, :created_at, :job, :total_seconds, :best_rotation, :best_dps, :run_count)`, row)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	stmt, err := tx.Preparex(`INSERT INTO runs
		(report_id, position, rotation, dps, total_damage, std_dev, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, s := range r.Summaries() {
		if _, err := stmt.Exec(row.ID, i, s.Rotation, s.DPS, s.TotalDamage, s.StdDev, s.Error); err != nil {
			return fmt.Errorf("insert run %s: %w", s.Rotation, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("report archived", "id", row.ID, "job", row.Job, "runs", row.RunCount)
	return nil
}

// ListReports returns the most recent reports, newest first. An empty job lists every job.
func (db *DB) ListReports(job string, limit int) ([]ReportRow, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []ReportRow
	err := db.conn.Select(&rows, `SELECT id, created_at, job, total_seconds, best_rotation, best_dps, run_count
		FROM reports
		WHERE (? = '' OR job = ?)
		ORDER BY created_at DESC, id
		LIMIT ?`, job, job, limit)
	return rows, err
}

// GetReport returns one archived report.
func (db *DB) GetReport(id string) (ReportRow, error) {
	var row ReportRow
	err := db.conn.Get(&row, `SELECT id, created_at, job, total_seconds, best_rotation, best_dps, run_count
		FROM reports WHERE id = ?`, id)
	return row, err
}

// Runs returns the runs of a report in rotation order.
func (db *DB) Runs(reportID string) ([]RunRow, error) {
	var rows []RunRow
	err := db.conn.Select(&rows, `SELECT report_id, position, rotation, dps, total_damage, std_dev, error
		FROM runs WHERE report_id = ? ORDER BY position`, reportID)
	return rows, err
}
