// Package db persists pipeline results (runs, annual clearing areas,
// validation stats) in a sqlite database.
package db

import (
	"database/sql"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/HMB3/AUS-Land-Clearing/internal/validate"
)

type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the results database at path and
// ensures the base schema exists. Schema evolution beyond the base tables
// goes through the migrations directory (see migrate.go).
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			region TEXT NOT NULL,
			start_year INTEGER NOT NULL,
			end_year INTEGER NOT NULL,
			started TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			finished TIMESTAMP,
			years_processed INTEGER,
			years_skipped INTEGER
		);
		CREATE TABLE IF NOT EXISTS clearing_area (
			run_id TEXT NOT NULL,
			region TEXT NOT NULL,
			year INTEGER NOT NULL,
			category TEXT NOT NULL,
			area_m2 DOUBLE NOT NULL,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
		CREATE TABLE IF NOT EXISTS validation_results (
			run_id TEXT NOT NULL,
			region TEXT NOT NULL,
			year INTEGER NOT NULL,
			tp_area DOUBLE NOT NULL,
			fp_area DOUBLE NOT NULL,
			fn_area DOUBLE NOT NULL,
			tn_area DOUBLE NOT NULL,
			precision REAL,
			recall REAL,
			f1 REAL,
			overall_accuracy REAL,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// RecordRun inserts a new pipeline run.
func (db *DB) RecordRun(runID, regionName string, startYear, endYear int) error {
	_, err := db.Exec(
		"INSERT INTO runs (run_id, region, start_year, end_year) VALUES (?, ?, ?, ?)",
		runID, regionName, startYear, endYear)
	return err
}

// FinishRun marks a run complete with its processed/skipped year counts.
func (db *DB) FinishRun(runID string, processed, skipped int) error {
	_, err := db.Exec(
		"UPDATE runs SET finished = ?, years_processed = ?, years_skipped = ? WHERE run_id = ?",
		time.Now().UTC(), processed, skipped, runID)
	return err
}

// RecordClearingArea stores one region/year/category area sum.
func (db *DB) RecordClearingArea(runID, regionName string, year int, category string, areaM2 float64) error {
	_, err := db.Exec(
		"INSERT INTO clearing_area (run_id, region, year, category, area_m2) VALUES (?, ?, ?, ?, ?)",
		runID, regionName, year, category, areaM2)
	return err
}

// RecordValidation stores a confusion matrix result. Undefined (NaN)
// metrics persist as NULL, never as 0.
func (db *DB) RecordValidation(runID, regionName string, year int, stats validate.ConfusionStats) error {
	_, err := db.Exec(`
		INSERT INTO validation_results
			(run_id, region, year, tp_area, fp_area, fn_area, tn_area, precision, recall, f1, overall_accuracy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, regionName, year,
		stats.TruePositiveArea, stats.FalsePositiveArea, stats.FalseNegativeArea, stats.TrueNegativeArea,
		nullable(stats.Precision), nullable(stats.Recall), nullable(stats.F1), nullable(stats.OverallAccuracy))
	return err
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// AreaRow is one stored clearing-area result.
type AreaRow struct {
	RunID    string
	Region   string
	Year     int
	Category string
	AreaM2   float64
}

// ClearingAreas returns stored area results for a region in year order,
// latest run first within a year.
func (db *DB) ClearingAreas(regionName string) ([]AreaRow, error) {
	rows, err := db.Query(`
		SELECT run_id, region, year, category, area_m2
		FROM clearing_area WHERE region = ? ORDER BY year ASC`, regionName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AreaRow
	for rows.Next() {
		var r AreaRow
		if err := rows.Scan(&r.RunID, &r.Region, &r.Year, &r.Category, &r.AreaM2); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidationRow is one stored validation result. Metrics read back as NaN
// where the stored value was NULL (undefined denominator).
type ValidationRow struct {
	RunID  string
	Region string
	Year   int
	Stats  validate.ConfusionStats
}

// Validations returns stored validation results for a region.
func (db *DB) Validations(regionName string) ([]ValidationRow, error) {
	rows, err := db.Query(`
		SELECT run_id, region, year, tp_area, fp_area, fn_area, tn_area,
			precision, recall, f1, overall_accuracy
		FROM validation_results WHERE region = ? ORDER BY year ASC`, regionName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ValidationRow
	for rows.Next() {
		var r ValidationRow
		var precision, recall, f1, overall sql.NullFloat64
		if err := rows.Scan(&r.RunID, &r.Region, &r.Year,
			&r.Stats.TruePositiveArea, &r.Stats.FalsePositiveArea,
			&r.Stats.FalseNegativeArea, &r.Stats.TrueNegativeArea,
			&precision, &recall, &f1, &overall); err != nil {
			return nil, err
		}
		r.Stats.Precision = floatOrNaN(precision)
		r.Stats.Recall = floatOrNaN(recall)
		r.Stats.F1 = floatOrNaN(f1)
		r.Stats.OverallAccuracy = floatOrNaN(overall)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// AttachAdminRoutes mounts SQL debugging routes for the results database.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://clearing.db", db.DB, &tailsql.DBOptions{
		Label: "Clearing DB",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
	debug.Handle("schema", "Show results schema", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.Query("SELECT sql FROM sqlite_master WHERE type = 'table'")
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to read schema: %v", err), http.StatusInternalServerError)
			return
		}
		defer rows.Close()
		for rows.Next() {
			var ddl sql.NullString
			if err := rows.Scan(&ddl); err != nil {
				http.Error(w, fmt.Sprintf("failed to scan schema: %v", err), http.StatusInternalServerError)
				return
			}
			fmt.Fprintln(w, ddl.String)
			fmt.Fprintln(w)
		}
	}))
}
