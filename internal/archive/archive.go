// Package archive persists completed pipeline runs to SQLite so past
// results stay queryable after the solver output files are overwritten.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"fluxpost/internal/dose"
	"fluxpost/internal/spectrum"
)

// Store is the SQLite-backed run archive.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// RunMeta carries the run inputs recorded alongside the computed results.
type RunMeta struct {
	ResultsPath    string
	DetectorPath   string
	Detector       string
	SourceStrength float64
}

// RunRecord is one archived run summary.
type RunRecord struct {
	ID        string
	CreatedAt time.Time

	RunMeta

	NormFactor float64
	NormSource string

	TotalFlux      float64
	TotalDose      float64
	ThermalFrac    float64
	EpithermalFrac float64
	FastFrac       float64
}

// BinRecord is one archived energy bin of a run.
type BinRecord struct {
	Index    int
	Lower    float64
	Upper    float64
	Mid      float64
	Flux     float64
	FluxErr  float64
	DoseRate float64
}

// Open initializes the archive database at the given path, creating the
// schema when missing.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		results_path TEXT NOT NULL,
		detector_path TEXT NOT NULL,
		detector TEXT NOT NULL,
		source_strength REAL NOT NULL,
		norm_factor REAL NOT NULL,
		norm_source TEXT NOT NULL,
		total_flux REAL NOT NULL,
		total_dose REAL NOT NULL,
		thermal_frac REAL NOT NULL,
		epithermal_frac REAL NOT NULL,
		fast_frac REAL NOT NULL
	);
	CREATE TABLE IF NOT EXISTS bins (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		bin INTEGER NOT NULL,
		e_low REAL NOT NULL,
		e_high REAL NOT NULL,
		e_mid REAL NOT NULL,
		flux REAL NOT NULL,
		flux_err REAL NOT NULL,
		dose_rate REAL NOT NULL,
		PRIMARY KEY (run_id, bin)
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("initialize archive schema: %w", err)
	}
	return nil
}

// SaveRun archives a completed run and returns its generated record.
func (s *Store) SaveRun(ctx context.Context, meta RunMeta, sp *spectrum.Spectrum, r *dose.Report) (RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := RunRecord{
		ID:             uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
		RunMeta:        meta,
		NormFactor:     sp.Norm.Factor,
		NormSource:     sp.Norm.Source,
		TotalFlux:      sp.Total,
		TotalDose:      r.Total,
		ThermalFrac:    sp.Regions.ThermalFrac,
		EpithermalFrac: sp.Regions.EpithermalFrac,
		FastFrac:       sp.Regions.FastFrac,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RunRecord{}, fmt.Errorf("begin archive transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, results_path, detector_path, detector,
			source_strength, norm_factor, norm_source, total_flux, total_dose,
			thermal_frac, epithermal_frac, fast_frac)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt, rec.ResultsPath, rec.DetectorPath, rec.Detector,
		rec.SourceStrength, rec.NormFactor, rec.NormSource, rec.TotalFlux, rec.TotalDose,
		rec.ThermalFrac, rec.EpithermalFrac, rec.FastFrac)
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bins (run_id, bin, e_low, e_high, e_mid, flux, flux_err, dose_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return RunRecord{}, fmt.Errorf("prepare bin insert: %w", err)
	}
	defer stmt.Close()

	for i, b := range sp.Bins {
		if _, err := stmt.ExecContext(ctx, rec.ID, i, b.Lower, b.Upper, b.Mid,
			sp.Flux[i], sp.FluxErr[i], r.DoseRate[i]); err != nil {
			return RunRecord{}, fmt.Errorf("insert bin %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return RunRecord{}, fmt.Errorf("commit archive transaction: %w", err)
	}
	return rec, nil
}

// ListRuns returns archived run summaries, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, results_path, detector_path, detector,
			source_strength, norm_factor, norm_source, total_flux, total_dose,
			thermal_frac, epithermal_frac, fast_frac
		FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.ResultsPath, &r.DetectorPath, &r.Detector,
			&r.SourceStrength, &r.NormFactor, &r.NormSource, &r.TotalFlux, &r.TotalDose,
			&r.ThermalFrac, &r.EpithermalFrac, &r.FastFrac); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun returns one archived run with its per-bin rows.
func (s *Store) GetRun(ctx context.Context, id string) (RunRecord, []BinRecord, error) {
	var r RunRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, results_path, detector_path, detector,
			source_strength, norm_factor, norm_source, total_flux, total_dose,
			thermal_frac, epithermal_frac, fast_frac
		FROM runs WHERE id = ?`, id).
		Scan(&r.ID, &r.CreatedAt, &r.ResultsPath, &r.DetectorPath, &r.Detector,
			&r.SourceStrength, &r.NormFactor, &r.NormSource, &r.TotalFlux, &r.TotalDose,
			&r.ThermalFrac, &r.EpithermalFrac, &r.FastFrac)
	if err == sql.ErrNoRows {
		return RunRecord{}, nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return RunRecord{}, nil, fmt.Errorf("query run %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT bin, e_low, e_high, e_mid, flux, flux_err, dose_rate
		FROM bins WHERE run_id = ? ORDER BY bin`, id)
	if err != nil {
		return RunRecord{}, nil, fmt.Errorf("query bins for run %s: %w", id, err)
	}
	defer rows.Close()

	var bins []BinRecord
	for rows.Next() {
		var b BinRecord
		if err := rows.Scan(&b.Index, &b.Lower, &b.Upper, &b.Mid, &b.Flux, &b.FluxErr, &b.DoseRate); err != nil {
			return RunRecord{}, nil, fmt.Errorf("scan bin: %w", err)
		}
		bins = append(bins, b)
	}
	return r, bins, rows.Err()
}
