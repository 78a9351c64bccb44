// Package pipeline wires the batch stages together: load the solver result
// tables, resolve normalization, convert the spectrum, estimate dose and
// emit the output artifacts. Stages run strictly in sequence; the first
// fatal error aborts the run, while recovered diagnostics are logged and
// carried into the report.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"fluxpost/internal/archive"
	"fluxpost/internal/config"
	"fluxpost/internal/dose"
	"fluxpost/internal/plot"
	"fluxpost/internal/report"
	"fluxpost/internal/results"
	"fluxpost/internal/spectrum"
)

// Result holds everything a completed run computed.
type Result struct {
	Table    *results.ResultTable
	Tally    *results.DetectorTally
	Spectrum *spectrum.Spectrum
	Dose     *dose.Report
}

// Run executes the computation stages. It does not write any artifacts;
// see Emit.
func Run(cfg *config.Config, log *zap.Logger) (*Result, error) {
	rt, repeated, err := results.LoadResultTable(cfg.Inputs.Results)
	if err != nil {
		return nil, err
	}
	for _, name := range repeated {
		log.Warn("result table field repeated; first occurrence used", zap.String("field", name))
	}
	log.Debug("result table loaded", zap.String("path", cfg.Inputs.Results), zap.Int("fields", rt.Len()))

	tally, err := results.LoadDetector(cfg.Inputs.Detectors, cfg.Inputs.Detector)
	if err != nil {
		return nil, err
	}
	log.Debug("detector tally loaded", zap.String("detector", tally.Name), zap.Int("bins", len(tally.Bins)))

	norm := spectrum.ResolveNorm(rt, cfg.Normalization.SourceStrength)
	for _, w := range norm.Warnings {
		log.Warn(w)
	}
	log.Info("normalization resolved",
		zap.Float64("factor", norm.Factor),
		zap.String("source", norm.Source))

	sp := spectrum.Convert(tally, norm)
	for _, w := range sp.Warnings {
		log.Warn(w)
	}

	dr, err := dose.Estimate(sp)
	if err != nil {
		return nil, fmt.Errorf("dose estimate: %w", err)
	}
	for _, w := range dr.Warnings {
		log.Warn(w)
	}
	if dr.DroppedBelowTable > 0 {
		log.Debug("bins below the first conversion-table breakpoint excluded from the table breakdown",
			zap.Int("bins", dr.DroppedBelowTable))
	}

	log.Info("run computed",
		zap.Float64("total_flux", sp.Total),
		zap.Float64("total_dose", dr.Total))

	return &Result{Table: rt, Tally: tally, Spectrum: sp, Dose: dr}, nil
}

// Emit writes the configured output artifacts. Artifacts are independent:
// one failing is logged and does not stop the others, and every file is
// overwritten in place on each run.
func Emit(ctx context.Context, cfg *config.Config, res *Result, log *zap.Logger) error {
	if err := os.MkdirAll(cfg.Outputs.Dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	emitFile(filepath.Join(cfg.Outputs.Dir, "report.txt"), log, func(f *os.File) error {
		return report.Text(f, res.Spectrum, res.Dose)
	})

	if cfg.Outputs.CSV {
		emitFile(filepath.Join(cfg.Outputs.Dir, "spectrum.csv"), log, func(f *os.File) error {
			return report.WriteSpectrumCSV(f, res.Spectrum)
		})
		emitFile(filepath.Join(cfg.Outputs.Dir, "dose.csv"), log, func(f *os.File) error {
			return report.WriteDoseCSV(f, res.Spectrum, res.Dose)
		})
	}

	if cfg.Outputs.Plots {
		emitFile(filepath.Join(cfg.Outputs.Dir, "spectrum.png"), log, func(f *os.File) error {
			return plot.WriteSpectrumPNG(f, res.Spectrum)
		})
		emitFile(filepath.Join(cfg.Outputs.Dir, "dose.png"), log, func(f *os.File) error {
			return plot.WriteDosePNG(f, res.Spectrum, res.Dose)
		})
	}

	if cfg.Archive.Enabled {
		if err := archiveRun(ctx, cfg, res); err != nil {
			log.Warn("archive failed", zap.Error(err))
		} else {
			log.Debug("run archived", zap.String("db", cfg.Archive.Path))
		}
	}

	return nil
}

func emitFile(path string, log *zap.Logger, write func(*os.File) error) {
	f, err := os.Create(path)
	if err != nil {
		log.Warn("artifact skipped", zap.String("path", path), zap.Error(err))
		return
	}
	werr := write(f)
	cerr := f.Close()
	if werr != nil {
		log.Warn("artifact failed", zap.String("path", path), zap.Error(werr))
		return
	}
	if cerr != nil {
		log.Warn("artifact close failed", zap.String("path", path), zap.Error(cerr))
		return
	}
	log.Debug("artifact written", zap.String("path", path))
}

func archiveRun(ctx context.Context, cfg *config.Config, res *Result) error {
	store, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	meta := archive.RunMeta{
		ResultsPath:    cfg.Inputs.Results,
		DetectorPath:   cfg.Inputs.Detectors,
		Detector:       cfg.Inputs.Detector,
		SourceStrength: cfg.Normalization.SourceStrength,
	}
	_, err = store.SaveRun(ctx, meta, res.Spectrum, res.Dose)
	return err
}
