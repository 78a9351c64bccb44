package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"fluxpost/internal/dose"
	"fluxpost/internal/spectrum"
)

// WriteSpectrumCSV exports the converted spectrum, one row per bin. The
// header names every column with its physical unit.
func WriteSpectrumCSV(w io.Writer, s *spectrum.Spectrum) error {
	cw := csv.NewWriter(w)
	header := []string{
		"E_low [MeV]",
		"E_high [MeV]",
		"E_mid [MeV]",
		"flux [n/cm2/s]",
		"flux_err [n/cm2/s]",
		"flux_per_E [n/cm2/s/MeV]",
		"flux_per_E_err [n/cm2/s/MeV]",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write spectrum header: %w", err)
	}
	for i, b := range s.Bins {
		row := []string{
			num(b.Lower),
			num(b.Upper),
			num(b.Mid),
			num(s.Flux[i]),
			num(s.FluxErr[i]),
			num(s.FluxPerE[i]),
			num(s.FluxPerEErr[i]),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write spectrum row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDoseCSV exports the per-bin dose estimate, aligned with the spectrum.
func WriteDoseCSV(w io.Writer, s *spectrum.Spectrum, r *dose.Report) error {
	cw := csv.NewWriter(w)
	header := []string{
		"E_mid [MeV]",
		"flux [n/cm2/s]",
		"coeff [(rem/h)/(n/cm2/s)]",
		"dose_rate [rem/h]",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write dose header: %w", err)
	}
	for i, b := range s.Bins {
		row := []string{
			num(b.Mid),
			num(s.Flux[i]),
			num(r.Coeff[i]),
			num(r.DoseRate[i]),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write dose row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func num(v float64) string { return fmt.Sprintf("%.3E", v) }
