package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fluxpost/internal/archive"
)

func openArchive() (*archive.Store, error) {
	path := archiveDB
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.Archive.Path
	}
	return archive.Open(path)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs.")
		return nil
	}

	fmt.Printf("%-36s  %-20s  %-8s  %12s  %12s  %s\n",
		"id", "created", "detector", "flux", "dose [rem/h]", "norm source")
	for _, r := range runs {
		fmt.Printf("%-36s  %-20s  %-8s  %12.3E  %12.3E  %s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Detector,
			r.TotalFlux, r.TotalDose, r.NormSource)
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, bins, err := store.GetRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Run %s\n", rec.ID)
	fmt.Printf("  created:         %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  inputs:          %s, %s (%s)\n", rec.ResultsPath, rec.DetectorPath, rec.Detector)
	fmt.Printf("  source strength: %.3E n/s\n", rec.SourceStrength)
	fmt.Printf("  normalization:   %.3E (from %s)\n", rec.NormFactor, rec.NormSource)
	fmt.Printf("  total flux:      %.3E n/cm2/s\n", rec.TotalFlux)
	fmt.Printf("  total dose:      %.3E rem/h\n", rec.TotalDose)
	fmt.Printf("  regions:         thermal %.2f%%  epithermal %.2f%%  fast %.2f%%\n",
		100*rec.ThermalFrac, 100*rec.EpithermalFrac, 100*rec.FastFrac)

	fmt.Printf("\n%4s  %12s  %12s  %12s  %12s\n", "bin", "E_mid [MeV]", "flux", "flux_err", "dose [rem/h]")
	for _, b := range bins {
		fmt.Printf("%4d  %12.3E  %12.3E  %12.3E  %12.3E\n",
			b.Index, b.Mid, b.Flux, b.FluxErr, b.DoseRate)
	}
	return nil
}
