package archive

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fluxpost/internal/dose"
	"fluxpost/internal/results"
	"fluxpost/internal/spectrum"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "archive", "fluxpost.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func fixture(t *testing.T) (*spectrum.Spectrum, *dose.Report) {
	t.Helper()
	d := &results.DetectorTally{Name: "DET1", Bins: []results.Bin{
		{Lower: 0.25, Upper: 0.35, Mid: 0.3, Score: 2, RelErr: 0.01},
		{Lower: 1.95, Upper: 2.05, Mid: 2.0, Score: 5, RelErr: 0.03},
	}}
	sp := spectrum.Convert(d, spectrum.Norm{Factor: 1e9, Source: spectrum.SourceTotSrcRate})
	r, err := dose.Estimate(sp)
	require.NoError(t, err)
	return sp, r
}

func TestSaveAndGetRun(t *testing.T) {
	s := openTemp(t)
	sp, r := fixture(t)
	ctx := context.Background()

	meta := RunMeta{
		ResultsPath:    "run_res.m",
		DetectorPath:   "run_det0.m",
		Detector:       "DET1",
		SourceStrength: 1e17,
	}
	rec, err := s.SaveRun(ctx, meta, sp, r)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, sp.Norm.Factor, rec.NormFactor)
	assert.Equal(t, sp.Total, rec.TotalFlux)
	assert.Equal(t, r.Total, rec.TotalDose)

	got, bins, err := s.GetRun(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "DET1", got.Detector)
	require.Len(t, bins, 2)
	assert.Equal(t, sp.Flux[0], bins[0].Flux)
	assert.Equal(t, r.DoseRate[1], bins[1].DoseRate)
}

func TestListRuns(t *testing.T) {
	s := openTemp(t)
	sp, r := fixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.SaveRun(ctx, RunMeta{Detector: "DET1"}, sp, r)
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestGetRun_Missing(t *testing.T) {
	s := openTemp(t)
	_, _, err := s.GetRun(context.Background(), "no-such-run")
	assert.Error(t, err)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fluxpost.db")

	s1, err := Open(path)
	require.NoError(t, err)
	sp, r := fixture(t)
	rec, err := s1.SaveRun(context.Background(), RunMeta{Detector: "DET1"}, sp, r)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	// Schema init must be idempotent and data must survive reopen.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	runs, err := s2.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, rec.ID, runs[0].ID)
}
