package plot

import (
	"bytes"
	"testing"

	"fluxpost/internal/dose"
	"fluxpost/internal/results"
	"fluxpost/internal/spectrum"
)

func fixture(t *testing.T) (*spectrum.Spectrum, *dose.Report) {
	t.Helper()
	d := &results.DetectorTally{Name: "DET1", Bins: []results.Bin{
		{Lower: 1e-7, Upper: 1e-6, Mid: 5.5e-7, Score: 10, RelErr: 0.01},
		{Lower: 1e-3, Upper: 1e-2, Mid: 5.5e-3, Score: 20, RelErr: 0.01},
		{Lower: 0.5, Upper: 1.5, Mid: 1.0, Score: 30, RelErr: 0.01},
	}}
	s := spectrum.Convert(d, spectrum.Norm{Factor: 1e8})
	r, err := dose.Estimate(s)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	return s, r
}

func TestWriteSpectrumPNG(t *testing.T) {
	s, _ := fixture(t)

	var buf bytes.Buffer
	if err := WriteSpectrumPNG(&buf, s); err != nil {
		t.Fatalf("WriteSpectrumPNG failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty PNG output")
	}
	// PNG signature.
	if !bytes.HasPrefix(buf.Bytes(), []byte{0x89, 'P', 'N', 'G'}) {
		t.Error("output is not a PNG")
	}
}

func TestWriteDosePNG(t *testing.T) {
	s, r := fixture(t)

	var buf bytes.Buffer
	if err := WriteDosePNG(&buf, s, r); err != nil {
		t.Fatalf("WriteDosePNG failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty PNG output")
	}
}

func TestWriteSpectrumPNG_TooFewPoints(t *testing.T) {
	d := &results.DetectorTally{Name: "DET1", Bins: []results.Bin{
		{Lower: 0.1, Upper: 0.2, Mid: 0.15, Score: 0},
	}}
	s := spectrum.Convert(d, spectrum.Norm{Factor: 1})

	var buf bytes.Buffer
	if err := WriteSpectrumPNG(&buf, s); err == nil {
		t.Error("expected error when no positive points remain")
	}
}
