// Package dose estimates neutron dose rates from a converted flux spectrum
// using the ANSI/ANS-6.1.1-1977 flux-to-dose conversion table and
// shape-preserving cubic interpolation in log-log space.
package dose

// ConversionPoint is one reference point of the flux-to-dose table:
// neutron energy in MeV and the conversion coefficient in
// (rem/h) per (n/cm2/s).
type ConversionPoint struct {
	Energy float64
	Coeff  float64
}

// ANS611 is the ANSI/ANS-6.1.1-1977 neutron flux-to-dose-rate conversion
// table. 16 points spanning 2.5e-8 to 20 MeV. Read-only.
var ANS611 = []ConversionPoint{
	{2.5e-08, 3.67e-06},
	{1.0e-07, 3.67e-06},
	{1.0e-06, 4.46e-06},
	{1.0e-05, 4.54e-06},
	{1.0e-04, 4.18e-06},
	{1.0e-03, 3.76e-06},
	{1.0e-02, 3.56e-06},
	{1.0e-01, 2.17e-05},
	{5.0e-01, 9.26e-05},
	{1.0e+00, 1.32e-04},
	{2.5e+00, 1.25e-04},
	{5.0e+00, 1.56e-04},
	{7.0e+00, 1.47e-04},
	{1.0e+01, 1.47e-04},
	{1.4e+01, 2.08e-04},
	{2.0e+01, 2.27e-04},
}
