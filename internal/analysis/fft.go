package analysis

import (
	"math"
	"math/cmplx"
)

// FFT computes the discrete Fourier transform by radix-2 decimation.
// Input length must be a power of two; PowerSpectrum takes care of
// truncating arbitrary series.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}
	return result
}

// PowerSpectrum returns the magnitude of the first half of the transform
// of data, truncated down to the largest power-of-two length.
func PowerSpectrum(data []float64) []float64 {
	n := pow2Floor(len(data))
	if n == 0 {
		return nil
	}
	fft := FFT(data[:n])

	ps := make([]float64, n/2)
	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}
	return ps
}

// DominantFrequency finds the strongest periodic component of a uniformly
// sampled series. dt is the sample spacing. The mean is removed first so
// the orbit's offset from the origin does not mask its period. Returns
// frequency in cycles per time unit and the spectral magnitude at that
// frequency; both zero when the series is too short to resolve anything.
func DominantFrequency(samples []float64, dt float64) (freq, magnitude float64) {
	n := pow2Floor(len(samples))
	if n < 4 || dt <= 0 {
		return 0, 0
	}

	mean := 0.0
	for _, v := range samples[:n] {
		mean += v
	}
	mean /= float64(n)

	centered := make([]float64, n)
	for i, v := range samples[:n] {
		centered[i] = v - mean
	}

	// Bin 0 is whatever mean removal left of the offset; the search for a
	// period starts at bin 1.
	ps := PowerSpectrum(centered)
	best := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[best] {
			best = k
		}
	}
	return float64(best) / (float64(n) * dt), ps[best]
}

func pow2Floor(n int) int {
	p := 1
	for p*2 <= n {
		p *= 2
	}
	if n < 1 {
		return 0
	}
	return p
}
