// Package analysis extracts periodic structure from recorded trajectories.
//
//   - [Series]: pull one state component (x, y, vx, vy, r, speed) out of a
//     record sequence
//   - [PowerSpectrum]: magnitude spectrum of a sampled series
//   - [DominantFrequency]: strongest periodic component, i.e. the orbital
//     frequency of a bound two-body trajectory
//
// # Finding an orbital period
//
//	xs, _ := analysis.Series(recs, "x")
//	f, _ := analysis.DominantFrequency(xs, analysis.SampleStep(recs))
//	period := 1 / f
package analysis
