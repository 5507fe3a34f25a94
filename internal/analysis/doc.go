// Package analysis inspects stored closed-loop trajectories.
//
//   - [ErrorSpectrum]: power spectrum of the tracking error
//   - [DominantOscillation]: strongest non-DC frequency of the error
//   - [ErrorPortrait]: error against error rate, the plane the PID terms
//     and the approximator input live in
//
// A loop that settles shows a spectrum concentrated near zero; a peak at a
// fixed frequency with a closed orbit in the portrait indicates a sustained
// oscillation, typically from too much gain.
package analysis
