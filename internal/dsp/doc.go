// Package dsp owns the numerical signal conditioning kernels for recorded
// EMG channels.
//
// Responsibilities: Butterworth bandpass design and zero-phase
// forward-backward filtering, per-window harmonic least-squares fitting,
// and adaptive multi-frequency line-noise estimation.
// Key types: Coefficients, HarmonicFitter, AdaptiveNotch.
//
// Every function operates on fully buffered sequences and returns new
// slices; inputs are never modified.
package dsp
