// Package report renders diagnostics for conditioning and labelling runs:
// Welch power spectra with before/after PNG plots, and HTML label timelines.
package report
