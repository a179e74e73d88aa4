// Package labels reconciles frame-by-frame gesture label sequences with a
// ground-truth trajectory.
//
// Responsibilities: relabeling transition and pause frames of a trajectory
// with sentinels, median smoothing of recognizer output, and the three
// recognition filters that reject gestures claimed outside a tolerance
// window around their trajectory occurrences.
// Key types: Margins, SmartOptions, VGGOptions, RecognitionOptions, Summary.
//
// Sequences are never modified in place; every filter returns a new slice of
// the input length. Frames are relabeled, never removed.
package labels
