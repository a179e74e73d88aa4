// Package conditioning applies the EMG signal conditioning chain to every
// signal channel of a recorded table.
//
// Each marked channel has its adaptive notch interference estimate
// subtracted and is then bandpass filtered with a zero-phase Butterworth
// filter. Channels are independent and may be processed concurrently.
// Tables are treated as values: ApplyToTable returns a new table and never
// writes into the input columns.
package conditioning
