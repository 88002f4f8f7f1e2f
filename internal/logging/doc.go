// Package logging builds slog loggers with liner's console and JSON handlers,
// provides a small attr helper facade, standardized field keys, and log file
// retention pruning.
package logging
