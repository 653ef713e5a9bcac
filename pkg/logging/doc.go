// Package logging provides the structured logger shared by every patternhost
// component.
//
// It wraps log/slog behind a small set of package-level helpers so callers
// only pass a subsystem name and a format string:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Reconciler", "Pattern %s activated", id)
//	logging.Warn("Reconciler", "Cleanup of %s failed: %v", id, err)
//	logging.Error("Host", err, "Failed to acquire map resource")
//
// Every record carries a "subsystem" attribute and, for Error, an "error"
// attribute. Output is text by default; Init with FormatJSON switches to the
// JSON handler. Before Init is called only Error records are written, to
// stderr.
package logging
