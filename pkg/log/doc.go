// Package log provides structured codec event logging for GBZ messages.
//
// This package defines the Logger interface and Event types for capturing
// codec-level events at multiple layers (spool, message, component).
// It is separate from operational logging (slog) - event capture provides
// a complete machine-readable trace of what was encoded and decoded.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/gbz/gateway.glog")
//
//	// Both: use MultiLogger
//	cfg.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    log.NewFileLogger("/var/log/gbz/gateway.glog"),
//	)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Spool: Raw length-prefixed frames (FrameEvent)
//   - Message: GBZ headers (HeaderEvent)
//   - Component: Individual ZCL components (ComponentEvent)
//
// Parser and creator lifecycle changes and errors have dedicated event types.
//
// # File Format
//
// Log files use CBOR encoding with .glog extension. The gbz-log CLI tool
// provides viewing, filtering, and export capabilities.
package log
