// Package commands implements the gbz-log CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mash-protocol/gbz-go/pkg/inspect"
	"github.com/mash-protocol/gbz-go/pkg/log"
	"github.com/mash-protocol/gbz-go/pkg/zcl"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [session:id] DIRECTION LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	sessionID := shortenSessionID(event.SessionID)
	dir := event.Direction.String()

	var typeLabel string
	switch {
	case event.Frame != nil:
		typeLabel = "Frame"
	case event.Header != nil:
		typeLabel = "Header"
	case event.Component != nil:
		typeLabel = "Component"
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [session:%s] %-3s %s %s", ts, sessionID, dir, event.Layer.String(), typeLabel)
	if event.MessageCode != 0 {
		fmt.Fprintf(w, " %s 0x%04X", event.MessageType.String(), event.MessageCode)
	}
	fmt.Fprintln(w)

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.Header != nil:
		formatHeaderDetails(w, event.Header)
	case event.Component != nil:
		formatComponentDetails(w, event.Component)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatFrameDetails writes frame-specific details.
func formatFrameDetails(w io.Writer, frame *log.FrameEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", frame.Size)
	if len(frame.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(frame.Data))
		if frame.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

// formatHeaderDetails writes message header details.
func formatHeaderDetails(w io.Writer, h *log.HeaderEvent) {
	fmt.Fprintf(w, "  Profile: 0x%04X  Components: %d", h.ProfileID, h.ComponentCount)
	if h.Size > 0 {
		fmt.Fprintf(w, "  Size: %d bytes", h.Size)
	}
	fmt.Fprintln(w)
	if h.AlertCode != nil {
		fmt.Fprintf(w, "  Alert: 0x%04X", *h.AlertCode)
		if h.AlertTimestamp != nil {
			fmt.Fprintf(w, " at %s", inspect.FormatTimestamp(*h.AlertTimestamp))
		}
		fmt.Fprintln(w)
	}
}

// formatComponentDetails writes component details.
func formatComponentDetails(w io.Writer, c *log.ComponentEvent) {
	fc := zcl.FrameControl(c.FrameControl)
	fmt.Fprintf(w, "  [%d] %s %s  tsn: %d\n", c.Index,
		inspect.GetClusterName(c.ClusterID), inspect.GetCommandName(fc, c.CommandID), c.SequenceNumber)
	fmt.Fprintf(w, "  Length: %d bytes  Payload: %d bytes\n", c.Length, c.PayloadSize)
	if c.FromDateTime != nil {
		fmt.Fprintf(w, "  From: %s\n", inspect.FormatTimestamp(*c.FromDateTime))
	}
	if c.Encrypted {
		fmt.Fprint(w, "  Encrypted")
		if c.FrameCounter != nil {
			fmt.Fprintf(w, "  FrameCounter: %d", *c.FrameCounter)
		}
		if c.Decrypted != nil {
			if *c.Decrypted {
				fmt.Fprint(w, "  decrypted")
			} else {
				fmt.Fprint(w, "  decryption failed")
			}
		}
		fmt.Fprintln(w)
	}
}

// formatStateChangeDetails writes state change details.
func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity.String())
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Code != nil {
		fmt.Fprintf(w, "  Code: %d\n", *err.Code)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// ParseLayerFlag parses a layer string from command-line flag (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	return parseLayer(s)
}

func parseLayer(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "spool":
		return log.LayerSpool, nil
	case "message":
		return log.LayerMessage, nil
	case "component":
		return log.LayerComponent, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be spool, message, or component)", s)
	}
}

// ParseDirectionFlag parses a direction string from command-line flag (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	return parseDirection(s)
}

func parseDirection(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	return parseCategory(s)
}

func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "message":
		return log.CategoryMessage, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be message, state, or error)", s)
	}
}

func parseMessageCode(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid message code: %s", s)
	}
	return uint16(v), nil
}

func parseCluster(s string) (uint16, error) {
	id, ok := inspect.ResolveClusterName(s)
	if !ok {
		return 0, fmt.Errorf("invalid cluster: %s", s)
	}
	return id, nil
}

// RunView executes the view command.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
