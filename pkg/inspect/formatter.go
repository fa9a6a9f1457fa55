package inspect

import (
	"fmt"
	"strings"
	"time"

	"github.com/mash-protocol/gbz-go/pkg/gbz"
	"github.com/mash-protocol/gbz-go/pkg/zcl"
)

// zclEpoch is the origin of ZCL UTCTime values.
var zclEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Formatter formats inspection output.
type Formatter struct {
	// ShowPayload includes payload bytes and decoded payload records
	ShowPayload bool

	// ShowIDs includes numeric IDs alongside names
	ShowIDs bool

	// IndentWidth is the number of spaces per indent level
	IndentWidth int

	// MaxPayloadBytes truncates long payloads (0 = no limit)
	MaxPayloadBytes int
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowPayload:     true,
		ShowIDs:         false,
		IndentWidth:     2,
		MaxPayloadBytes: 64,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	indent := strings.Repeat(" ", depth*width)
	return indent + content
}

// FormatTimestamp formats a ZCL UTCTime value.
func FormatTimestamp(ts uint32) string {
	return zclEpoch.Add(time.Duration(ts) * time.Second).Format(time.RFC3339)
}

// FormatPayload formats bytes as spaced hex, truncated to MaxPayloadBytes.
func (f *Formatter) FormatPayload(b []byte) string {
	if len(b) == 0 {
		return "(empty)"
	}
	shown := b
	if f.MaxPayloadBytes > 0 && len(b) > f.MaxPayloadBytes {
		shown = b[:f.MaxPayloadBytes]
	}
	s := fmt.Sprintf("% X", shown)
	if len(shown) < len(b) {
		s += fmt.Sprintf(" ... (+%d bytes)", len(b)-len(shown))
	}
	return s
}

func (f *Formatter) clusterLabel(id uint16) string {
	name := GetClusterName(id)
	if f.ShowIDs && zcl.ClusterName(id) != "" {
		return fmt.Sprintf("%s (0x%04X)", name, id)
	}
	return name
}

func (f *Formatter) commandLabel(fc zcl.FrameControl, id uint8) string {
	name := GetCommandName(fc, id)
	if f.ShowIDs && fc.Global() && zcl.FoundationCommandName(id) != "" {
		return fmt.Sprintf("%s (0x%02X)", name, id)
	}
	return name
}

// FormatHeader formats a message header. size is the message length in
// bytes (0 to omit).
func (f *Formatter) FormatHeader(h gbz.Header, size int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("GBZ %s, %d component(s)", h.Type, h.ComponentCount))
	if size > 0 {
		sb.WriteString(fmt.Sprintf(", %d bytes", size))
	}
	sb.WriteString("\n")
	if h.Type == gbz.MessageTypeAlert {
		sb.WriteString(f.Indent(1, fmt.Sprintf("alert code: 0x%04X\n", h.AlertCode)))
		sb.WriteString(f.Indent(1, fmt.Sprintf("alert time: %s (0x%08X)\n", FormatTimestamp(h.AlertTimestamp), h.AlertTimestamp)))
	}
	return sb.String()
}

// FormatCommand formats one parsed component.
func (f *Formatter) FormatCommand(cmd *gbz.ParsedCommand) string {
	var sb strings.Builder

	title := fmt.Sprintf("[%d] %s %s", cmd.Index, f.clusterLabel(cmd.ClusterID), f.commandLabel(cmd.FrameControl, cmd.CommandID))
	if cmd.Last {
		title += " (last)"
	}
	sb.WriteString(title + "\n")
	sb.WriteString(f.Indent(1, fmt.Sprintf("frame control: %s, tsn: %d\n", cmd.FrameControl, cmd.TransactionSequenceNumber)))

	if cmd.HasFromDateTime {
		sb.WriteString(f.Indent(1, fmt.Sprintf("from: %s\n", FormatTimestamp(cmd.FromDateTime))))
	}
	if cmd.Encrypted {
		line := fmt.Sprintf("encrypted: frame counter %d, %d cipher bytes, %s", cmd.FrameCounter, cmd.CipheredLength, cmd.Decryption)
		if cmd.DecryptionErr != nil {
			line += fmt.Sprintf(" (%v)", cmd.DecryptionErr)
		}
		sb.WriteString(f.Indent(1, line+"\n"))
	}

	if !f.ShowPayload {
		return sb.String()
	}

	payload, err := cmd.Payload.Bytes()
	if err != nil {
		sb.WriteString(f.Indent(1, fmt.Sprintf("payload: %v\n", err)))
		return sb.String()
	}
	sb.WriteString(f.Indent(1, "payload: "+f.FormatPayload(payload)+"\n"))

	if cmd.Decryption == gbz.DecryptionFailed {
		return sb.String()
	}
	switch {
	case cmd.IsDefaultResponse():
		if dr, err := cmd.DefaultResponse(); err == nil {
			sb.WriteString(f.Indent(1, fmt.Sprintf("default response: command 0x%02X, %s\n", dr.CommandID, zcl.StatusName(dr.Status))))
		}
	case cmd.FrameControl.Global() && cmd.CommandID == zcl.CommandReadAttributesResponse:
		sb.WriteString(f.FormatAttributeRecords(payload, 1))
	}
	return sb.String()
}

// FormatAttributeRecords formats a Read Attributes Response record stream.
func (f *Formatter) FormatAttributeRecords(payload []byte, depth int) string {
	var sb strings.Builder
	r := zcl.NewAttributeReader(payload)
	for {
		rec, ok := r.Next()
		if !ok {
			break
		}
		if rec.Status != zcl.StatusSuccess {
			sb.WriteString(f.Indent(depth, fmt.Sprintf("attr 0x%04X: %s\n", rec.AttributeID, zcl.StatusName(rec.Status))))
			continue
		}
		sb.WriteString(f.Indent(depth, fmt.Sprintf("attr 0x%04X: type 0x%02X, % X\n", rec.AttributeID, uint8(rec.Type), rec.Value)))
	}
	if err := r.Err(); err != nil {
		sb.WriteString(f.Indent(depth, fmt.Sprintf("attribute records: %v\n", err)))
	}
	return sb.String()
}

// FormatMessage formats a header followed by every component.
func (f *Formatter) FormatMessage(h gbz.Header, size int, cmds []*gbz.ParsedCommand) string {
	var sb strings.Builder
	sb.WriteString(f.FormatHeader(h, size))
	for _, cmd := range cmds {
		for _, line := range strings.SplitAfter(f.FormatCommand(cmd), "\n") {
			if line != "" {
				sb.WriteString(f.Indent(1, line))
			}
		}
	}
	return sb.String()
}
