package gbz

import (
	"time"

	"github.com/mash-protocol/gbz-go/pkg/log"
)

// protocolLog emits codec events for one parser or creator session.
type protocolLog struct {
	logger      log.Logger
	sessionID   string
	direction   log.Direction
	messageType log.MessageType
	messageCode uint16
}

func (p *protocolLog) emit(event log.Event) {
	if p.logger == nil {
		return
	}
	event.Timestamp = time.Now()
	event.SessionID = p.sessionID
	event.Direction = p.direction
	event.MessageType = p.messageType
	event.MessageCode = p.messageCode
	p.logger.Log(event)
}

func (p *protocolLog) header(header []byte, count uint8, size int) {
	if p.logger == nil {
		return
	}
	ev := &log.HeaderEvent{
		ProfileID:      ProfileID,
		ComponentCount: count,
		Size:           size,
	}
	if p.messageType == log.MessageTypeAlert && len(header) >= HeaderSize+AlertHeaderSize {
		code, ts := readAlertHeader(header)
		ev.AlertCode = &code
		ev.AlertTimestamp = &ts
	}
	p.emit(log.Event{
		Layer:    log.LayerMessage,
		Category: log.CategoryMessage,
		Header:   ev,
	})
}

func (p *protocolLog) component(ev *log.ComponentEvent) {
	p.emit(log.Event{
		Layer:     log.LayerComponent,
		Category:  log.CategoryMessage,
		Component: ev,
	})
}

func (p *protocolLog) state(entity log.StateEntity, oldState, newState, reason string) {
	p.emit(log.Event{
		Layer:    log.LayerMessage,
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   entity,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

func (p *protocolLog) error(layer log.Layer, err error) {
	p.emit(log.Event{
		Layer:    layer,
		Category: log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   layer,
			Message: err.Error(),
		},
	})
}

// componentEvent describes a parsed command.
func componentEvent(cmd *ParsedCommand, size int) *log.ComponentEvent {
	ev := &log.ComponentEvent{
		Index:          cmd.Index,
		ClusterID:      cmd.ClusterID,
		CommandID:      cmd.CommandID,
		FrameControl:   uint8(cmd.FrameControl),
		SequenceNumber: cmd.TransactionSequenceNumber,
		Length:         size,
		PayloadSize:    cmd.PlaintextLength(),
		Encrypted:      cmd.Encrypted,
	}
	if cmd.Encrypted {
		fc := cmd.FrameCounter
		ev.FrameCounter = &fc
		ok := cmd.Decryption == DecryptionSucceeded
		ev.Decrypted = &ok
	}
	if cmd.HasFromDateTime {
		fdt := cmd.FromDateTime
		ev.FromDateTime = &fdt
	}
	return ev
}
