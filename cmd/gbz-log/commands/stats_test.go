package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mash-protocol/gbz-go/pkg/gbz"
	"github.com/mash-protocol/gbz-go/pkg/log"
	"github.com/mash-protocol/gbz-go/pkg/zcl"
)

func TestStatsCounts(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	failed := false
	events := []log.Event{
		{Timestamp: ts, SessionID: "s1", Layer: log.LayerSpool, Category: log.CategoryMessage, Frame: &log.FrameEvent{Size: 30}},
		{Timestamp: ts, SessionID: "s2", Layer: log.LayerMessage, Category: log.CategoryMessage, Direction: log.DirectionIn, Header: &log.HeaderEvent{Size: 40}},
		{Timestamp: ts.Add(time.Second), SessionID: "s2", Layer: log.LayerComponent, Direction: log.DirectionIn, Component: &log.ComponentEvent{ClusterID: 0x0705, Encrypted: true, Decrypted: &failed}},
		{Timestamp: ts.Add(2 * time.Second), SessionID: "s2", Layer: log.LayerComponent, Direction: log.DirectionIn, Component: &log.ComponentEvent{ClusterID: 0x0700}},
		{Timestamp: ts.Add(3 * time.Second), SessionID: "s2", Category: log.CategoryError, Error: &log.ErrorEventData{Message: "test"}},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Total Events: 5",
		"SPOOL:",
		"MESSAGE:",
		"COMPONENT:",
		"ERROR:",
		"Price:",
		"Prepayment:",
		"Encrypted: 1, decryption failures: 1",
		"Sessions: 2",
		"Components: 2",
		"Size: 40 bytes",
		"Errors: 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestStatsEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Events: 0") {
		t.Errorf("unexpected output: %s", buf.String())
	}
	if strings.Contains(buf.String(), "Time Range") {
		t.Error("time range printed for empty log")
	}
}

// TestStatsFromCodec runs a real creator and parser against a file logger.
func TestStatsFromCodec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codec.glog")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	cfg := gbz.DefaultCreatorConfig()
	cfg.MessageCode = 0xFFFE
	cfg.ProtocolLogger = logger
	c, err := gbz.NewCreator(cfg)
	if err != nil {
		t.Fatalf("NewCreator failed: %v", err)
	}
	fc := zcl.NewFrameControl(true, false, false)
	for _, cluster := range []uint16{zcl.ClusterPrice, zcl.ClusterMetering} {
		if _, err := c.AppendCommand(&zcl.Command{ClusterID: cluster, FrameControl: fc, CommandID: 0x01}); err != nil {
			t.Fatalf("AppendCommand failed: %v", err)
		}
	}
	msg, err := c.Assemble()
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	c.Cleanup()

	pcfg := gbz.DefaultParserConfig()
	pcfg.MessageCode = 0xFFFE
	pcfg.ProtocolLogger = logger
	if _, _, err := gbz.ParseAll(msg.Payload, pcfg); err != nil {
		t.Fatalf("ParseAll failed: %v", err)
	}
	logger.Close()

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{"Sessions: 2", "Price:", "Metering:", "IN:", "OUT:"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}
