package inspect

import (
	"fmt"
	"strings"

	"github.com/mash-protocol/gbz-go/pkg/zcl"
)

// ResolveClusterName resolves a cluster name or numeric id (decimal or 0x
// hex) to a cluster id. Names are case-insensitive.
func ResolveClusterName(name string) (uint16, bool) {
	if id, err := parseUint16(name); err == nil {
		return id, true
	}
	return zcl.ClusterByName(strings.TrimSpace(name))
}

// GetClusterName returns the display name of a cluster, falling back to
// its hex id.
func GetClusterName(id uint16) string {
	if n := zcl.ClusterName(id); n != "" {
		return n
	}
	return fmt.Sprintf("0x%04X", id)
}

// GetCommandName returns the name of a command. Only global commands have
// names; cluster specific commands are shown by id.
func GetCommandName(fc zcl.FrameControl, id uint8) string {
	if fc.Global() {
		if n := zcl.FoundationCommandName(id); n != "" {
			return n
		}
	}
	return fmt.Sprintf("0x%02X", id)
}
