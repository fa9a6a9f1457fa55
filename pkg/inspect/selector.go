// Package inspect formats and filters parsed GBZ messages for display.
//
// The inspect package offers:
//   - Selector expressions choosing components (e.g. "2", "price", "price/cmd/0x01")
//   - Name resolution for clusters and commands
//   - Formatting of headers, components and well-known payloads
package inspect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mash-protocol/gbz-go/pkg/gbz"
)

// Selector errors.
var (
	ErrEmptySelector   = errors.New("empty selector")
	ErrInvalidSelector = errors.New("invalid selector format")
	ErrInvalidNumber   = errors.New("invalid numeric value in selector")
)

// Selector chooses components of a parsed message.
//
// Formats:
//   - "all" or "*": every component
//   - "#2": the component at index 2
//   - "price" or "0x0700": every component of a cluster
//   - "price/cmd/0x01": components of a cluster with a command id
type Selector struct {
	All bool

	Index    int
	HasIndex bool

	ClusterID  uint16
	HasCluster bool

	CommandID  uint8
	HasCommand bool

	// Raw stores the original input string.
	Raw string
}

// ParseSelector parses a selector expression.
func ParseSelector(input string) (*Selector, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptySelector
	}
	s := &Selector{Raw: input}

	if input == "all" || input == "*" {
		s.All = true
		return s, nil
	}

	if strings.HasPrefix(input, "#") {
		idx, err := strconv.Atoi(input[1:])
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidNumber, input)
		}
		s.Index, s.HasIndex = idx, true
		return s, nil
	}

	if strings.HasPrefix(input, "/") || strings.Contains(input, "//") {
		return nil, ErrInvalidSelector
	}

	parts := strings.Split(input, "/")
	id, ok := ResolveClusterName(parts[0])
	if !ok {
		return nil, fmt.Errorf("cluster: %w: %s", ErrInvalidNumber, parts[0])
	}
	s.ClusterID, s.HasCluster = id, true

	switch len(parts) {
	case 1:
		return s, nil
	case 3:
		if parts[1] != "cmd" {
			return nil, ErrInvalidSelector
		}
		cmdID, err := parseUint8(parts[2])
		if err != nil {
			return nil, fmt.Errorf("command ID: %w", err)
		}
		s.CommandID, s.HasCommand = cmdID, true
		return s, nil
	default:
		return nil, ErrInvalidSelector
	}
}

// Matches reports whether the selector chooses cmd.
func (s *Selector) Matches(cmd *gbz.ParsedCommand) bool {
	switch {
	case s.All:
		return true
	case s.HasIndex:
		return cmd.Index == s.Index
	}
	if s.HasCluster && cmd.ClusterID != s.ClusterID {
		return false
	}
	if s.HasCommand && cmd.CommandID != s.CommandID {
		return false
	}
	return true
}

// String returns the selector in canonical form.
func (s *Selector) String() string {
	switch {
	case s.All:
		return "all"
	case s.HasIndex:
		return "#" + strconv.Itoa(s.Index)
	}
	out := fmt.Sprintf("0x%04X", s.ClusterID)
	if s.HasCommand {
		out += fmt.Sprintf("/cmd/0x%02X", s.CommandID)
	}
	return out
}

// parseUint8 parses a uint8 from decimal or hex string.
func parseUint8(s string) (uint8, error) {
	var v uint64
	var err error

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = strconv.ParseUint(s[2:], 16, 8)
	} else {
		v, err = strconv.ParseUint(s, 10, 8)
	}
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

// parseUint16 parses a uint16 from decimal or hex string.
func parseUint16(s string) (uint16, error) {
	var v uint64
	var err error

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = strconv.ParseUint(s[2:], 16, 16)
	} else {
		v, err = strconv.ParseUint(s, 10, 16)
	}
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}
