package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mash-protocol/gbz-go/pkg/compose"
)

var errUnknownFormat = errors.New("gbz: unknown format, use hex or bin")

// closeFile closes c and reports its error through err unless an earlier
// error is already set.
func closeFile(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

func parseUint16(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid 16-bit value %q", s)
	}
	return uint16(v), nil
}

func parseUint8(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid 8-bit value %q", s)
	}
	return uint8(v), nil
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid 32-bit value %q", s)
	}
	return uint32(v), nil
}

// readSource reads a file, or in when path is empty or "-".
func readSource(in io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(in)
	}
	return os.ReadFile(path)
}

// decodeBytes interprets raw input in the given format.
func decodeBytes(raw []byte, format string) ([]byte, error) {
	switch format {
	case "hex":
		return compose.ParseHex(strings.TrimSpace(string(raw)))
	case "bin":
		return raw, nil
	default:
		return nil, errUnknownFormat
	}
}

// writeBytes writes a message in the given format.
func writeBytes(w io.Writer, data []byte, format string) error {
	switch format {
	case "hex":
		_, err := fmt.Fprintf(w, "%X\n", data)
		return err
	case "bin":
		_, err := w.Write(data)
		return err
	default:
		return errUnknownFormat
	}
}
