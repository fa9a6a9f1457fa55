// Package zcl holds the small slice of the Zigbee Cluster Library that the
// GBZ codec needs: the three-byte ZCL header, frame control bits, foundation
// command identifiers, data type sizes and a reader for attribute records.
//
// Cluster-specific payloads are opaque byte slices here. Multi-byte values
// inside ZCL payloads are little-endian.
package zcl
