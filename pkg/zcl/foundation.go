package zcl

import (
	"fmt"
	"strings"
)

// Foundation (global) command ids.
const (
	CommandReadAttributes          uint8 = 0x00
	CommandReadAttributesResponse  uint8 = 0x01
	CommandWriteAttributes         uint8 = 0x02
	CommandWriteAttributesResponse uint8 = 0x04
	CommandConfigureReporting      uint8 = 0x06
	CommandReportAttributes        uint8 = 0x0A
	CommandDefaultResponse         uint8 = 0x0B
)

// Status codes.
const (
	StatusSuccess             uint8 = 0x00
	StatusFailure             uint8 = 0x01
	StatusNotAuthorized       uint8 = 0x7E
	StatusMalformedCommand    uint8 = 0x80
	StatusUnsupClusterCommand uint8 = 0x81
	StatusUnsupportedAttr     uint8 = 0x86
	StatusInvalidValue        uint8 = 0x87
	StatusReadOnly            uint8 = 0x88
	StatusNotFound            uint8 = 0x8B
	StatusInvalidDataType     uint8 = 0x8D
)

// Smart Energy cluster ids used by GBZ use cases.
const (
	ClusterBasic            uint16 = 0x0000
	ClusterAlarms           uint16 = 0x0009
	ClusterTime             uint16 = 0x000A
	ClusterPrice            uint16 = 0x0700
	ClusterDRLC             uint16 = 0x0701
	ClusterMetering         uint16 = 0x0702
	ClusterMessaging        uint16 = 0x0703
	ClusterTunneling        uint16 = 0x0704
	ClusterPrepayment       uint16 = 0x0705
	ClusterCalendar         uint16 = 0x0707
	ClusterDeviceManagement uint16 = 0x0708
	ClusterEvents           uint16 = 0x0709
	ClusterMeterIdentity    uint16 = 0x0B01
)

var clusterNames = map[uint16]string{
	ClusterBasic:            "Basic",
	ClusterAlarms:           "Alarms",
	ClusterTime:             "Time",
	ClusterPrice:            "Price",
	ClusterDRLC:             "DRLC",
	ClusterMetering:         "Metering",
	ClusterMessaging:        "Messaging",
	ClusterTunneling:        "Tunneling",
	ClusterPrepayment:       "Prepayment",
	ClusterCalendar:         "Calendar",
	ClusterDeviceManagement: "DeviceManagement",
	ClusterEvents:           "Events",
	ClusterMeterIdentity:    "MeterIdentification",
}

// ClusterName returns a display name for a cluster id, or "" if unknown.
func ClusterName(id uint16) string {
	return clusterNames[id]
}

// ClusterByName resolves a cluster display name (case-insensitive).
func ClusterByName(name string) (uint16, bool) {
	for id, n := range clusterNames {
		if strings.EqualFold(n, name) {
			return id, true
		}
	}
	return 0, false
}

var foundationNames = map[uint8]string{
	CommandReadAttributes:          "ReadAttributes",
	CommandReadAttributesResponse:  "ReadAttributesResponse",
	CommandWriteAttributes:         "WriteAttributes",
	CommandWriteAttributesResponse: "WriteAttributesResponse",
	CommandConfigureReporting:      "ConfigureReporting",
	CommandReportAttributes:        "ReportAttributes",
	CommandDefaultResponse:         "DefaultResponse",
}

// FoundationCommandName returns the name of a global command id, or "".
func FoundationCommandName(id uint8) string {
	return foundationNames[id]
}

var statusNames = map[uint8]string{
	StatusSuccess:             "SUCCESS",
	StatusFailure:             "FAILURE",
	StatusNotAuthorized:       "NOT_AUTHORIZED",
	StatusMalformedCommand:    "MALFORMED_COMMAND",
	StatusUnsupClusterCommand: "UNSUP_CLUSTER_COMMAND",
	StatusUnsupportedAttr:     "UNSUPPORTED_ATTRIBUTE",
	StatusInvalidValue:        "INVALID_VALUE",
	StatusReadOnly:            "READ_ONLY",
	StatusNotFound:            "NOT_FOUND",
	StatusInvalidDataType:     "INVALID_DATA_TYPE",
}

// StatusName returns the name of a status code, e.g. "SUCCESS".
func StatusName(status uint8) string {
	if n, ok := statusNames[status]; ok {
		return n
	}
	return fmt.Sprintf("STATUS(0x%02X)", status)
}
