package shared

import "strings"

// Bin codes follow the fixed grammar 01<ZONE>-<AISLE>-<POSITION>-<SHELF>,
// ASCII, hyphen-separated. The zone is the first segment with the leading
// "01" stripped. An unparseable code yields the first segment as-is.

const binCodePrefix = "01"

// ZoneFromBinCode extracts the zone code from a warehouse bin code.
//
//	ZoneFromBinCode("01D-02-15-03") == "D"
//	ZoneFromBinCode("DOCK")         == "DOCK"
func ZoneFromBinCode(binCode string) string {
	if binCode == "" {
		return ""
	}

	segment := binCode
	if idx := strings.IndexByte(binCode, '-'); idx >= 0 {
		segment = binCode[:idx]
	}

	if strings.HasPrefix(segment, binCodePrefix) && len(segment) > len(binCodePrefix) {
		return segment[len(binCodePrefix):]
	}

	// Malformed code: conservative default is the raw first segment.
	return segment
}

// ParseBinCode splits a bin code into its four segments. ok is false when the
// code does not have exactly four hyphen-separated segments.
func ParseBinCode(binCode string) (zone, aisle, position, shelf string, ok bool) {
	parts := strings.Split(binCode, "-")
	if len(parts) != 4 {
		return ZoneFromBinCode(binCode), "", "", "", false
	}
	return ZoneFromBinCode(binCode), parts[1], parts[2], parts[3], true
}
