package protocol

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Version formats follow Daktus Studio conventions: semantic
// MAJOR.MINOR.PATCH versions with an optional "v" prefix, and
// DD-MM-YYYY-HHMM timestamps in exported filenames.

// FallbackVersion is used when no valid version can be determined.
const FallbackVersion = "0.1.1"

// daktusTimestampLayout is the DD-MM-YYYY-HHMM filename timestamp.
const daktusTimestampLayout = "02-01-2006-1504"

var filenameVersionRe = regexp.MustCompile(`v?(\d+\.\d+\.\d+)`)

// Increment types for IncrementVersion.
const (
	IncrementMajor = "major"
	IncrementMinor = "minor"
	IncrementPatch = "patch"
)

// ExtractVersionFromProtocol reads metadata.version, strips any "v"
// prefix, and returns it when it is a valid three-part numeric version.
func ExtractVersionFromProtocol(p Protocol) (string, bool) {
	raw, ok := p.Metadata()["version"].(string)
	if !ok {
		return "", false
	}

	version := strings.TrimLeft(raw, "v")
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return "", false
	}
	for _, part := range parts {
		if _, err := strconv.Atoi(part); err != nil {
			return "", false
		}
	}
	return version, true
}

// IncrementVersion bumps a MAJOR.MINOR.PATCH version. Missing trailing
// components count as zero; an unparsable version yields the fallback.
// Any increment type other than "major" or "minor" bumps the patch.
func IncrementVersion(version, incrementType string) string {
	version = strings.TrimLeft(version, "v")

	parts := strings.Split(version, ".")
	nums := [3]int{}
	for i := 0; i < 3 && i < len(parts); i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return FallbackVersion
		}
		nums[i] = n
	}

	switch incrementType {
	case IncrementMajor:
		nums[0]++
		nums[1] = 0
		nums[2] = 0
	case IncrementMinor:
		nums[1]++
		nums[2] = 0
	default:
		nums[2]++
	}

	return fmt.Sprintf("%d.%d.%d", nums[0], nums[1], nums[2])
}

// ExtractVersionFromFilename finds the first MAJOR.MINOR.PATCH version in
// a filename, with or without a "v" prefix.
func ExtractVersionFromFilename(filename string) (string, bool) {
	m := filenameVersionRe.FindStringSubmatch(filename)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// DaktusTimestamp formats a time in the Daktus Studio filename format.
func DaktusTimestamp(t time.Time) string {
	return t.Format(daktusTimestampLayout)
}

// GenerateOutputFilename names the protocol export file as
// {company}_{name}_v{version}_{timestamp}.json, bumping the patch version.
//
// The current version comes from the protocol metadata, then the original
// filename, then the fallback. Returns the filename and the incremented
// version so the caller can stamp it back into the protocol.
func GenerateOutputFilename(p Protocol, protocolPath string, now time.Time) (string, string) {
	current, ok := ExtractVersionFromProtocol(p)
	if !ok {
		stem := strings.TrimSuffix(filepath.Base(protocolPath), filepath.Ext(protocolPath))
		current, ok = ExtractVersionFromFilename(stem)
	}
	if !ok {
		current = FallbackVersion
	}

	newVersion := IncrementVersion(current, IncrementPatch)
	filename := fmt.Sprintf("%s_%s_v%s_%s.json", p.Company(), p.Name(), newVersion, DaktusTimestamp(now))

	return filename, newVersion
}

// UpdateProtocolVersion sets metadata.version, creating the metadata
// block when absent. The protocol is modified in place and returned.
func UpdateProtocolVersion(p Protocol, newVersion string) Protocol {
	metadata := p.Metadata()
	if metadata == nil {
		metadata = map[string]any{}
		p["metadata"] = metadata
	}
	metadata["version"] = newVersion
	return p
}
