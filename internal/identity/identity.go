// Package identity resolves this process's fixed role from the host's
// CPU serial number (spec.md §6: "process identity derives from
// /proc/cpuinfo 'Serial' field; maps to a fixed {Camera, role}
// enumeration"). The lookup table itself is a compiled constant, like
// every other piece of static configuration in this system (spec.md
// §6: "No CLI flags; no config file").
package identity

import (
	"bufio"
	"os"
	"strings"
)

// Entry is one robot's resolved identity: which camera model it carries
// and what role that gives it (only the "shooter" role changes camera
// crop behaviour today, per internal/camera's fixed row-crop policy).
type Entry struct {
	Serial     string
	CameraID   string
	CameraRole string
}

// Table maps a CPU serial to its fixed identity entry. Populated by the
// binary's wiring code (cmd/visiond), not by this package, since the
// actual robot/camera fleet roster is deployment-specific data, not a
// constant this library can hardcode.
type Table map[string]Entry

// cpuinfoPath is the standard Linux path; overridable only by tests.
var cpuinfoPath = "/proc/cpuinfo"

// ReadSerial reads the "Serial" line out of /proc/cpuinfo, the same
// field original_source's identity lookup keys on. Returns "" if the
// file has no such line (e.g. non-Raspberry-Pi hardware), which Resolve
// treats as an unknown identity rather than an error.
func ReadSerial() (string, error) {
	f, err := os.Open(cpuinfoPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "Serial") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", nil
}

// Resolve looks up serial in the table. Known is false whenever serial
// is absent from the table (including the empty string from hardware
// with no cpuinfo serial at all): spec.md §6/§7 treats every such case
// the same way, not as a fatal error like camera.ModeTable.Lookup's
// unknown-model case — "Unknown identity ⇒ connect to localhost, enable
// fake gyro" is a supported path, not a startup failure.
func (t Table) Resolve(serial string) (Entry, bool) {
	e, ok := t[serial]
	return e, ok
}
