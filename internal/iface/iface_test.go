// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package iface

import "testing"

func TestSelectInvalidOperatorArg(t *testing.T) {
	_, err := Select("definitely-not-a-real-interface-xyz")
	if err == nil {
		t.Fatal("expected error for nonexistent interface")
	}
}

func TestSelectLoopbackOperatorArg(t *testing.T) {
	// "lo" exists on essentially every Linux host this runs on, and an
	// operator-supplied name is accepted as-is without an UP/loopback
	// filter (those rules only govern auto-selection).
	name, err := Select("lo")
	if err != nil {
		t.Skipf("no loopback interface on this host: %v", err)
	}
	if name != "lo" {
		t.Errorf("Select(\"lo\") = %q, want \"lo\"", name)
	}
}
