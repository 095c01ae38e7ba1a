// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package netutil

import "testing"

func TestParseIPv4RoundTrip(t *testing.T) {
	key, err := ParseIPv4("10.0.0.1")
	if err != nil {
		t.Fatalf("ParseIPv4: %v", err)
	}
	if got := FormatIPv4(key); got != "10.0.0.1" {
		t.Errorf("FormatIPv4(%d) = %q, want 10.0.0.1", key, got)
	}
}

func TestParseIPv4Rejects(t *testing.T) {
	cases := []string{"not-an-ip", "::1", "example.org", ""}
	for _, c := range cases {
		if _, err := ParseIPv4(c); err == nil {
			t.Errorf("ParseIPv4(%q) expected error, got none", c)
		}
	}
}

func TestIsLiteralIPv4(t *testing.T) {
	if !IsLiteralIPv4("127.0.0.1") {
		t.Error("expected 127.0.0.1 to be a literal IPv4")
	}
	if IsLiteralIPv4("example.org") {
		t.Error("expected example.org to not be a literal IPv4")
	}
	if IsLiteralIPv4("::1") {
		t.Error("expected ::1 (v6) to not be a literal IPv4")
	}
}
