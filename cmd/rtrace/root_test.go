package main

import (
	"bytes"
	"testing"
)

func execDryRun(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append(args, "--dry-run"))
	return buf, cmd.Execute()
}

func TestRootCommand_RequiresTarget(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--dry-run"})

	if err := cmd.Execute(); err == nil {
		t.Error("expected error when no target provided")
	}
}

func TestRootCommand_AcceptsTarget(t *testing.T) {
	if _, err := execDryRun(t, "example.com"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRootCommand_RejectsInvalidProtocol(t *testing.T) {
	if _, err := execDryRun(t, "example.com", "--protocol", "tcp"); err == nil {
		t.Error("expected error for unsupported protocol")
	}
}

func TestRootCommand_RejectsConflictingFamilies(t *testing.T) {
	if _, err := execDryRun(t, "example.com", "-4", "-6"); err == nil {
		t.Error("expected error when both -4 and -6 are given")
	}
}

func TestRootCommand_ParsesProbeFlags(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"example.com", "--protocol", "icmp", "--max-hops", "20",
		"--first-hop", "3", "--tries", "2", "--timeout", "500", "--port", "34000", "--dry-run"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v, _ := cmd.Flags().GetString("protocol"); v != "icmp" {
		t.Errorf("expected protocol icmp, got %q", v)
	}
	if v, _ := cmd.Flags().GetInt("max-hops"); v != 20 {
		t.Errorf("expected max-hops 20, got %d", v)
	}
	if v, _ := cmd.Flags().GetInt("first-hop"); v != 3 {
		t.Errorf("expected first-hop 3, got %d", v)
	}
	if v, _ := cmd.Flags().GetInt("tries"); v != 2 {
		t.Errorf("expected tries 2, got %d", v)
	}
	if v, _ := cmd.Flags().GetInt("timeout"); v != 500 {
		t.Errorf("expected timeout 500, got %d", v)
	}
	if v, _ := cmd.Flags().GetInt("port"); v != 34000 {
		t.Errorf("expected port 34000, got %d", v)
	}
}

func TestResolveTarget_ParsesLiteralIPs(t *testing.T) {
	ip, err := ResolveTarget("192.0.2.1", AddressFamilyAuto)
	if err != nil || ip.String() != "192.0.2.1" {
		t.Errorf("expected 192.0.2.1, got %v (err %v)", ip, err)
	}

	ip, err = ResolveTarget("2001:db8::1", AddressFamilyAuto)
	if err != nil || ip.String() != "2001:db8::1" {
		t.Errorf("expected 2001:db8::1, got %v (err %v)", ip, err)
	}
}

func TestResolveTarget_RejectsFamilyMismatch(t *testing.T) {
	if _, err := ResolveTarget("192.0.2.1", AddressFamilyIPv6); err == nil {
		t.Error("expected error resolving IPv4 literal with -6")
	}
	if _, err := ResolveTarget("2001:db8::1", AddressFamilyIPv4); err == nil {
		t.Error("expected error resolving IPv6 literal with -4")
	}
}
