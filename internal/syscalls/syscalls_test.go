// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package syscalls

import (
	"testing"

	"github.com/aegisflux/cgfence/internal/errors"
)

func TestNumber(t *testing.T) {
	cases := []struct {
		name string
		want uint32
	}{
		{"execve", 59},
		{"execveat", 322},
		{"ptrace", 101},
		{"connect", 42},
		{"mount", 165},
	}
	for _, c := range cases {
		nr, err := Number(c.name)
		if err != nil {
			t.Fatalf("Number(%q) returned error: %v", c.name, err)
		}
		if nr != c.want {
			t.Errorf("Number(%q) = %d, want %d", c.name, nr, c.want)
		}
	}
}

func TestNumberUnknown(t *testing.T) {
	_, err := Number("not_a_syscall")
	if err == nil {
		t.Fatal("expected error for unknown syscall name")
	}
	if errors.GetKind(err) != errors.KindValidation {
		t.Errorf("expected KindValidation, got %v", errors.GetKind(err))
	}
}

func TestNameRoundTrip(t *testing.T) {
	if Name(NrExecve) != "execve" {
		t.Errorf("Name(59) = %q", Name(NrExecve))
	}
	if Name(NrPtrace) != "ptrace" {
		t.Errorf("Name(101) = %q", Name(NrPtrace))
	}
	if Name(9999) != "unknown" {
		t.Errorf("Name(9999) = %q, want unknown", Name(9999))
	}
}

func TestValid(t *testing.T) {
	if !Valid("execve") {
		t.Error("execve should be valid")
	}
	if Valid("") {
		t.Error("empty name should be invalid")
	}
}
