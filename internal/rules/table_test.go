package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapping.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing rule fixture: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeRules(t, `dstport,protocol,tag
25,tcp,sv_P1
68,udp,sv_P2
443,tcp,sv_P2
0,icmp,sv_P5
31,udp,SV_P3
`)

	table, err := Load(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if table.Len() != 5 {
		t.Errorf("expected 5 rules, got %d", table.Len())
	}

	tests := []struct {
		name     string
		port     string
		protocol string
		wantTag  string
		wantOK   bool
	}{
		{name: "smtp", port: "25", protocol: "tcp", wantTag: "sv_P1", wantOK: true},
		{name: "https", port: "443", protocol: "tcp", wantTag: "sv_P2", wantOK: true},
		{name: "port zero", port: "0", protocol: "icmp", wantTag: "sv_P5", wantOK: true},
		{name: "tag case preserved", port: "31", protocol: "udp", wantTag: "SV_P3", wantOK: true},
		{name: "protocol differs", port: "443", protocol: "udp", wantOK: false},
		{name: "port unknown", port: "8080", protocol: "tcp", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, ok := table.Lookup(tt.port, tt.protocol)
			if ok != tt.wantOK {
				t.Fatalf("Lookup(%s, %s) present=%v, expected %v", tt.port, tt.protocol, ok, tt.wantOK)
			}
			if ok && tag != tt.wantTag {
				t.Errorf("expected tag %q, got %q", tt.wantTag, tag)
			}
		})
	}
}

func TestLoad_NormalizesRows(t *testing.T) {
	path := writeRules(t, `dstport,protocol,tag
0443, TCP ,sv_P2
022,UDP,sv_P4
`)

	table, err := Load(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Zero-padded ports collapse to their decimal form and protocols are
	// lowercased, so lookups with normalized line values match.
	if tag, ok := table.Lookup("443", "tcp"); !ok || tag != "sv_P2" {
		t.Errorf("expected 443/tcp -> sv_P2, got %q (present=%v)", tag, ok)
	}

	if tag, ok := table.Lookup("22", "udp"); !ok || tag != "sv_P4" {
		t.Errorf("expected 22/udp -> sv_P4, got %q (present=%v)", tag, ok)
	}

	if _, ok := table.Lookup("0443", "tcp"); ok {
		t.Error("expected padded form to be unreachable after normalization")
	}
}

func TestLoad_DropsInvalidRows(t *testing.T) {
	path := writeRules(t, `dstport,protocol,tag
25,tcp,sv_P1
http,tcp,sv_P9
443,,sv_P9
8080,udp,
110,tcp,email
31,udp
`)

	table, err := Load(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Only the fully valid rows survive: non-integer ports, empty
	// protocols, empty tags and short rows are dropped individually.
	if table.Len() != 2 {
		t.Errorf("expected 2 rules, got %d", table.Len())
	}

	if _, ok := table.Lookup("25", "tcp"); !ok {
		t.Error("expected valid row 25/tcp to survive")
	}

	if _, ok := table.Lookup("110", "tcp"); !ok {
		t.Error("expected valid row 110/tcp to survive")
	}
}

func TestLoad_DuplicateLastWins(t *testing.T) {
	path := writeRules(t, `dstport,protocol,tag
25,tcp,first
25,tcp,second
`)

	table, err := Load(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tag, _ := table.Lookup("25", "tcp"); tag != "second" {
		t.Errorf("expected last duplicate to win, got %q", tag)
	}
}

func TestLoad_MissingColumnLoadsEmpty(t *testing.T) {
	path := writeRules(t, `dstport,tag
25,sv_P1
443,sv_P2
`)

	table, err := Load(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Without a protocol column no row can form a complete rule, but the
	// file itself is well-formed CSV so the load succeeds.
	if table.Len() != 0 {
		t.Errorf("expected empty table, got %d rules", table.Len())
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeRules(t, "")

	table, err := Load(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if table.Len() != 0 {
		t.Errorf("expected empty table, got %d rules", table.Len())
	}
}

func TestLoad_NotExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.csv"), zerolog.Nop())

	if !errors.Is(err, ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestLoad_MalformedQuoting(t *testing.T) {
	path := writeRules(t, "dstport,protocol,tag\n25,tcp,\"unterminated\n")

	_, err := Load(path, zerolog.Nop())

	if !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}
