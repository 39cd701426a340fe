package protocol

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestResolve_Builtin(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{name: "tcp", token: "6", want: "tcp"},
		{name: "udp", token: "17", want: "udp"},
		{name: "icmp", token: "1", want: "icmp"},
		{name: "gre", token: "47", want: "gre"},
		{name: "esp", token: "50", want: "esp"},
		{name: "ah", token: "51", want: "ah"},
		{name: "ipv6-icmp", token: "58", want: "ipv6-icmp"},
		{name: "sctp", token: "132", want: "sctp"},
		{name: "unassigned number passes through", token: "253", want: "253"},
		{name: "name token passes through", token: "tcp", want: "tcp"},
		{name: "name token lowercased", token: "TCP", want: "tcp"},
		{name: "surrounding space trimmed", token: " 6 ", want: "tcp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(tt.token); got != tt.want {
				t.Errorf("Resolve(%q) = %q, expected %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "protocol-numbers.csv")

	registry := `Decimal,Keyword,Protocol,IPv6 Extension Header,Reference
0,HOPOPT,IPv6 Hop-by-Hop Option,Y,[RFC8200]
6,TCP,Transmission Control,,[RFC9293]
17,UDP,User Datagram,,[RFC768]
58,IPv6-ICMP,ICMP for IPv6,,[RFC8200]
139,,,,unassigned keyword
144-252,,Unassigned,,
255,Reserved,,,
`
	if err := os.WriteFile(path, []byte(registry), 0o644); err != nil {
		t.Fatalf("writing registry fixture: %v", err)
	}

	r := LoadRegistry(path, zerolog.Nop())

	// 0, 6, 17, 58, 255 carry integer decimals and keywords; the blank
	// keyword and the range row are dropped.
	if r.Size() != 5 {
		t.Errorf("expected 5 protocols, got %d", r.Size())
	}

	if got := r.Resolve("6"); got != "tcp" {
		t.Errorf("expected tcp, got %q", got)
	}

	if got := r.Resolve("58"); got != "ipv6-icmp" {
		t.Errorf("expected lowercased ipv6-icmp, got %q", got)
	}

	if got := r.Resolve("150"); got != "150" {
		t.Errorf("expected range row to stay unmapped, got %q", got)
	}
}

func TestLoadRegistry_MissingFileFallsBack(t *testing.T) {
	r := LoadRegistry(filepath.Join(t.TempDir(), "absent.csv"), zerolog.Nop())

	if r.Size() != len(builtin) {
		t.Errorf("expected built-in set of %d, got %d", len(builtin), r.Size())
	}

	if got := r.Resolve("6"); got != "tcp" {
		t.Errorf("expected built-in tcp mapping, got %q", got)
	}
}

func TestLoadRegistry_MissingColumnsFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(path, []byte("Number,Name\n6,TCP\n"), 0o644); err != nil {
		t.Fatalf("writing registry fixture: %v", err)
	}

	r := LoadRegistry(path, zerolog.Nop())

	if r.Size() != len(builtin) {
		t.Errorf("expected fallback to built-in set, got %d entries", r.Size())
	}
}

func TestLoadRegistry_EmptyFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(path, []byte("Decimal,Keyword\n144-252,\n"), 0o644); err != nil {
		t.Fatalf("writing registry fixture: %v", err)
	}

	r := LoadRegistry(path, zerolog.Nop())

	if r.Size() != len(builtin) {
		t.Errorf("expected fallback to built-in set, got %d entries", r.Size())
	}
}
