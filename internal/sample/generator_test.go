package sample

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/SaiVenkatM/FlowLog-Analyzer/internal/rules"
)

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		RulesPath: filepath.Join(dir, "mapping.csv"),
		LogPath:   filepath.Join(dir, "flow_logs.txt"),
		Lines:     200,
		Seed:      42,
	}

	if err := Generate(opts, zerolog.Nop()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The rule file loads cleanly and carries every example rule.
	table, err := rules.Load(opts.RulesPath, zerolog.Nop())
	if err != nil {
		t.Fatalf("loading generated rules: %v", err)
	}
	if table.Len() != len(exampleRules) {
		t.Errorf("expected %d rules, got %d", len(exampleRules), table.Len())
	}
	if tag, ok := table.Lookup("443", "tcp"); !ok || tag != "sv_P2" {
		t.Errorf("expected 443/tcp -> sv_P2 in generated rules, got %q (present=%v)", tag, ok)
	}

	f, err := os.Open(opts.LogPath)
	if err != nil {
		t.Fatalf("opening generated flow log: %v", err)
	}
	defer f.Close()

	var count int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
		tokens := strings.Split(scanner.Text(), " ")
		if len(tokens) != 14 {
			t.Fatalf("line %d has %d tokens, expected 14: %q", count, len(tokens), scanner.Text())
		}
		if tokens[0] != "2" {
			t.Fatalf("line %d has version %q, expected 2", count, tokens[0])
		}
		if proto := tokens[7]; proto != "6" && proto != "17" && proto != "1" {
			t.Fatalf("line %d has unexpected protocol token %q", count, proto)
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("reading generated flow log: %v", err)
	}

	if count != opts.Lines {
		t.Errorf("expected %d lines, got %d", opts.Lines, count)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	dir := t.TempDir()

	first := Options{
		RulesPath: filepath.Join(dir, "a.csv"),
		LogPath:   filepath.Join(dir, "a.txt"),
		Lines:     100,
		Seed:      7,
	}
	second := Options{
		RulesPath: filepath.Join(dir, "b.csv"),
		LogPath:   filepath.Join(dir, "b.txt"),
		Lines:     100,
		Seed:      7,
	}

	if err := Generate(first, zerolog.Nop()); err != nil {
		t.Fatalf("first generation failed: %v", err)
	}
	if err := Generate(second, zerolog.Nop()); err != nil {
		t.Fatalf("second generation failed: %v", err)
	}

	a, err := os.ReadFile(first.LogPath)
	if err != nil {
		t.Fatalf("reading first flow log: %v", err)
	}
	b, err := os.ReadFile(second.LogPath)
	if err != nil {
		t.Fatalf("reading second flow log: %v", err)
	}

	if string(a) != string(b) {
		t.Error("expected identical flow logs for identical seeds")
	}
}

func TestGenerate_DefaultLines(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		RulesPath: filepath.Join(dir, "mapping.csv"),
		LogPath:   filepath.Join(dir, "flow_logs.txt"),
		Seed:      1,
	}

	if err := Generate(opts, zerolog.Nop()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(opts.LogPath)
	if err != nil {
		t.Fatalf("stat generated flow log: %v", err)
	}

	// 50000 records of ~110 bytes each.
	if info.Size() < 1<<20 {
		t.Errorf("expected a multi-megabyte default flow log, got %d bytes", info.Size())
	}
}
