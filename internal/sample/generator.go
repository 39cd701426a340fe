// Package sample generates example rule and flow log files for local runs
// and benchmarks.
package sample

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Options configures sample file generation.
type Options struct {
	// RulesPath receives the CSV rule table.
	RulesPath string

	// LogPath receives the flow log.
	LogPath string

	// Lines is the number of flow log records to write.
	Lines int

	// Seed makes generation reproducible; zero seeds from the clock.
	Seed int64
}

// defaultLines keeps an unconfigured run useful.
const defaultLines = 50000

// exampleRules is the rule set written to the rule file. Roughly half the
// generated destination ports fall outside it, so reports show both tagged
// and untagged traffic.
var exampleRules = []struct {
	Port     int
	Protocol string
	Tag      string
}{
	{25, "tcp", "sv_P1"},
	{68, "udp", "sv_P2"},
	{23, "tcp", "sv_P1"},
	{31, "udp", "SV_P3"},
	{443, "tcp", "sv_P2"},
	{22, "tcp", "sv_P4"},
	{3389, "tcp", "sv_P5"},
	{0, "icmp", "sv_P5"},
	{110, "tcp", "email"},
	{993, "tcp", "email"},
	{143, "tcp", "email"},
}

// Generate writes the rule file and the flow log described by opts.
func Generate(opts Options, log zerolog.Logger) error {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	lines := opts.Lines
	if lines <= 0 {
		lines = defaultLines
	}

	if err := writeRules(opts.RulesPath); err != nil {
		return fmt.Errorf("writing rule file: %w", err)
	}

	if err := writeFlowLog(opts.LogPath, lines, rng); err != nil {
		return fmt.Errorf("writing flow log: %w", err)
	}

	log.Info().
		Str("rules", opts.RulesPath).
		Str("flowlog", opts.LogPath).
		Int("lines", lines).
		Int64("seed", seed).
		Msg("sample files generated")
	return nil
}

func writeRules(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"dstport", "protocol", "tag"}); err != nil {
		f.Close()
		return err
	}
	for _, r := range exampleRules {
		if err := w.Write([]string{strconv.Itoa(r.Port), r.Protocol, r.Tag}); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeFlowLog(path string, lines int, rng *rand.Rand) error {
	accountIDs := make([]string, 10)
	for i := range accountIDs {
		accountIDs[i] = strconv.FormatInt(100000000000+rng.Int63n(900000000000), 10)
	}

	eniIDs := make([]string, 10)
	for i := range eniIDs {
		eniIDs[i] = fmt.Sprintf("eni-%db8ca%d", 1000000+rng.Intn(9000000), 100000000+rng.Intn(900000000))
	}

	ips := make([]string, 50)
	for i := range ips {
		ips[i] = fmt.Sprintf("172.31.%d.%d", rng.Intn(256), rng.Intn(256))
	}

	// Ports mix the rule table's ports with random high ports.
	ports := make([]int, 0, len(exampleRules)+20)
	for _, r := range exampleRules {
		ports = append(ports, r.Port)
	}
	for i := 0; i < 20; i++ {
		ports = append(ports, 1000+rng.Intn(64001))
	}

	// Records carry the numeric protocol form, as version 2 logs do.
	protocols := []string{"6", "17", "1"}
	actions := []string{"ACCEPT", "REJECT"}
	statuses := []string{"OK", "FAIL"}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	for i := 0; i < lines; i++ {
		_, err := fmt.Fprintf(w, "2 %s %s %s %s %d %d %s %d %d %d %d %s %s\n",
			pick(rng, accountIDs),
			pick(rng, eniIDs),
			pick(rng, ips),
			pick(rng, ips),
			ports[rng.Intn(len(ports))],
			ports[rng.Intn(len(ports))],
			pick(rng, protocols),
			1+rng.Intn(1000),
			64+rng.Intn(1437),
			1418530000+rng.Intn(10000),
			1418530000+rng.Intn(10000),
			pick(rng, actions),
			pick(rng, statuses),
		)
		if err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}
