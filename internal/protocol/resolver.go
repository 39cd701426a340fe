// Package protocol maps numeric IP protocol identifiers to canonical
// lowercase names, with an optional IANA-style registry overriding the
// built-in set.
package protocol

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// builtin covers the protocols flow logs carry in practice. A registry
// loaded from disk replaces this set entirely.
var builtin = map[string]string{
	"1":   "icmp",
	"6":   "tcp",
	"17":  "udp",
	"47":  "gre",
	"50":  "esp",
	"51":  "ah",
	"58":  "ipv6-icmp",
	"132": "sctp",
}

// Resolver translates protocol tokens to names. The mapping is fixed at
// construction, so lookups are safe from any number of goroutines.
type Resolver struct {
	names map[string]string
}

// NewResolver returns a resolver backed by the built-in protocol set.
func NewResolver() *Resolver {
	names := make(map[string]string, len(builtin))
	for num, name := range builtin {
		names[num] = name
	}
	return &Resolver{names: names}
}

// Resolve maps a protocol token to its lowercase name. Unknown tokens come
// back trimmed and lowercased but otherwise unchanged, so logs that already
// carry names like "tcp" keep working, and unassigned numbers stay visible
// as numbers in the report.
func (r *Resolver) Resolve(token string) string {
	key := strings.ToLower(strings.TrimSpace(token))
	if name, ok := r.names[key]; ok {
		return name
	}
	return key
}

// Size returns the number of known protocol mappings.
func (r *Resolver) Size() int {
	return len(r.names)
}

// LoadRegistry builds a resolver from a CSV export of the IANA protocol
// numbers registry. Rows need a Decimal column holding a single integer and
// a non-empty Keyword column; anything else (ranges, reserved rows, blank
// keywords) is ignored. Any failure to read or parse the file logs a warning
// and falls back to the built-in set; registry problems never abort a run.
func LoadRegistry(path string, log zerolog.Logger) *Resolver {
	f, err := os.Open(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("protocol registry unavailable, using built-in set")
		return NewResolver()
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("protocol registry unreadable, using built-in set")
		return NewResolver()
	}

	decimalIdx, keywordIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "decimal":
			decimalIdx = i
		case "keyword":
			keywordIdx = i
		}
	}
	if decimalIdx < 0 || keywordIdx < 0 {
		log.Warn().Str("path", path).Msg("protocol registry missing Decimal or Keyword column, using built-in set")
		return NewResolver()
	}

	names := make(map[string]string)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("protocol registry malformed, using built-in set")
			return NewResolver()
		}
		if decimalIdx >= len(row) || keywordIdx >= len(row) {
			continue
		}
		num, err := strconv.Atoi(strings.TrimSpace(row[decimalIdx]))
		if err != nil {
			// ranges like "144-252" and reserved rows land here
			continue
		}
		keyword := strings.ToLower(strings.TrimSpace(row[keywordIdx]))
		if keyword == "" {
			continue
		}
		names[strconv.Itoa(num)] = keyword
	}

	if len(names) == 0 {
		log.Warn().Str("path", path).Msg("protocol registry contained no usable rows, using built-in set")
		return NewResolver()
	}

	log.Debug().Int("protocols", len(names)).Str("path", path).Msg("protocol registry loaded")
	return &Resolver{names: names}
}
