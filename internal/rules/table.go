// Package rules loads the CSV table that maps destination port / protocol
// combinations to tags.
package rules

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/SaiVenkatM/FlowLog-Analyzer/internal/model"
)

// Load failures callers can test with errors.Is. A missing or structurally
// broken rule file aborts the run; individually bad rows do not.
var (
	ErrNotExist = errors.New("rule file does not exist")
	ErrFormat   = errors.New("malformed rule file")
)

// Table is an in-memory index of tagging rules. It is fixed once loaded,
// so lookups need no locking.
type Table struct {
	rules map[model.PortProtocol]string
}

// Load reads a rule table from a CSV file with dstport, protocol and tag
// columns, matched case-insensitively in the header. Rows with a
// non-integer port, an empty protocol, or an empty tag are logged and
// dropped; the rest of the file still loads. When the same port/protocol
// appears twice the last row wins.
func Load(path string, log zerolog.Logger) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		return nil, fmt.Errorf("opening rule file %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		log.Warn().Str("path", path).Msg("rule file is empty, nothing will be tagged")
		return &Table{rules: make(map[model.PortProtocol]string)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	portIdx, protoIdx, tagIdx := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "dstport":
			portIdx = i
		case "protocol":
			protoIdx = i
		case "tag":
			tagIdx = i
		}
	}

	rules := make(map[model.PortProtocol]string)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		line++

		port, proto, tag, ok := ruleFields(row, portIdx, protoIdx, tagIdx)
		if !ok {
			log.Warn().Int("row", line).Str("path", path).Msg("skipping invalid rule row")
			continue
		}

		key := model.PortProtocol{Port: port, Protocol: proto}
		if prev, dup := rules[key]; dup && prev != tag {
			log.Debug().Str("port", port).Str("protocol", proto).Str("tag", tag).
				Msg("duplicate rule, last occurrence wins")
		}
		rules[key] = tag
	}

	return &Table{rules: rules}, nil
}

// ruleFields extracts and normalizes one row. The port must parse as a
// decimal integer and is re-rendered so zero-padded forms collapse;
// the protocol is lowercased.
func ruleFields(row []string, portIdx, protoIdx, tagIdx int) (port, proto, tag string, ok bool) {
	if portIdx < 0 || protoIdx < 0 || tagIdx < 0 {
		return "", "", "", false
	}
	if portIdx >= len(row) || protoIdx >= len(row) || tagIdx >= len(row) {
		return "", "", "", false
	}

	n, err := strconv.Atoi(strings.TrimSpace(row[portIdx]))
	if err != nil {
		return "", "", "", false
	}

	proto = strings.ToLower(strings.TrimSpace(row[protoIdx]))
	tag = strings.TrimSpace(row[tagIdx])
	if proto == "" || tag == "" {
		return "", "", "", false
	}

	return strconv.Itoa(n), proto, tag, true
}

// Lookup returns the tag for a destination port / protocol name pair.
func (t *Table) Lookup(port, protocol string) (string, bool) {
	tag, ok := t.rules[model.PortProtocol{Port: port, Protocol: protocol}]
	return tag, ok
}

// Len returns the number of loaded rules.
func (t *Table) Len() int {
	return len(t.rules)
}
