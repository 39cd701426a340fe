// Package report renders the aggregate counters into their final form.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/goccy/go-json"

	"github.com/SaiVenkatM/FlowLog-Analyzer/internal/model"
)

// Format selects the report encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Writer renders counter snapshots. Rows are ordered by lexicographic
// string comparison, so the same counters always render to the same bytes
// regardless of how the maps were populated.
type Writer struct {
	format Format
	stdout io.Writer
}

// NewWriter creates a writer for the given format, defaulting to text.
func NewWriter(format Format) *Writer {
	if format == "" {
		format = FormatText
	}
	return &Writer{format: format, stdout: os.Stdout}
}

// Render returns the encoded report.
func (w *Writer) Render(state *model.AggregateState) ([]byte, error) {
	switch w.format {
	case FormatJSON:
		return w.renderJSON(state)
	default:
		return w.renderText(state), nil
	}
}

// Write renders the state and writes it to path in one shot, replacing any
// previous report. The path "-" writes to standard output instead.
func (w *Writer) Write(state *model.AggregateState, path string) error {
	data, err := w.Render(state)
	if err != nil {
		return err
	}
	if path == "-" {
		if _, err := w.stdout.Write(data); err != nil {
			return fmt.Errorf("writing report to stdout: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

func (w *Writer) renderText(state *model.AggregateState) []byte {
	var buf bytes.Buffer

	buf.WriteString("Tag Counts:\n")
	buf.WriteString("Tag,Count\n")
	for _, tag := range sortedTags(state) {
		fmt.Fprintf(&buf, "%s,%d\n", tag, state.TagCounts[tag])
	}
	fmt.Fprintf(&buf, "Untagged,%d\n\n", state.Untagged)

	buf.WriteString("Port/Protocol Combination Counts:\n")
	buf.WriteString("Port,Protocol,Count\n")
	for _, key := range sortedCombinations(state) {
		fmt.Fprintf(&buf, "%s,%s,%d\n", key.Port, key.Protocol, state.PortProtocolCounts[key])
	}

	fmt.Fprintf(&buf, "\nProcessed Lines: %d\nSkipped Lines: %d\n", state.Processed, state.Skipped)

	return buf.Bytes()
}

type tagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

type combinationCount struct {
	Port     string `json:"port"`
	Protocol string `json:"protocol"`
	Count    int64  `json:"count"`
}

type jsonReport struct {
	TagCounts          []tagCount         `json:"tag_counts"`
	Untagged           int64              `json:"untagged"`
	PortProtocolCounts []combinationCount `json:"port_protocol_counts"`
	ProcessedLines     int64              `json:"processed_lines"`
	SkippedLines       int64              `json:"skipped_lines"`
}

func (w *Writer) renderJSON(state *model.AggregateState) ([]byte, error) {
	out := jsonReport{
		TagCounts:          make([]tagCount, 0, len(state.TagCounts)),
		Untagged:           state.Untagged,
		PortProtocolCounts: make([]combinationCount, 0, len(state.PortProtocolCounts)),
		ProcessedLines:     state.Processed,
		SkippedLines:       state.Skipped,
	}
	for _, tag := range sortedTags(state) {
		out.TagCounts = append(out.TagCounts, tagCount{Tag: tag, Count: state.TagCounts[tag]})
	}
	for _, key := range sortedCombinations(state) {
		out.PortProtocolCounts = append(out.PortProtocolCounts, combinationCount{
			Port:     key.Port,
			Protocol: key.Protocol,
			Count:    state.PortProtocolCounts[key],
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return append(data, '\n'), nil
}

func sortedTags(state *model.AggregateState) []string {
	tags := make([]string, 0, len(state.TagCounts))
	for tag := range state.TagCounts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// sortedCombinations orders keys by port string, then protocol. Ports
// compare as strings, so "1000" sorts ahead of "25".
func sortedCombinations(state *model.AggregateState) []model.PortProtocol {
	keys := make([]model.PortProtocol, 0, len(state.PortProtocolCounts))
	for key := range state.PortProtocolCounts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Port != keys[j].Port {
			return keys[i].Port < keys[j].Port
		}
		return keys[i].Protocol < keys[j].Protocol
	})
	return keys
}
