// Package model defines the core data structures shared across the analyzer.
package model

// PortProtocol identifies a destination port / protocol name combination.
// Port is the decimal string form of the destination port and Protocol is
// the lowercase protocol name, so the zero-padded "0443" and "443" collapse
// to the same key after normalization.
type PortProtocol struct {
	Port     string
	Protocol string
}

// AggregateState accumulates the counters produced by one ingestion pass
// over a flow log. It is not safe for concurrent mutation; parallel workers
// each own a private state and combine them with Merge afterwards.
type AggregateState struct {
	// TagCounts maps a tag to the number of records that matched it.
	TagCounts map[string]int64

	// PortProtocolCounts maps each observed destination port / protocol
	// combination to its occurrence count, tagged or not.
	PortProtocolCounts map[PortProtocol]int64

	// Untagged counts records whose port/protocol matched no rule.
	Untagged int64

	// Processed counts every line consumed from the source, including
	// lines that were later skipped.
	Processed int64

	// Skipped counts lines that could not be attributed to a
	// port/protocol combination.
	Skipped int64
}

// NewAggregateState creates an empty AggregateState with initialized maps.
func NewAggregateState() *AggregateState {
	return &AggregateState{
		TagCounts:          make(map[string]int64),
		PortProtocolCounts: make(map[PortProtocol]int64),
	}
}

// Merge folds other into s by plain addition. Counters never overlap
// between worker shards, so addition preserves the totals a sequential
// pass would have produced.
func (s *AggregateState) Merge(other *AggregateState) {
	if other == nil {
		return
	}
	for tag, n := range other.TagCounts {
		s.TagCounts[tag] += n
	}
	for key, n := range other.PortProtocolCounts {
		s.PortProtocolCounts[key] += n
	}
	s.Untagged += other.Untagged
	s.Processed += other.Processed
	s.Skipped += other.Skipped
}

// Tagged returns the total number of records that matched a rule.
func (s *AggregateState) Tagged() int64 {
	var total int64
	for _, n := range s.TagCounts {
		total += n
	}
	return total
}
