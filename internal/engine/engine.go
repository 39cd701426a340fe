// Package engine implements the single-pass loop that reads a flow log,
// attributes each line to a port/protocol combination and a tag, and
// accumulates the counters the report is built from.
package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/SaiVenkatM/FlowLog-Analyzer/internal/config"
	"github.com/SaiVenkatM/FlowLog-Analyzer/internal/model"
	"github.com/SaiVenkatM/FlowLog-Analyzer/internal/protocol"
	"github.com/SaiVenkatM/FlowLog-Analyzer/internal/rules"
	"github.com/SaiVenkatM/FlowLog-Analyzer/internal/schema"
)

// ErrSourceNotFound is returned when the flow log path does not exist.
var ErrSourceNotFound = errors.New("flow log does not exist")

// lineBuffer is the channel capacity between the reader and the workers.
const lineBuffer = 1024

// Engine performs ingestion passes. It holds only immutable collaborators,
// so one engine can serve consecutive passes.
type Engine struct {
	schema    *schema.Schema
	rules     *rules.Table
	protocols *protocol.Resolver
	delimiter string
	workers   int
	log       zerolog.Logger
}

// New creates an engine from its collaborators. Worker counts below one
// are raised to one and an empty delimiter falls back to a single space.
func New(cfg config.EngineConfig, sch *schema.Schema, table *rules.Table, resolver *protocol.Resolver, log zerolog.Logger) *Engine {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	delimiter := cfg.Delimiter
	if delimiter == "" {
		delimiter = " "
	}
	return &Engine{
		schema:    sch,
		rules:     table,
		protocols: resolver,
		delimiter: delimiter,
		workers:   workers,
		log:       log.With().Str("component", "engine").Logger(),
	}
}

// Process reads the flow log at path and returns the accumulated counters.
// "-" reads from stdin and a .gz suffix enables transparent decompression.
// Unreadable lines are counted as skipped, never returned as errors; only
// source-level failures (missing file, read error, cancellation) abort the
// pass.
func (e *Engine) Process(ctx context.Context, path string) (*model.AggregateState, error) {
	reader, cleanup, err := e.openSource(path)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var state *model.AggregateState
	if e.workers == 1 {
		state, err = e.runSequential(ctx, reader)
	} else {
		state, err = e.runParallel(ctx, reader)
	}
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Int64("processed", state.Processed).
		Int64("skipped", state.Skipped).
		Int64("tagged", state.Tagged()).
		Int64("untagged", state.Untagged).
		Int("combinations", len(state.PortProtocolCounts)).
		Msg("flow log pass complete")
	return state, nil
}

// openSource resolves the path to a line reader plus a cleanup func.
func (e *Engine) openSource(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, nil, fmt.Errorf("opening flow log %s: %w", path, err)
	}

	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("opening compressed flow log %s: %w", path, err)
		}
		return gz, func() {
			gz.Close()
			f.Close()
		}, nil
	}

	return f, func() { f.Close() }, nil
}

func (e *Engine) runSequential(ctx context.Context, r io.Reader) (*model.AggregateState, error) {
	state := model.NewAggregateState()
	scanner := newScanner(r)

	var lineNum int64
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		lineNum++
		e.consume(state, scanner.Text(), lineNum)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading flow log: %w", err)
	}

	return state, nil
}

type numberedLine struct {
	num  int64
	text string
}

// runParallel fans lines out to workers that each own a private shard, then
// merges the shards. Addition is order-independent, so the merged counters
// match what a sequential pass would produce.
func (e *Engine) runParallel(ctx context.Context, r io.Reader) (*model.AggregateState, error) {
	lines := make(chan numberedLine, lineBuffer)
	shards := make([]*model.AggregateState, e.workers)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(lines)
		scanner := newScanner(r)
		var lineNum int64
		for scanner.Scan() {
			lineNum++
			select {
			case lines <- numberedLine{num: lineNum, text: scanner.Text()}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading flow log: %w", err)
		}
		return nil
	})

	for i := 0; i < e.workers; i++ {
		shard := model.NewAggregateState()
		shards[i] = shard
		g.Go(func() error {
			for line := range lines {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				e.consume(shard, line.text, line.num)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	state := model.NewAggregateState()
	for _, shard := range shards {
		state.Merge(shard)
	}
	return state, nil
}

// consume attributes one line to the state counters. The processed counter
// moves first so it covers lines that are skipped afterwards.
func (e *Engine) consume(state *model.AggregateState, line string, num int64) {
	state.Processed++

	rec, err := e.schema.Resolve(e.split(line))
	if err != nil {
		state.Skipped++
		e.log.Debug().Int64("line", num).Err(err).Msg("line skipped")
		return
	}

	port, ok := rec.Int(schema.FieldDstPort)
	if !ok {
		state.Skipped++
		e.log.Debug().Int64("line", num).Msg("line skipped: no destination port")
		return
	}

	proto, ok := rec.Raw(schema.FieldProtocol)
	if !ok || proto == "" || proto == schema.Sentinel {
		state.Skipped++
		e.log.Debug().Int64("line", num).Msg("line skipped: no protocol")
		return
	}

	key := model.PortProtocol{
		Port:     strconv.FormatInt(port, 10),
		Protocol: e.protocols.Resolve(proto),
	}
	state.PortProtocolCounts[key]++

	if tag, found := e.rules.Lookup(key.Port, key.Protocol); found {
		state.TagCounts[tag]++
	} else {
		state.Untagged++
	}
}

// split trims the line, splits it on the delimiter and trims each token.
// Repeated delimiters produce empty tokens, which count toward the token
// total and resolve as absent values.
func (e *Engine) split(line string) []string {
	tokens := strings.Split(strings.TrimSpace(line), e.delimiter)
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}
	return tokens
}

// newScanner sizes the scanner above bufio's default token limit; records
// with the full ECS field set run long.
func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return scanner
}
