// Package orchestrator wires together metadata, slottable, writer, feed,
// reader and consumer into the running system of §1-2: it computes the
// partition count P from the filtered instrument catalog, creates the slot
// table, starts one feed worker per partition plus the single consumer,
// and tears everything down together the moment any of them fails fatally
// or ctx is cancelled. Grounded on the scoped-parallelism shape of the
// teacher's main.go (one goroutine per exchange, joined at the end),
// generalized from a sync.WaitGroup join to an errgroup.Group join so a
// Configuration/Protocol fatal in one worker halts every other one, per §7.
package orchestrator

import (
	"context"
	"log"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/htxfanin/tickfeed/config"
	"github.com/htxfanin/tickfeed/consumer"
	"github.com/htxfanin/tickfeed/feed"
	"github.com/htxfanin/tickfeed/ferrors"
	"github.com/htxfanin/tickfeed/metadata"
	"github.com/htxfanin/tickfeed/reader"
	"github.com/htxfanin/tickfeed/slottable"
	"github.com/htxfanin/tickfeed/writer"
)

// Run fetches the filtered instrument catalog, partitions it into groups
// of at most cfg.PartitionWidth, creates the slot table sized to exactly
// that many partitions, and drives one feed worker per partition plus the
// consumer to completion. It returns the first fatal error encountered
// (typically a *ferrors.Fatal), or nil on a clean shutdown via ctx.
func Run(ctx context.Context, cfg *config.Config, httpClient *http.Client) error {
	instruments, err := metadata.FetchFiltered(ctx, httpClient, cfg.RestBaseURL)
	if err != nil {
		return ferrors.Configf("orchestrator: fetch instrument catalog: %w", err)
	}
	log.Printf("orchestrator: %d instruments passed the filter", len(instruments))

	partitions := partition(instruments, cfg.PartitionWidth)
	log.Printf("orchestrator: %d partitions of up to %d instruments", len(partitions), cfg.PartitionWidth)

	slotsPerPartition := cfg.PartitionWidth
	table, err := slottable.Create(cfg.MappingPath, len(partitions), slotsPerPartition, cfg.SlotStride)
	if err != nil {
		return ferrors.Configf("orchestrator: create slot table: %w", err)
	}
	defer table.Close()

	// seq is shared by every writer.Writer and the single reader.Reader so
	// each release store (Writer.Write) pairs with the matching acquire
	// load (Reader.ReadNext) on the same slot's counter, per slottable.SeqLocks.
	seq := slottable.NewSeqLocks(len(partitions) * slotsPerPartition)

	eg, egCtx := errgroup.WithContext(ctx)

	for p, group := range partitions {
		p, group := p, group
		view, err := table.WriterView(p)
		if err != nil {
			return ferrors.Configf("orchestrator: writer view for partition %d: %w", p, err)
		}

		w, err := writer.New(uint64(p), cfg.SlotStride, slotsPerPartition, view, seq)
		if err != nil {
			return ferrors.Configf("orchestrator: build writer for partition %d: %w", p, err)
		}

		worker := feed.New(p, group, cfg.WSURL, cfg.Reconnect, cfg.ReconnectBackoff, cfg.InflateBufferSize)
		eg.Go(func() error {
			return worker.Run(egCtx, w)
		})
	}

	r := reader.New(table.ReaderView(), cfg.SlotStride, len(partitions)*slotsPerPartition, seq)
	c := consumer.New(r, cfg.LatencyWindow)
	eg.Go(func() error {
		return c.Run(egCtx)
	})

	return eg.Wait()
}

// partition splits instruments into contiguous groups of at most width
// each, preserving catalog order within and across groups. A group's index
// in the returned slice is its partition id; an instrument's index within
// its group is its slot index, matching feed.New's routing convention.
func partition(instruments []string, width int) [][]string {
	if width <= 0 {
		return nil
	}
	var out [][]string
	for start := 0; start < len(instruments); start += width {
		end := start + width
		if end > len(instruments) {
			end = len(instruments)
		}
		out = append(out, instruments[start:end])
	}
	return out
}
