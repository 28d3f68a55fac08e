// Package feed is the dispatch/classification path of §4.4: one worker per
// partition owns an outbound subscription, classifies inbound frames
// (ping/market/status), and routes payloads to slot indices. Grounded on
// the goroutine-per-exchange shape of exchanges/hyperliquid.go and
// exchanges/edgex.go and the reconnect backoff of exchanges/base.go,
// fused with the ping/pong and market.<x>.bbo routing rules of
// cashengine's websocket.rs and lib.rs.
package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/htxfanin/tickfeed/ferrors"
	"github.com/htxfanin/tickfeed/transport"
	"github.com/htxfanin/tickfeed/writer"
)

const (
	pingPrefix = `{"ping`
	marketTag  = "market."
	bboTag     = ".bbo"
	statusTag  = "status"
)

var errGracefulClose = errors.New("feed: transport close frame")

// frameWriter is the minimal outbound capability dispatch and pong need.
// *transport.Conn satisfies it; tests substitute a fake.
type frameWriter interface {
	WriteText(ctx context.Context, payload []byte) error
}

// Worker owns one partition's outbound subscription and inbound dispatch.
// A Worker is driven by a single goroutine.
type Worker struct {
	partitionID int
	instruments []string
	routing     map[string]int // instrument name -> slot index within the partition
	wsURL       string
	reconnect   string // "exit" | "reconnect", the §9 open question resolved as config
	backoff     time.Duration
	strideLimit int // inflate buffer size (inflate_buffer_size, which defaults to the slot stride)

	maxSeen int // high-water mark of inflated frame sizes, for stride tuning (SPEC_FULL §5)
}

// New builds a Worker for partitionID over instruments, which must be the
// exact slice of instrument names routed to this partition (their index in
// the slice is their slot index).
func New(partitionID int, instruments []string, wsURL, reconnect string, backoff time.Duration, strideLimit int) *Worker {
	routing := make(map[string]int, len(instruments))
	for i, sym := range instruments {
		routing[sym] = i
	}
	return &Worker{
		partitionID: partitionID,
		instruments: instruments,
		routing:     routing,
		wsURL:       wsURL,
		reconnect:   reconnect,
		backoff:     backoff,
		strideLimit: strideLimit,
	}
}

// Run drives this partition's connection state machine (Connecting ->
// Subscribed -> Streaming -> Closed) until ctx is cancelled, a Protocol
// fatal occurs, or (when reconnect is "exit") the first close frame ends
// the worker for good.
func (w *Worker) Run(ctx context.Context, out *writer.Writer) error {
	for {
		err := w.connectAndServe(ctx, out)

		if ctx.Err() != nil {
			return nil // graceful: context cancelled by signal or a sibling's fatal
		}

		var fatal *ferrors.Fatal
		if errors.As(err, &fatal) {
			return err
		}

		if errors.Is(err, errGracefulClose) {
			if w.reconnect == "exit" {
				return nil
			}
			log.Printf("feed[%d]: closed by peer, reconnecting in %s", w.partitionID, w.backoff)
		} else {
			log.Printf("feed[%d]: %v, reconnecting in %s", w.partitionID, err, w.backoff)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.backoff):
		}
	}
}

func (w *Worker) connectAndServe(ctx context.Context, out *writer.Writer) error {
	conn, err := transport.Dial(ctx, w.wsURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.CloseNow()

	if err := w.subscribe(ctx, conn); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	log.Printf("feed[%d]: subscribed to %d instruments", w.partitionID, len(w.instruments))

	inf := transport.NewInflater(w.strideLimit)

	for {
		frm, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		switch frm.Kind {
		case transport.FrameText:
			log.Printf("feed[%d]: text frame: %s", w.partitionID, frm.Data)

		case transport.FrameClose:
			return errGracefulClose

		case transport.FrameBinary:
			payload, err := inf.Inflate(frm.Data)
			if err != nil {
				log.Printf("feed[%d]: inflate failed, dropping frame: %v", w.partitionID, err)
				continue
			}
			if len(payload) > w.maxSeen {
				w.maxSeen = len(payload)
				log.Printf("feed[%d]: new max inflated frame size %d bytes", w.partitionID, w.maxSeen)
			}
			if err := w.dispatch(ctx, conn, out, payload); err != nil {
				return err
			}
		}
	}
}

func (w *Worker) subscribe(ctx context.Context, conn *transport.Conn) error {
	var b strings.Builder
	b.WriteString(`{"sub": [`)
	for i, sym := range w.instruments {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%q", fmt.Sprintf("market.%s.bbo", sym))
	}
	fmt.Fprintf(&b, `], "id": "id%d"}`, w.partitionID)
	return conn.WriteText(ctx, []byte(b.String()))
}

// dispatch classifies an inflated payload per §4.4:
//  1. a 6-byte "{"ping" prefix is a keepalive: echo a pong, never publish it.
//  2. otherwise locate market.<instrument>.bbo and route it to that
//     instrument's slot; a routing miss is a Protocol fatal.
//  3. a frame with no market tag but containing "status" is an
//     out-of-band acknowledgment: discard. Anything else is a Protocol fatal.
func (w *Worker) dispatch(ctx context.Context, conn frameWriter, out *writer.Writer, payload []byte) error {
	if len(payload) >= 6 && string(payload[:6]) == pingPrefix {
		return w.pong(ctx, conn, payload)
	}

	marketIdx := bytes.Index(payload, []byte(marketTag))
	if marketIdx < 0 {
		if bytes.Contains(payload, []byte(statusTag)) {
			return nil
		}
		return ferrors.Protocolf("feed[%d]: frame has neither a market tag nor a status token: %q", w.partitionID, payload)
	}

	rest := payload[marketIdx+len(marketTag):]
	bboIdx := bytes.Index(rest, []byte(bboTag))
	if bboIdx < 0 {
		if bytes.Contains(payload, []byte(statusTag)) {
			return nil
		}
		return ferrors.Protocolf("feed[%d]: market tag without .bbo suffix: %q", w.partitionID, payload)
	}
	instrument := string(rest[:bboIdx])

	slotIdx, ok := w.routing[instrument]
	if !ok {
		return ferrors.Protocolf("feed[%d]: routing miss for instrument %q: subscription/partitioning drift", w.partitionID, instrument)
	}

	out.Write(slotIdx, payload)
	return nil
}

// pong echoes an inbound ping, replacing only byte index 3 so that
// {"ping... becomes {"pong..., byte-identical otherwise (§6).
func (w *Worker) pong(ctx context.Context, conn frameWriter, ping []byte) error {
	pong := append([]byte(nil), ping...)
	pong[3] = 'o'
	if err := conn.WriteText(ctx, pong); err != nil {
		return fmt.Errorf("pong: %w", err)
	}
	return nil
}
