package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fasthttp/websocket"
	"github.com/gistlabs/gistctl/internal/shared"
)

const dialTimeout = 10 * time.Second

// EventHandler receives each decoded push event.
type EventHandler func(Event)

// messageReader is the subset of the websocket connection the read loop needs.
type messageReader interface {
	ReadMessage() (int, []byte, error)
}

// Listener maintains a websocket subscription delivering incremental
// events for one job. It performs no reconnect: the poller runs
// concurrently as the redundant channel, so a dropped stream only costs
// latency, never correctness.
type Listener struct {
	conn      *websocket.Conn
	logger    *log.Logger
	closeOnce sync.Once
	done      chan struct{}
}

// OpenListener dials the per-job event stream and starts decoding
// events onto the handler. A dial failure is returned to the caller,
// which should treat it as "continue with polling only", not as a job
// failure.
func OpenListener(ctx context.Context, streamURL string, handler EventHandler, logger *log.Logger) (*Listener, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", shared.ErrStreamClosed, streamURL, err)
	}

	l := &Listener{
		conn:   conn,
		logger: logger,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(l.done)
		readLoop(conn, handler, logger)
	}()

	return l, nil
}

// readLoop decodes messages until the connection errors. A single
// undecodable event is dropped and logged; it never terminates the
// subscription.
func readLoop(r messageReader, handler EventHandler, logger *log.Logger) {
	for {
		_, data, err := r.ReadMessage()
		if err != nil {
			logger.Debug("event stream closed", "error", err)
			return
		}

		ev, err := decodeEvent(data)
		if err != nil {
			logger.Warn("dropping undecodable event", "error", err)
			continue
		}

		handler(ev)
	}
}

// Close tears down the subscription. Safe to call more than once.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		if l.conn != nil {
			l.conn.Close()
		}
	})
	return nil
}

// Done is closed once the read loop has exited.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}
