package router

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
)

const (
	defaultStreamInterval = time.Second
	minStreamInterval     = 100 * time.Millisecond
	streamWriteTimeout    = 5 * time.Second
)

type StreamMessageType string

const (
	StreamMessageSnapshots StreamMessageType = "snapshots"
	StreamMessageFill      StreamMessageType = "fill"
	StreamMessageError     StreamMessageType = "error"
)

type StreamMessage struct {
	Type      StreamMessageType        `json:"type"`
	Snapshots []*models.Snapshot       `json:"snapshots,omitempty"`
	Fill      *models.OrderFilledEvent `json:"fill,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// streamHub fans fill events out to the websocket streams of their account.
type streamHub struct {
	mu          sync.Mutex
	subscribers map[chan *models.OrderFilledEvent]string
}

func newStreamHub() *streamHub {
	return &streamHub{
		subscribers: make(map[chan *models.OrderFilledEvent]string),
	}
}

func (s *streamHub) subscribe(accountID string) chan *models.OrderFilledEvent {
	ch := make(chan *models.OrderFilledEvent, 16)

	s.mu.Lock()
	s.subscribers[ch] = accountID
	s.mu.Unlock()

	return ch
}

func (s *streamHub) unsubscribe(ch chan *models.OrderFilledEvent) {
	s.mu.Lock()
	delete(s.subscribers, ch)
	s.mu.Unlock()
}

// onFill never blocks: a stream that is not keeping up drops the event.
func (s *streamHub) onFill(event *models.OrderFilledEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch, accountID := range s.subscribers {
		if accountID != event.AccountID {
			continue
		}

		select {
		case ch <- event:
		default:
			log.Warnf("onFill: dropping fill %s for slow stream", event.Fill.OrderID)
		}
	}
}

func writeStreamMessage(conn *websocket.Conn, msg *StreamMessage) error {
	conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteJSON(msg)
}

// handleStream pushes snapshots for the requested symbols every interval and
// forwards the account's fills as they happen. Each tick also runs the fill
// scan, since snapshots trigger matching.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(404)
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.registry.Do(id, func(*models.MockAccount) error { return nil }); err != nil {
		setErrorResponse("handleStream: unknown account", err, w)
		return
	}

	var query StreamQuery
	if err := h.decodeQuery(r, &query); err != nil {
		setErrorResponse("handleStream: failed to decode query", err, w)
		return
	}

	interval := defaultStreamInterval
	if query.IntervalMs > 0 {
		interval = time.Duration(query.IntervalMs) * time.Millisecond
	}
	if interval < minStreamInterval {
		interval = minStreamInterval
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("handleStream: failed to upgrade: %v", err)
		return
	}
	defer conn.Close()

	fills := h.streams.subscribe(id)
	defer h.streams.unsubscribe(fills)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Infof("handleStream: streaming %v for %s every %s", query.Symbols, id, interval)

	for {
		select {
		case <-closed:
			return

		case <-r.Context().Done():
			return

		case event := <-fills:
			if err := writeStreamMessage(conn, &StreamMessage{Type: StreamMessageFill, Fill: event}); err != nil {
				log.Warnf("handleStream: write fill: %v", err)
				return
			}

		case <-ticker.C:
			var snapshots []*models.Snapshot
			err := h.registry.Do(id, func(account *models.MockAccount) (err error) {
				snapshots, err = account.Snapshots(r.Context(), query.Symbols)
				return
			})

			msg := &StreamMessage{Type: StreamMessageSnapshots, Snapshots: snapshots}
			if err != nil {
				msg = &StreamMessage{Type: StreamMessageError, Error: err.Error()}
			}

			if err := writeStreamMessage(conn, msg); err != nil {
				log.Warnf("handleStream: write snapshots: %v", err)
				return
			}

			if msg.Type == StreamMessageError {
				return
			}
		}
	}
}
