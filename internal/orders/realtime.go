package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultHeartbeat is the Phoenix heartbeat interval.
const DefaultHeartbeat = 30 * time.Second

// ErrConnectionLost is reported by a Subscription whose socket dropped.
var ErrConnectionLost = errors.New("realtime connection lost")

// ErrJoinRejected is reported by a Subscription whose channel join was
// refused by the server.
var ErrJoinRejected = errors.New("realtime join rejected")

// Realtime subscribes to order changes over the Phoenix channel socket.
type Realtime struct {
	url       string
	dialer    websocket.Dialer
	heartbeat time.Duration
	logger    *slog.Logger
}

// NewRealtime derives the socket URL from the REST base URL.
func NewRealtime(baseURL, apiKey string, logger *slog.Logger) *Realtime {
	wsURL := strings.TrimSuffix(baseURL, "/")
	switch {
	case strings.HasPrefix(wsURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	case strings.HasPrefix(wsURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}
	q := url.Values{}
	q.Set("apikey", apiKey)
	q.Set("vsn", "1.0.0")
	wsURL += "/realtime/v1/websocket?" + q.Encode()

	if logger == nil {
		logger = slog.Default()
	}
	return &Realtime{
		url:       wsURL,
		dialer:    websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		heartbeat: DefaultHeartbeat,
		logger:    logger,
	}
}

// SetHeartbeat overrides the heartbeat interval.
func (r *Realtime) SetHeartbeat(d time.Duration) {
	r.heartbeat = d
}

// message is a Phoenix protocol frame.
type message struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     *string         `json:"ref"`
	JoinRef *string         `json:"join_ref,omitempty"`
}

type changeConfig struct {
	Event  string `json:"event"`
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Filter string `json:"filter,omitempty"`
}

type joinPayload struct {
	Config struct {
		PostgresChanges []changeConfig `json:"postgres_changes"`
	} `json:"config"`
}

type changePayload struct {
	Data struct {
		Type   string          `json:"type"`
		Record json.RawMessage `json:"record"`
	} `json:"data"`
}

type replyPayload struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

// Subscribe dials the socket, joins the orders channel filtered to userID
// and calls fn for each UPDATE until the returned Subscription is closed.
// fn runs on the read goroutine.
func (r *Realtime) Subscribe(ctx context.Context, userID string, fn func(Order)) (Subscription, error) {
	conn, _, err := r.dialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	s := &realtimeSub{
		conn:   conn,
		topic:  "realtime:public:" + table,
		fn:     fn,
		logger:  r.logger,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	var join joinPayload
	join.Config.PostgresChanges = []changeConfig{{
		Event:  "UPDATE",
		Schema: "public",
		Table:  table,
		Filter: "user_id=eq." + userID,
	}}
	if err := s.send(s.topic, "phx_join", join, true); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send join: %w", err)
	}

	s.wg.Add(2)
	go s.readLoop()
	go s.heartbeatLoop(r.heartbeat)
	return s, nil
}

type realtimeSub struct {
	conn   *websocket.Conn
	topic  string
	fn     func(Order)
	logger *slog.Logger

	writeMu sync.Mutex
	ref     int
	joinRef string

	// done is closed by Close; stopped is closed when readLoop exits.
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	errMu sync.Mutex
	err   error
}

// Done is closed once the feed has stopped.
func (s *realtimeSub) Done() <-chan struct{} {
	return s.stopped
}

// Err reports why the feed stopped. It is nil while running and after a
// requested Close.
func (s *realtimeSub) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *realtimeSub) closing() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// fail records the first failure and closes the socket, ending readLoop.
func (s *realtimeSub) fail(err error) {
	if s.closing() {
		return
	}
	s.errMu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.errMu.Unlock()
	_ = s.conn.Close()
}

// send writes one frame. Gorilla connections allow one concurrent writer.
func (s *realtimeSub) send(topic, event string, payload any, join bool) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.ref++
	ref := strconv.Itoa(s.ref)
	frame := map[string]any{
		"topic":   topic,
		"event":   event,
		"payload": payload,
		"ref":     ref,
	}
	if join {
		s.joinRef = ref
	}
	if s.joinRef != "" && topic == s.topic {
		frame["join_ref"] = s.joinRef
	}
	return s.conn.WriteJSON(frame)
}

func (s *realtimeSub) readLoop() {
	defer s.wg.Done()
	defer close(s.stopped)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closing() {
				s.logger.Warn("realtime connection lost", "error", err)
				s.fail(fmt.Errorf("%w: %v", ErrConnectionLost, err))
			}
			return
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Debug("ignoring malformed realtime frame", "error", err)
			continue
		}
		s.dispatch(msg)
	}
}

func (s *realtimeSub) dispatch(msg message) {
	switch msg.Event {
	case "postgres_changes":
		var p changePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			s.logger.Debug("ignoring malformed change payload", "error", err)
			return
		}
		if p.Data.Type != "UPDATE" || len(p.Data.Record) == 0 {
			return
		}
		var o Order
		if err := json.Unmarshal(p.Data.Record, &o); err != nil {
			s.logger.Warn("ignoring undecodable order record", "error", err)
			return
		}
		s.fn(o)
	case "phx_reply":
		var p replyPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.Status == "ok" {
			return
		}
		s.logger.Warn("realtime request rejected", "topic", msg.Topic, "status", p.Status, "response", string(p.Response))
		if msg.Topic == s.topic {
			s.fail(fmt.Errorf("%w: %s %s", ErrJoinRejected, p.Status, string(p.Response)))
		}
	case "phx_error", "system":
		s.logger.Debug("realtime notice", "event", msg.Event, "payload", string(msg.Payload))
	}
}

func (s *realtimeSub) heartbeatLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-s.stopped:
			return
		case <-ticker.C:
			if err := s.send("phoenix", "heartbeat", map[string]any{}, false); err != nil {
				s.logger.Debug("heartbeat failed", "error", err)
			}
		}
	}
}

// Close leaves the channel, closes the socket and waits for the loops.
func (s *realtimeSub) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.send(s.topic, "phx_leave", map[string]any{}, false)

		s.writeMu.Lock()
		_ = s.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		s.writeMu.Unlock()

		// The socket is already closed when the feed failed.
		if cerr := s.conn.Close(); cerr != nil && s.Err() == nil {
			err = cerr
		}
		s.wg.Wait()
	})
	return err
}
