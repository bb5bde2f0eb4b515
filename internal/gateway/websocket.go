package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/deckplane/internal/logging"
	"github.com/muurk/deckplane/internal/page"
)

const (
	// DefaultDialTimeout is the timeout for the initial websocket dial
	DefaultDialTimeout = 10 * time.Second

	// Time allowed to write a message to the gateway
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the gateway
	pongWait = 60 * time.Second

	// Send pings to the gateway with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Buffer size of the events channel; gateway bursts (fifteen
	// key-appeared events after a profile switch) must not block the
	// read loop.
	eventBuffer = 64
)

// wireMessage is the JSON envelope exchanged with the gateway service.
// Outbound commands and inbound notifications share the shape; unused
// fields are omitted.
type wireMessage struct {
	Type     string `json:"type"`
	DeviceID string `json:"deviceId,omitempty"`
	Profile  string `json:"profile,omitempty"`
	Row      int    `json:"row,omitempty"`
	Col      int    `json:"col,omitempty"`
	Title    string `json:"title,omitempty"`
	Image    string `json:"image,omitempty"` // base64 PNG
}

// Client is the websocket implementation of Gateway, speaking JSON to the
// vendor key-grid service.
type Client struct {
	// Addr is the websocket URL of the gateway (e.g. "ws://127.0.0.1:50354")
	Addr string

	// DialTimeout bounds the initial connection attempt
	DialTimeout time.Duration

	conn    *websocket.Conn
	writeMu sync.Mutex
	events  chan Event

	closeOnce sync.Once
}

// NewClient creates a gateway client for the given websocket URL.
func NewClient(addr string) *Client {
	return &Client{
		Addr:        addr,
		DialTimeout: DefaultDialTimeout,
		events:      make(chan Event, eventBuffer),
	}
}

// Connect dials the gateway service and starts the notification read loop.
func (c *Client) Connect(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, c.DialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.Addr, nil)
	if err != nil {
		return NewConnectivityError("failed to dial gateway", err)
	}
	c.conn = conn

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	logging.Info("Connected to key-grid gateway", zap.String("addr", c.Addr))

	go c.readLoop()
	go c.pingLoop()

	return nil
}

// Events returns the notification stream.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Close tears the connection down. Safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

// SwitchProfile asks the device to change to the named profile.
func (c *Client) SwitchProfile(name string) error {
	return c.send(wireMessage{Type: "switchProfile", Profile: name})
}

// SetKey sets the title and image of one key of the managed profile.
func (c *Client) SetKey(row, col int, title string, image []byte) error {
	if err := checkCell(row, col); err != nil {
		return err
	}
	msg := wireMessage{Type: "setKey", Row: row, Col: col, Title: title}
	if len(image) > 0 {
		msg.Image = base64.StdEncoding.EncodeToString(image)
	}
	return c.send(msg)
}

// ClearKey blanks one key of the managed profile.
func (c *Client) ClearKey(row, col int) error {
	if err := checkCell(row, col); err != nil {
		return err
	}
	return c.send(wireMessage{Type: "clearKey", Row: row, Col: col})
}

// checkCell rejects coordinates outside the device grid. The gateway
// service refuses such commands, so retrying would never succeed.
func checkCell(row, col int) error {
	if row < 0 || row >= page.Rows || col < 0 || col >= page.Cols {
		return NewProtocolError(fmt.Sprintf("cell (%d,%d) outside the %dx%d grid", row, col, page.Rows, page.Cols), nil)
	}
	return nil
}

// send serializes one outbound command. Writes are mutex-guarded because
// the tick drain and the ping loop share the connection.
func (c *Client) send(msg wireMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.conn == nil {
		return NewConnectivityError("gateway not connected", nil)
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return NewConnectivityError("failed to set write deadline", err)
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return NewConnectivityError("failed to write to gateway", err)
	}

	logging.Debug("Gateway command sent",
		zap.String("type", msg.Type),
		zap.String("profile", msg.Profile),
		zap.Int("row", msg.Row),
		zap.Int("col", msg.Col),
	)
	return nil
}

// readLoop receives notifications until the connection dies, then emits a
// final detach event and closes the stream.
func (c *Client) readLoop() {
	defer func() {
		c.events <- Event{Kind: EventDeviceDetached}
		close(c.events)
	}()

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Warn("Failed to set read deadline", zap.Error(err))
		return
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			logging.Info("Gateway connection closed", zap.Error(err))
			return
		}

		var msg wireMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logging.Warn("Undecodable gateway message",
				zap.Error(err),
				zap.Int("length", len(data)),
			)
			continue
		}

		event, ok := decodeEvent(msg)
		if !ok {
			logging.Warn("Unknown gateway message type", zap.String("type", msg.Type))
			continue
		}

		logging.LogGatewayEvent(event.Kind.String(),
			zap.String("device_id", event.DeviceID),
			zap.String("profile", event.Profile),
			zap.Int("row", event.Row),
			zap.Int("col", event.Col),
		)
		c.events <- event
	}
}

// pingLoop keeps the connection alive; a missed pong trips the read
// deadline and surfaces as a connection loss in readLoop.
func (c *Client) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		c.writeMu.Lock()
		err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		c.writeMu.Unlock()
		if err != nil {
			return
		}
	}
}

// decodeEvent maps a wire message onto an Event.
func decodeEvent(msg wireMessage) (Event, bool) {
	var kind EventKind
	switch msg.Type {
	case "deviceAttached":
		kind = EventDeviceAttached
	case "deviceDetached":
		kind = EventDeviceDetached
	case "profileChanged":
		kind = EventProfileChanged
	case "keyAppeared":
		kind = EventKeyAppeared
	case "keyDisappeared":
		kind = EventKeyDisappeared
	case "keyDown":
		kind = EventKeyDown
	case "keyUp":
		kind = EventKeyUp
	default:
		return Event{}, false
	}

	return Event{
		Kind:     kind,
		DeviceID: msg.DeviceID,
		Profile:  msg.Profile,
		Row:      msg.Row,
		Col:      msg.Col,
	}, true
}
