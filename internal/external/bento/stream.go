package bento

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jwhan/contango/pkg/config"
	"github.com/jwhan/contango/pkg/logger"
)

const (
	pingInterval     = 30 * time.Second
	writeWait        = 10 * time.Second
	handshakeTimeout = 15 * time.Second
)

// StreamClient maintains a live websocket session with the vendor and
// pushes intraday bars to a callback. Used by the worker to keep the
// current day's observations warm between nightly pulls.
type StreamClient struct {
	cfg    config.VendorConfig
	logger *logger.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	connected bool

	subscriptions map[string]bool
	subMu         sync.RWMutex

	onBar   func(*LiveBar)
	onError func(error)

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewStreamClient creates a new live stream client
func NewStreamClient(cfg config.VendorConfig, log *logger.Logger) *StreamClient {
	return &StreamClient{
		cfg:           cfg,
		logger:        log,
		subscriptions: make(map[string]bool),
		stopCh:        make(chan struct{}),
	}
}

// OnBar sets the bar callback
func (c *StreamClient) OnBar(fn func(*LiveBar)) { c.onBar = fn }

// OnError sets the error callback
func (c *StreamClient) OnError(fn func(error)) { c.onError = fn }

// authRequest is the first frame of a session
type authRequest struct {
	Action  string `json:"action"`
	APIKey  string `json:"api_key"`
	Dataset string `json:"dataset"`
}

// subscribeRequest adds a parent symbol to the session
type subscribeRequest struct {
	Action  string `json:"action"`
	Schema  string `json:"schema"`
	Symbols string `json:"symbols"`
	StypeIn string `json:"stype_in"`
}

// streamBar is the wire shape of a pushed bar
type streamBar struct {
	InstrumentID int64 `json:"instrument_id"`
	TsEvent      int64 `json:"ts_event,string"`
	Open         int64 `json:"open,string"`
	High         int64 `json:"high,string"`
	Low          int64 `json:"low,string"`
	Close        int64 `json:"close,string"`
	Volume       int64 `json:"volume"`
}

// Connect establishes the websocket session and authenticates
func (c *StreamClient) Connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.connected {
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.cfg.StreamURL, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	auth := authRequest{Action: "auth", APIKey: c.cfg.APIKey, Dataset: c.cfg.Dataset}
	if err := conn.WriteJSON(auth); err != nil {
		conn.Close()
		return fmt.Errorf("websocket auth: %w", err)
	}

	c.conn = conn
	c.connected = true

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	c.logger.Info("Live stream connected")
	return nil
}

// Subscribe requests intraday bars for a product root
func (c *StreamClient) Subscribe(root string) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if !c.connected {
		return fmt.Errorf("stream not connected")
	}

	c.subMu.Lock()
	already := c.subscriptions[root]
	c.subscriptions[root] = true
	c.subMu.Unlock()
	if already {
		return nil
	}

	sub := subscribeRequest{
		Action:  "subscribe",
		Schema:  "ohlcv-1m",
		Symbols: root + ".FUT",
		StypeIn: "parent",
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("websocket subscribe: %w", err)
	}

	c.logger.WithField("root", root).Info("Subscribed to live bars")
	return nil
}

// Close tears down the session
func (c *StreamClient) Close() {
	c.connMu.Lock()
	if !c.connected {
		c.connMu.Unlock()
		return
	}
	c.connected = false
	close(c.stopCh)
	c.conn.Close()
	c.connMu.Unlock()

	c.wg.Wait()
	c.logger.Info("Live stream closed")
}

// readLoop decodes pushed bars until the connection drops
func (c *StreamClient) readLoop() {
	defer c.wg.Done()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.stopCh:
				return
			default:
			}
			if c.onError != nil {
				c.onError(fmt.Errorf("websocket read: %w", err))
			}
			return
		}

		var rec streamBar
		if err := json.Unmarshal(data, &rec); err != nil {
			c.logger.WithError(err).Warn("Skipping malformed stream frame")
			continue
		}
		if rec.InstrumentID == 0 {
			// Session control frames carry no instrument
			continue
		}

		if c.onBar != nil {
			c.onBar(&LiveBar{
				InstrumentID: rec.InstrumentID,
				Time:         nanosToTime(rec.TsEvent),
				Open:         scaledPrice(rec.Open),
				High:         scaledPrice(rec.High),
				Low:          scaledPrice(rec.Low),
				Close:        scaledPrice(rec.Close),
				Volume:       rec.Volume,
			})
		}
	}
}

// pingLoop keeps the session alive
func (c *StreamClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.connected {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					c.logger.WithError(err).Warn("Ping failed")
				}
			}
			c.connMu.Unlock()
		}
	}
}
