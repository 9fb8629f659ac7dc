package transport

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"evstation/internal"
	"evstation/internal/config"
	"evstation/utility"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

var ErrNotConnected = utility.Err("not connected to the CSMS")

const featureName = "Transport"

// Client keeps one OCPP-J websocket to the CSMS open, reconnecting with an
// exponential backoff whenever it drops.
type Client struct {
	url            string
	stationId      string
	subProtocol    string
	password       string
	backoffInitial time.Duration
	backoffMax     time.Duration
	dialer         *websocket.Dialer
	logger         internal.LogHandler

	mutex          sync.Mutex
	writeMutex     sync.Mutex
	conn           *websocket.Conn
	messageHandler func(data []byte)
	onConnected    func()
	onDisconnected func()
}

func NewClient(conf *config.Config) *Client {
	return &Client{
		url:            strings.TrimRight(conf.Csms.Url, "/") + "/" + conf.Station.Id,
		stationId:      conf.Station.Id,
		subProtocol:    conf.Csms.SubProtocol,
		password:       conf.Csms.Password,
		backoffInitial: conf.Csms.BackoffInitial,
		backoffMax:     conf.Csms.BackoffMax,
		dialer: &websocket.Dialer{
			Subprotocols:     []string{conf.Csms.SubProtocol},
			HandshakeTimeout: 10 * time.Second,
		},
		logger: internal.NopLogger{},
	}
}

func (c *Client) SetLogger(logger internal.LogHandler) {
	c.logger = logger
}

func (c *Client) SetMessageHandler(handler func(data []byte)) {
	c.messageHandler = handler
}

func (c *Client) SetConnectionHandlers(onConnected, onDisconnected func()) {
	c.onConnected = onConnected
	c.onDisconnected = onDisconnected
}

func (c *Client) IsConnected() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.conn != nil
}

func (c *Client) Start(ctx context.Context) {
	go c.Run(ctx)
}

// Run connects and reads until the context is cancelled.
func (c *Client) Run(ctx context.Context) {
	for {
		conn, err := c.connect(ctx)
		if err != nil {
			return
		}
		c.mutex.Lock()
		c.conn = conn
		c.mutex.Unlock()
		c.logger.FeatureEvent(featureName, c.stationId, fmt.Sprintf("connected to %s using %s", c.url, conn.Subprotocol()))
		if c.onConnected != nil {
			c.onConnected()
		}

		c.messageReader(ctx, conn)

		c.mutex.Lock()
		c.conn = nil
		c.mutex.Unlock()
		if c.onDisconnected != nil {
			c.onDisconnected()
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if c.backoffInitial > 0 {
		b.InitialInterval = c.backoffInitial
	}
	if c.backoffMax > 0 {
		b.MaxInterval = c.backoffMax
	}
	b.MaxElapsedTime = 0
	return backoff.WithContext(b, ctx)
}

func (c *Client) connect(ctx context.Context) (*websocket.Conn, error) {
	var conn *websocket.Conn
	operation := func() error {
		var err error
		conn, err = c.dial(ctx)
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn(fmt.Sprintf("connecting to %s: %s; retry in %s", c.url, err, wait.Round(time.Millisecond)))
	}
	if err := backoff.RetryNotify(operation, c.newBackOff(ctx), notify); err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(c.stationId + ":" + c.password))
		header.Set("Authorization", "Basic "+credentials)
	}
	conn, response, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		if response != nil {
			return nil, fmt.Errorf("%w (status %s)", err, response.Status)
		}
		return nil, err
	}
	if conn.Subprotocol() != c.subProtocol {
		_ = conn.Close()
		return nil, utility.Err(fmt.Sprintf("CSMS did not accept subprotocol %s", c.subProtocol))
	}
	return conn, nil
}

func (c *Client) messageReader(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.FeatureEvent(featureName, c.stationId, "CSMS closed the connection")
			} else if ctx.Err() == nil {
				c.logger.Warn(fmt.Sprintf("connection to CSMS lost: %s", err))
			}
			if err = conn.Close(); err != nil && ctx.Err() == nil {
				c.logger.Debug(fmt.Sprintf("closing socket: %s", err))
			}
			return
		}
		c.logger.RawDataEvent("IN", string(message))
		if c.messageHandler != nil {
			c.messageHandler(message)
		}
	}
}

// Send writes one frame; it fails right away when there is no connection.
func (c *Client) Send(data []byte) error {
	c.mutex.Lock()
	conn := c.conn
	c.mutex.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	c.logger.RawDataEvent("OUT", string(data))
	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}
